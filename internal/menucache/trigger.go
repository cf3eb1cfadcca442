// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package menucache

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"staticmenus/internal/cache"
	"staticmenus/internal/settings"
)

// Flush reasons, used as the invalidation log entity type and the
// flush metric label.
const (
	ReasonMenu       = "menu"
	ReasonSettings   = "settings"
	ReasonDeactivate = "deactivate"
	ReasonManual     = "manual"
)

// InvalidationLog records flushes for auditing. backend is the caching
// method that was cleared. Implementations must not fail the caller.
type InvalidationLog interface {
	Log(ctx context.Context, entityType, backend string, entityID uuid.UUID, action string)
}

// Trigger flushes the active backend when something that affects
// rendered menus changes.
type Trigger struct {
	settings SettingsLoader
	backends *Backends
	log      InvalidationLog
}

// NewTrigger returns a Trigger. log may be nil.
func NewTrigger(loader SettingsLoader, backends *Backends, log InvalidationLog) *Trigger {
	return &Trigger{settings: loader, backends: backends, log: log}
}

// OnMenuStructureChanged runs after a menu, its items or its location
// assignment changed.
func (t *Trigger) OnMenuStructureChanged(ctx context.Context, menuID uuid.UUID) error {
	cfg, err := t.settings.Load(ctx)
	if err != nil {
		return err
	}
	return t.clear(ctx, cfg, ReasonMenu, menuID, "update")
}

// OnConfigurationChanged runs after settings were saved. When the file
// cache path moved, the former directory is removed first. The backend
// active under the new configuration is then cleared.
func (t *Trigger) OnConfigurationChanged(ctx context.Context, before, after settings.Settings) error {
	var migrateErr error
	if before.CachePath != after.CachePath {
		if err := cache.RemoveFormerDirectory(t.backends.ContentDir(), before.CachePath, after.CachePath); err != nil {
			CacheErrors.WithLabelValues(string(cache.MethodFile), "migrate").Inc()
			slog.Warn("former cache directory not removed",
				"old", before.CachePath, "new", after.CachePath, "error", err)
			migrateErr = fmt.Errorf("remove former cache directory: %w", err)
		}
	}
	if err := t.clear(ctx, after, ReasonSettings, uuid.Nil, "update"); err != nil {
		return err
	}
	return migrateErr
}

// OnDeactivate runs when caching is switched off from the admin.
func (t *Trigger) OnDeactivate(ctx context.Context) error {
	cfg, err := t.settings.Load(ctx)
	if err != nil {
		return err
	}
	return t.clear(ctx, cfg, ReasonDeactivate, uuid.Nil, "deactivate")
}

// Flush clears the active backend on demand.
func (t *Trigger) Flush(ctx context.Context) error {
	cfg, err := t.settings.Load(ctx)
	if err != nil {
		return err
	}
	return t.clear(ctx, cfg, ReasonManual, uuid.Nil, "flush")
}

func (t *Trigger) clear(ctx context.Context, cfg settings.Settings, reason string, entityID uuid.UUID, action string) error {
	backend := t.backends.For(cfg)
	label := string(cfg.CachingMethod)

	if err := backend.ClearAll(ctx); err != nil {
		CacheErrors.WithLabelValues(label, "clear").Inc()
		return fmt.Errorf("clear %s: %w", backend.DisplayName(), err)
	}
	CacheFlushes.WithLabelValues(label, reason).Inc()
	slog.Info("menu cache flushed", "backend", backend.DisplayName(), "reason", reason)

	if t.log != nil {
		t.log.Log(ctx, reason, label, entityID, action)
	}
	return nil
}
