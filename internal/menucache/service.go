// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package menucache

import (
	"context"
	"fmt"
	"log/slog"

	"staticmenus/internal/cache"
	"staticmenus/internal/fingerprint"
	"staticmenus/internal/settings"
)

// SettingsLoader reads the current configuration.
type SettingsLoader interface {
	Load(ctx context.Context) (settings.Settings, error)
}

// Service hands out per-request coordinators.
type Service struct {
	settings SettingsLoader
	backends *Backends
	opts     []Option
}

// NewService returns a Service. opts are applied to every coordinator.
func NewService(loader SettingsLoader, backends *Backends, opts ...Option) *Service {
	return &Service{settings: loader, backends: backends, opts: opts}
}

// Coordinator loads the configuration and returns a coordinator bound to
// the backend it selects. If the configuration cannot be read the
// defaults apply, which cache no location.
func (s *Service) Coordinator(ctx context.Context) *Coordinator {
	cfg, err := s.settings.Load(ctx)
	if err != nil {
		slog.Warn("static menus settings unavailable, caching nothing", "error", err)
		cfg = settings.Defaults()
	}
	c := NewCoordinator(cfg, nil, s.opts...)
	c.backend = s.backends.forTTL(cfg, c.TTL())
	return c
}

// PurgeExpired sweeps expired files when the file backend is active. The
// other backends expire entries themselves or through the transient purge.
func (s *Service) PurgeExpired(ctx context.Context) (int, error) {
	c := s.Coordinator(ctx)
	fb, ok := c.backend.(*cache.FileBackend)
	if !ok {
		return 0, nil
	}
	n, err := fb.PurgeExpired(ctx)
	if err != nil {
		CacheErrors.WithLabelValues(string(cache.MethodFile), "purge").Inc()
		return n, fmt.Errorf("purge file cache: %w", err)
	}
	return n, nil
}

// Resolve is a shortcut for Coordinator(ctx).Resolve.
func (s *Service) Resolve(ctx context.Context, conds fingerprint.Conditions, req Requester, render RenderFunc) (string, error) {
	return s.Coordinator(ctx).Resolve(ctx, conds, req, render)
}
