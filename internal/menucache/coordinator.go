// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package menucache decides when a rendered navigation menu may be served
// from the cache, stores fresh renders, and flushes the active backend
// when menus or settings change.
package menucache

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"staticmenus/internal/cache"
	"staticmenus/internal/fingerprint"
	"staticmenus/internal/settings"
)

const (
	debugStart = "<!-- Start WP Menu Cache -->"
	debugEnd   = "<!-- End WP Menu Cache -->"
)

// ElevatedRoles are the roles excluded by the "admins" exception.
var ElevatedRoles = []string{"administrator", "editor"}

// Requester describes who a menu is rendered for.
type Requester struct {
	LoggedIn   bool
	Roles      []string
	SuperAdmin bool
}

// Anonymous is a visitor without a session.
var Anonymous = Requester{}

// Elevated reports whether the requester holds an elevated role or is a
// super administrator.
func (r Requester) Elevated() bool {
	if r.SuperAdmin {
		return true
	}
	for _, role := range r.Roles {
		for _, e := range ElevatedRoles {
			if role == e {
				return true
			}
		}
	}
	return false
}

// RenderFunc produces menu markup for a set of conditions. It is treated
// as expensive and is never retried.
type RenderFunc func(ctx context.Context, conds fingerprint.Conditions) (string, error)

// LocationFilter may override whether a location is cached. enabled is
// the configured answer.
type LocationFilter func(location string, enabled bool) bool

// TTLFilter may override the configured TTL. Non-positive results are
// ignored.
type TTLFilter func(ttl time.Duration) time.Duration

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLocationFilter installs a location override.
func WithLocationFilter(f LocationFilter) Option {
	return func(c *Coordinator) { c.locationFilter = f }
}

// WithTTLFilter installs a TTL override.
func WithTTLFilter(f TTLFilter) Option {
	return func(c *Coordinator) { c.ttlFilter = f }
}

// WithDebugComments wraps markup served from the cache in HTML comments.
func WithDebugComments(on bool) Option {
	return func(c *Coordinator) { c.debug = on }
}

// Coordinator applies one configuration snapshot to render requests.
// Build a new one per request so settings changes apply immediately.
type Coordinator struct {
	settings       settings.Settings
	backend        cache.Backend
	locationFilter LocationFilter
	ttlFilter      TTLFilter
	debug          bool
}

// NewCoordinator returns a coordinator for the given configuration and
// the backend it selects.
func NewCoordinator(s settings.Settings, backend cache.Backend, opts ...Option) *Coordinator {
	c := &Coordinator{settings: s, backend: backend}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Settings returns the configuration snapshot.
func (c *Coordinator) Settings() settings.Settings {
	return c.settings
}

// Backend returns the active backend.
func (c *Coordinator) Backend() cache.Backend {
	return c.backend
}

// TTL is the expiry applied to new entries.
func (c *Coordinator) TTL() time.Duration {
	ttl := c.settings.TTL()
	if c.ttlFilter != nil {
		if d := c.ttlFilter(ttl); d > 0 {
			ttl = d
		}
	}
	return ttl
}

// IsEligible reports whether a render for conds and req may use the cache.
func (c *Coordinator) IsEligible(conds fingerprint.Conditions, req Requester) bool {
	if c.settings.DisableCaching || c.backend == nil {
		return false
	}

	location := conds.Location()
	if location == "" {
		return false
	}
	enabled := c.settings.LocationEnabled(location)
	if c.locationFilter != nil {
		enabled = c.locationFilter(location, enabled)
	}
	if !enabled {
		return false
	}

	switch c.settings.Exceptions {
	case settings.ExceptLoggedIn:
		return !req.LoggedIn
	case settings.ExceptAdmins:
		return !req.Elevated()
	default:
		return true
	}
}

// Resolve returns the menu markup for conds. Eligible requests are served
// from the active backend when possible; on a miss, or when the request is
// not eligible, render is called. Errors from render are returned
// unchanged; cache failures are logged and never returned.
func (c *Coordinator) Resolve(ctx context.Context, conds fingerprint.Conditions, req Requester, render RenderFunc) (string, error) {
	if !c.IsEligible(conds, req) {
		markup, err := render(ctx, conds)
		if err != nil {
			return "", err
		}
		Renders.WithLabelValues(strconv.FormatBool(false)).Inc()
		return markup, nil
	}

	label := string(c.settings.CachingMethod)
	fp := fingerprint.Fingerprint(conds)

	if markup, ok := c.backend.Get(ctx, fp); ok {
		CacheHits.WithLabelValues(label).Inc()
		Renders.WithLabelValues(strconv.FormatBool(true)).Inc()
		slog.Debug("menu cache hit", "location", conds.Location(), "key", fp, "backend", label)
		if c.debug {
			return debugStart + markup + debugEnd, nil
		}
		return markup, nil
	}
	CacheMisses.WithLabelValues(label).Inc()

	markup, err := render(ctx, conds)
	if err != nil {
		return "", err
	}
	Renders.WithLabelValues(strconv.FormatBool(false)).Inc()

	if markup == "" {
		return markup, nil
	}
	if err := c.backend.Set(ctx, fp, markup, c.TTL()); err != nil {
		CacheErrors.WithLabelValues(label, "set").Inc()
		slog.Warn("menu cache store failed", "location", conds.Location(), "key", fp, "backend", label, "error", err)
		return markup, nil
	}
	slog.Debug("menu cache stored", "location", conds.Location(), "key", fp, "backend", label, "ttl", c.TTL())
	return markup, nil
}
