// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// static menus server. It organizes routes into public and admin groups
// with appropriate middleware stacks.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"staticmenus/internal/handlers"
	"staticmenus/internal/middleware"
)

// Options tunes the router.
type Options struct {
	// SecureCookies marks the CSRF cookie Secure.
	SecureCookies bool
	// Metrics exposes the Prometheus registry at /metrics.
	Metrics bool
	// LoginLimiter, if set, rate-limits login attempts per client IP.
	LoginLimiter *middleware.RateLimiter
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(sessions middleware.SessionGetter, admin *handlers.Admin, auth *handlers.Auth, public *handlers.Public, opts Options) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadSession(sessions))

	// Health check and metrics: no auth, no CSRF.
	r.Get("/health", healthHandler)
	if opts.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	// Menu fragments. The session only decides whether the cache applies.
	r.Get("/menus/{location}", public.Menu)

	// Admin API: CSRF protection everywhere, authentication below.
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.NewCSRF(opts.SecureCookies))

		// Accessible without a session.
		r.Get("/session", auth.Session)
		r.Group(func(r chi.Router) {
			if opts.LoginLimiter != nil {
				r.Use(opts.LoginLimiter.Middleware)
			}
			r.Post("/login", auth.Login)
		})
		r.Post("/logout", auth.Logout)

		// 2FA: requires auth but NOT completed 2FA.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/2fa/setup", auth.TwoFASetup)
			r.Post("/2fa/verify", auth.TwoFAVerify)
		})

		// Authenticated, 2FA-verified administrators.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.Require2FA)
			r.Use(middleware.RequireAdmin)

			r.Route("/static-menus", func(r chi.Router) {
				r.Post("/flush", admin.Flush)
				r.Get("/settings", admin.Settings)
				r.Put("/settings", admin.UpdateSettings)
				r.Post("/deactivate", admin.Deactivate)
				r.Get("/log", admin.CacheLog)
			})

			r.Route("/menus", func(r chi.Router) {
				r.Get("/", admin.MenusList)
				r.Put("/{id}/items", admin.UpdateMenuItems)
				r.Put("/{id}/location", admin.UpdateMenuLocation)
			})
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
