// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the static menus server.
// It loads configuration, connects to services, wires the menu render
// cache, and starts the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"staticmenus/internal/cache"
	"staticmenus/internal/config"
	"staticmenus/internal/database"
	"staticmenus/internal/handlers"
	"staticmenus/internal/menucache"
	"staticmenus/internal/middleware"
	"staticmenus/internal/navmenu"
	"staticmenus/internal/router"
	"staticmenus/internal/session"
	"staticmenus/internal/settings"
	"staticmenus/internal/store"
)

func main() {
	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: text in development, JSON elsewhere.
	var handler slog.Handler
	if cfg.IsDev() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"object_cache", cfg.ObjectCache,
	)

	// Startup steps share one deadline.
	startCtx, cancelStart := context.WithTimeout(context.Background(), time.Minute)
	defer cancelStart()

	// Connect to PostgreSQL.
	db, err := database.Connect(startCtx, cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(startCtx, db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(startCtx, db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (sessions, and the shared object cache).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	sessionStore := session.NewStore(valkeyClient, cfg.SecureCookies)

	// Pick the object store behind the memory backend. With none, the
	// memory backend always misses and the coordinator renders live.
	var objects cache.ObjectStore
	switch cfg.ObjectCache {
	case config.ObjectCacheValkey:
		objects = cache.NewValkeyObjectStore(valkeyClient)
	case config.ObjectCacheLocal:
		objects = cache.NewLocalObjectStore()
	}

	contentDir, err := filepath.Abs(cfg.ContentDir)
	if err != nil {
		slog.Error("failed to resolve content directory", "dir", cfg.ContentDir, "error", err)
		os.Exit(1)
	}

	// Initialize data stores.
	userStore := store.NewUserStore(db)
	menuStore := store.NewMenuStore(db)
	transientStore := store.NewTransientStore(db)
	cacheLogStore := store.NewCacheLogStore(db)
	settingsRepo := settings.NewRepository(store.NewSiteSettingStore(db))

	// Menu render cache: backends, read-through service, invalidation.
	backends := menucache.NewBackends(objects, transientStore, contentDir)
	menus := menucache.NewService(settingsRepo, backends, menucache.WithDebugComments(cfg.IsDev()))
	trigger := menucache.NewTrigger(settingsRepo, backends, cacheLogStore)
	renderer := navmenu.New(menuStore)

	// Create handler groups with their dependencies.
	adminHandlers := handlers.NewAdmin(settingsRepo, trigger, menuStore, cacheLogStore)
	authHandlers := handlers.NewAuth(sessionStore, userStore)
	publicHandlers := handlers.NewPublic(menus, renderer.Render)

	// Five login attempts per minute per client IP.
	loginLimiter := middleware.NewRateLimiter(5, time.Minute)
	defer loginLimiter.Stop()

	// Set up the Chi router with all middleware and routes.
	r := router.New(sessionStore, adminHandlers, authHandlers, publicHandlers, router.Options{
		SecureCookies: cfg.SecureCookies,
		Metrics:       cfg.MetricsEnabled,
		LoginLimiter:  loginLimiter,
	})

	// Durable and file entries expire lazily on read; sweep the rest periodically.
	purgeCtx, stopPurge := context.WithCancel(context.Background())
	defer stopPurge()
	go housekeeping(purgeCtx, transientStore, menus, cacheLogStore, cfg.PurgeInterval)

	// Create the HTTP server with sensible timeouts.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr(), "content_dir", contentDir)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)
	stopPurge()

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

// cacheLogRetention is how long flush audit entries are kept.
const cacheLogRetention = 30 * 24 * time.Hour

// housekeeping deletes expired durable cache rows, expired cache files and
// old flush audit entries every tick until ctx is done.
func housekeeping(ctx context.Context, transients *store.TransientStore, menus *menucache.Service, cacheLog *store.CacheLogStore, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := transients.PurgeExpired(ctx); err != nil {
				slog.Warn("transient purge failed", "error", err)
			} else if n > 0 {
				slog.Debug("expired transients purged", "count", n)
			}

			if n, err := menus.PurgeExpired(ctx); err != nil {
				slog.Warn("file cache purge failed", "error", err)
			} else if n > 0 {
				slog.Debug("expired cache files purged", "count", n)
			}

			if n, err := cacheLog.Prune(ctx, time.Now().Add(-cacheLogRetention)); err != nil {
				slog.Warn("cache log prune failed", "error", err)
			} else if n > 0 {
				slog.Debug("cache log pruned", "count", n)
			}
		}
	}
}
