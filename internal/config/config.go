// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Object cache modes accepted by OBJECT_CACHE.
const (
	ObjectCacheValkey = "valkey" // shared Valkey instance
	ObjectCacheLocal  = "local"  // per-process map, lost on restart
	ObjectCacheNone   = "none"   // memory backend always misses
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache), used for sessions and the memory backend
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// Menu cache
	ContentDir    string        // root the file backend's cache path is resolved against
	ObjectCache   string        // ObjectCacheValkey, ObjectCacheLocal or ObjectCacheNone
	PurgeInterval time.Duration // how often expired transients are deleted

	// HTTP surface
	MetricsEnabled bool // expose /metrics
	SecureCookies  bool // mark session and CSRF cookies Secure
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if critical values
// are missing in production mode or a value cannot be parsed.
func Load() (*Config, error) {
	cfg := &Config{
		Host: envOrDefault("APP_HOST", "0.0.0.0"),
		Port: envOrDefault("APP_PORT", "8080"),
		Env:  envOrDefault("APP_ENV", "development"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "staticmenus"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "staticmenus"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		ContentDir:  envOrDefault("CONTENT_DIR", "./content"),
		ObjectCache: envOrDefault("OBJECT_CACHE", ObjectCacheValkey),
	}

	switch cfg.ObjectCache {
	case ObjectCacheValkey, ObjectCacheLocal, ObjectCacheNone:
	default:
		return nil, fmt.Errorf("OBJECT_CACHE must be one of %q, %q or %q, got %q",
			ObjectCacheValkey, ObjectCacheLocal, ObjectCacheNone, cfg.ObjectCache)
	}

	interval, err := time.ParseDuration(envOrDefault("TRANSIENT_PURGE_INTERVAL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("parse TRANSIENT_PURGE_INTERVAL: %w", err)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("TRANSIENT_PURGE_INTERVAL must be positive, got %s", interval)
	}
	cfg.PurgeInterval = interval

	if cfg.MetricsEnabled, err = envBool("METRICS_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.SecureCookies, err = envBool("COOKIE_SECURE", cfg.Env == "production"); err != nil {
		return nil, err
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envBool parses a boolean environment variable, returning fallback if unset.
func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return b, nil
}
