// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package settings holds the static menus configuration: which locations
// are cached, where, for how long and for whom. Values are persisted as
// site settings and read fresh for every render.
package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"staticmenus/internal/cache"
	"staticmenus/internal/models"
)

// Site setting keys.
const (
	keyPrefix         = "static_menus."
	KeyDisableCaching = keyPrefix + "disable_caching"
	KeyThemeLocations = keyPrefix + "theme_locations"
	KeyCachingMethod  = keyPrefix + "caching_method"
	KeyCacheLength    = keyPrefix + "cache_length"
	KeyExceptions     = keyPrefix + "exceptions"
	KeyCachePath      = keyPrefix + "cache_path"
)

const (
	// DefaultCacheLength is the TTL in minutes when none is configured.
	DefaultCacheLength = 60

	// DefaultCachePath is the File backend namespace below the content dir.
	DefaultCachePath = "cache/wp-static-menus/"
)

// ErrPathTraversal is returned for cache paths containing "..".
var ErrPathTraversal = errors.New("cache path must not contain '..'")

// Exception selects which requesters bypass the cache.
type Exception string

const (
	ExceptNone     Exception = "none"
	ExceptLoggedIn Exception = "logged_in"
	ExceptAdmins   Exception = "admins"
)

// ParseException maps a stored value to an Exception. "0" and empty are
// the legacy spelling of none; unknown values also mean none.
func ParseException(s string) Exception {
	switch Exception(strings.ToLower(strings.TrimSpace(s))) {
	case ExceptLoggedIn:
		return ExceptLoggedIn
	case ExceptAdmins:
		return ExceptAdmins
	default:
		return ExceptNone
	}
}

// Settings is the static menus configuration.
type Settings struct {
	DisableCaching bool         `json:"disable_caching"`
	ThemeLocations []string     `json:"theme_locations"`
	CachingMethod  cache.Method `json:"caching_method"`
	CacheLength    int          `json:"cache_length"` // minutes
	Exceptions     Exception    `json:"exceptions"`
	CachePath      string       `json:"cache_path"`
}

// Defaults returns the configuration used before anything is saved.
func Defaults() Settings {
	return Settings{
		ThemeLocations: []string{},
		CachingMethod:  cache.DefaultMethod,
		CacheLength:    DefaultCacheLength,
		Exceptions:     ExceptNone,
		CachePath:      DefaultCachePath,
	}
}

// FromSiteSettings reads the configuration out of the site settings map.
// Missing or invalid values fall back to their defaults.
func FromSiteSettings(ss models.SiteSettings) Settings {
	s := Defaults()

	s.DisableCaching = ss.Bool(KeyDisableCaching)
	s.ThemeLocations = ss.List(KeyThemeLocations)

	if raw := ss[KeyCachingMethod]; raw != "" {
		m, ok := cache.ParseMethod(raw)
		if !ok {
			slog.Warn("unknown caching method, using default", "value", raw, "default", m)
		}
		s.CachingMethod = m
	}

	if raw := strings.TrimSpace(ss[KeyCacheLength]); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			slog.Warn("invalid cache length, using default", "value", raw, "default", DefaultCacheLength)
		} else {
			s.CacheLength = n
		}
	}

	s.Exceptions = ParseException(ss[KeyExceptions])

	if raw := ss[KeyCachePath]; raw != "" {
		p, err := SanitizeCachePath(raw)
		if err != nil {
			slog.Warn("invalid cache path, using default", "value", raw, "error", err)
		} else {
			s.CachePath = p
		}
	}

	return s
}

// SiteSettings converts the configuration back to site setting rows.
func (s Settings) SiteSettings() map[string]string {
	return map[string]string{
		KeyDisableCaching: strconv.FormatBool(s.DisableCaching),
		KeyThemeLocations: strings.Join(s.ThemeLocations, ","),
		KeyCachingMethod:  string(s.CachingMethod),
		KeyCacheLength:    strconv.Itoa(s.CacheLength),
		KeyExceptions:     string(s.Exceptions),
		KeyCachePath:      s.CachePath,
	}
}

// TTL is the cache length as a duration.
func (s Settings) TTL() time.Duration {
	if s.CacheLength <= 0 {
		return DefaultCacheLength * time.Minute
	}
	return time.Duration(s.CacheLength) * time.Minute
}

// LocationEnabled reports whether a theme location is configured for caching.
func (s Settings) LocationEnabled(location string) bool {
	for _, l := range s.ThemeLocations {
		if l == location {
			return true
		}
	}
	return false
}

// Normalize cleans a submitted configuration: locations are trimmed,
// deduplicated and sorted, enums fall back to defaults, a cache length
// below one minute becomes DefaultCacheLength and the cache path is
// sanitized.
func (s Settings) Normalize() (Settings, error) {
	out := s
	out.ThemeLocations = models.SplitList(strings.Join(s.ThemeLocations, ","))

	m, _ := cache.ParseMethod(string(s.CachingMethod))
	out.CachingMethod = m

	if out.CacheLength < 1 {
		out.CacheLength = DefaultCacheLength
	}
	out.Exceptions = ParseException(string(s.Exceptions))

	p, err := SanitizeCachePath(s.CachePath)
	if err != nil {
		return Settings{}, err
	}
	out.CachePath = p
	return out, nil
}

// SanitizeCachePath normalizes a File backend namespace: backslashes
// become slashes, repeated slashes collapse, leading slashes and "."
// segments are dropped and exactly one trailing slash is kept. ".."
// segments are rejected. An empty path yields DefaultCachePath.
func SanitizeCachePath(p string) (string, error) {
	p = strings.ReplaceAll(strings.TrimSpace(p), `\`, "/")

	var segs []string
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "", ".":
			continue
		case "..":
			return "", fmt.Errorf("%w: %q", ErrPathTraversal, p)
		}
		segs = append(segs, seg)
	}
	if len(segs) == 0 {
		return DefaultCachePath, nil
	}
	return strings.Join(segs, "/") + "/", nil
}

// Store is the persistence the Repository needs.
type Store interface {
	WithPrefix(ctx context.Context, prefix string) (models.SiteSettings, error)
	SetMany(ctx context.Context, settings map[string]string) error
}

// Repository loads and saves the configuration.
type Repository struct {
	store Store
}

// NewRepository returns a Repository over the site settings store.
func NewRepository(store Store) *Repository {
	return &Repository{store: store}
}

// Load reads the current configuration.
func (r *Repository) Load(ctx context.Context) (Settings, error) {
	ss, err := r.store.WithPrefix(ctx, keyPrefix)
	if err != nil {
		return Defaults(), fmt.Errorf("load static menus settings: %w", err)
	}
	return FromSiteSettings(ss), nil
}

// Save normalizes and persists s, returning the stored value.
func (r *Repository) Save(ctx context.Context, s Settings) (Settings, error) {
	n, err := s.Normalize()
	if err != nil {
		return Settings{}, err
	}
	if err := r.store.SetMany(ctx, n.SiteSettings()); err != nil {
		return Settings{}, fmt.Errorf("save static menus settings: %w", err)
	}
	return n, nil
}
