// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package cache stores rendered menu markup under a fingerprint. Three
// interchangeable backends are provided: the shared object cache (Valkey
// or in-process), the database-backed transient table, and flat HTML
// files on disk. Every backend treats failures as misses so a broken
// cache never breaks a page.
package cache

import (
	"context"
	"strings"
	"time"
)

// Group is the namespace every backend stores menu markup under.
const Group = "wp-static-menus"

// Backend is the storage strategy for cached menu markup.
type Backend interface {
	// Get returns the markup stored for fp. Any failure is reported as a miss.
	Get(ctx context.Context, fp string) (string, bool)

	// Set stores markup for fp. A ttl of zero uses the backend default.
	Set(ctx context.Context, fp, markup string, ttl time.Duration) error

	// ClearAll removes every entry this backend has stored.
	ClearAll(ctx context.Context) error

	// DisplayName is the label shown in the settings screen.
	DisplayName() string
}

// Method identifies a backend variant in the plugin configuration.
type Method string

const (
	MethodMemory  Method = "memory"
	MethodDurable Method = "durable"
	MethodFile    Method = "file"
)

// DefaultMethod is used when the configured method is missing or unknown.
const DefaultMethod = MethodDurable

// ParseMethod maps a configuration value to a Method. Legacy names used by
// older plugin releases are accepted; anything else yields DefaultMethod
// and ok=false.
func ParseMethod(s string) (m Method, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "memory", "object":
		return MethodMemory, true
	case "durable", "transient":
		return MethodDurable, true
	case "file", "html":
		return MethodFile, true
	default:
		return DefaultMethod, false
	}
}

// MethodInfo describes a backend for the settings screen.
type MethodInfo struct {
	Method      Method `json:"method"`
	DisplayName string `json:"display_name"`
}

// Methods lists the available backends in display order.
func Methods() []MethodInfo {
	return []MethodInfo{
		{Method: MethodMemory, DisplayName: objectDisplayName},
		{Method: MethodDurable, DisplayName: transientDisplayName},
		{Method: MethodFile, DisplayName: fileDisplayName},
	}
}
