// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

const (
	objectDisplayName = "Object Cache"

	// DefaultObjectTTL applies when Set is called without a TTL.
	DefaultObjectTTL = 30 * 24 * time.Hour
)

// ErrUnavailable is returned by Set when the backing store is missing.
var ErrUnavailable = errors.New("cache store unavailable")

// ObjectStore is the host's shared key/value cache, addressed by a group
// and a key within that group.
type ObjectStore interface {
	Get(ctx context.Context, group, key string) ([]byte, bool, error)
	Set(ctx context.Context, group, key string, value []byte, ttl time.Duration) error
}

// GroupDeleter is implemented by object stores that can drop a whole
// group in one call.
type GroupDeleter interface {
	DeleteGroup(ctx context.Context, group string) error
}

// ObjectBackend keeps menu markup in the shared object cache.
type ObjectBackend struct {
	store ObjectStore
	group string
}

// NewObjectBackend returns an object-cache backend. A nil store makes
// every lookup miss, which falls through to live rendering.
func NewObjectBackend(store ObjectStore) *ObjectBackend {
	return &ObjectBackend{store: store, group: Group}
}

// Get returns the cached markup for fp.
func (b *ObjectBackend) Get(ctx context.Context, fp string) (string, bool) {
	if b.store == nil {
		return "", false
	}
	val, ok, err := b.store.Get(ctx, b.group, fp)
	if err != nil {
		slog.Warn("object cache get error", "key", fp, "error", err)
		return "", false
	}
	if !ok {
		return "", false
	}
	return string(val), true
}

// Set stores markup for fp. Zero or negative TTLs use DefaultObjectTTL.
func (b *ObjectBackend) Set(ctx context.Context, fp, markup string, ttl time.Duration) error {
	if b.store == nil {
		return ErrUnavailable
	}
	if ttl <= 0 {
		ttl = DefaultObjectTTL
	}
	return b.store.Set(ctx, b.group, fp, []byte(markup), ttl)
}

// ClearAll drops the whole group if the store supports it. Otherwise it
// does nothing and entries age out through their TTL.
func (b *ObjectBackend) ClearAll(ctx context.Context) error {
	deleter, ok := b.store.(GroupDeleter)
	if !ok {
		slog.Debug("object cache cannot delete groups, relying on expiry", "group", b.group)
		return nil
	}
	return deleter.DeleteGroup(ctx, b.group)
}

// DisplayName implements Backend.
func (b *ObjectBackend) DisplayName() string {
	return objectDisplayName
}
