// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package menucache

import (
	"time"

	"staticmenus/internal/cache"
	"staticmenus/internal/settings"
)

// Backends builds the cache backend a configuration selects. The object
// and transient backends are long lived; the file backend depends on the
// configured path and is built on demand.
type Backends struct {
	object     *cache.ObjectBackend
	transient  *cache.TransientBackend
	contentDir string
	fileOpts   []cache.FileOption
}

// NewBackends wires the host storage primitives. contentDir is the
// absolute directory the file backend's cache path is relative to.
func NewBackends(objects cache.ObjectStore, transients cache.TransientStore, contentDir string, fileOpts ...cache.FileOption) *Backends {
	return &Backends{
		object:     cache.NewObjectBackend(objects),
		transient:  cache.NewTransientBackend(transients),
		contentDir: contentDir,
		fileOpts:   fileOpts,
	}
}

// ContentDir is the root of the file backend.
func (b *Backends) ContentDir() string {
	return b.contentDir
}

// For returns the backend selected by s.
func (b *Backends) For(s settings.Settings) cache.Backend {
	return b.forTTL(s, s.TTL())
}

// forTTL is For with the entry lifetime already resolved. The file
// backend has no per-entry expiry, so ttl becomes its max age.
func (b *Backends) forTTL(s settings.Settings, ttl time.Duration) cache.Backend {
	switch s.CachingMethod {
	case cache.MethodMemory:
		return b.object
	case cache.MethodFile:
		opts := append([]cache.FileOption{cache.WithMaxAge(ttl)}, b.fileOpts...)
		return cache.NewFileBackend(b.contentDir, s.CachePath, opts...)
	default:
		return b.transient
	}
}
