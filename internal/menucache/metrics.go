// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package menucache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts lookups answered from a backend.
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "static_menus_cache_hits_total",
			Help: "Total number of menu cache hits",
		},
		[]string{"backend"}, // "memory", "durable", "file"
	)

	// CacheMisses counts lookups that fell through to rendering.
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "static_menus_cache_misses_total",
			Help: "Total number of menu cache misses",
		},
		[]string{"backend"},
	)

	// CacheErrors counts failed backend writes and flushes.
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "static_menus_cache_errors_total",
			Help: "Total number of menu cache operation errors",
		},
		[]string{"backend", "operation"}, // "set", "clear", "migrate"
	)

	// CacheFlushes counts clear-all operations by what caused them.
	CacheFlushes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "static_menus_cache_flushes_total",
			Help: "Total number of menu cache flushes",
		},
		[]string{"backend", "reason"}, // "menu", "settings", "deactivate", "manual"
	)

	// Renders counts menu responses by whether they came from the cache.
	Renders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "static_menus_render_total",
			Help: "Total number of menu renders",
		},
		[]string{"cached"}, // "true", "false"
	)
)
