// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// cache_log.go records menu cache flushes for the admin audit view. Each
// row names what caused the flush, which backend was cleared, the menu
// involved (if any) and when.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// CacheLogStore handles cache invalidation log operations.
type CacheLogStore struct {
	db *sql.DB
}

// NewCacheLogStore creates a new CacheLogStore.
func NewCacheLogStore(db *sql.DB) *CacheLogStore {
	return &CacheLogStore{db: db}
}

// Log records a flush. uuid.Nil is stored as NULL. Failures are logged
// and swallowed since the flush itself already succeeded.
func (s *CacheLogStore) Log(ctx context.Context, entityType, backend string, entityID uuid.UUID, action string) {
	var id any
	if entityID != uuid.Nil {
		id = entityID
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cache_invalidation_log (entity_type, entity_id, backend, action)
		VALUES ($1, $2, $3, $4)
	`, entityType, id, backend, action)
	if err != nil {
		slog.Warn("failed to log cache invalidation",
			"entity_type", entityType,
			"backend", backend,
			"action", action,
			"error", err,
		)
		return
	}
	slog.Debug("cache invalidation logged", "entity_type", entityType, "backend", backend, "action", action)
}

// RecentEntries returns up to limit flushes, newest first.
func (s *CacheLogStore) RecentEntries(ctx context.Context, limit int) ([]CacheLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entity_type, entity_id, backend, action, invalidated_at
		FROM cache_invalidation_log
		ORDER BY invalidated_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query cache log: %w", err)
	}
	defer rows.Close()

	entries := []CacheLogEntry{}
	for rows.Next() {
		var (
			e  CacheLogEntry
			id uuid.NullUUID
		)
		if err := rows.Scan(&e.ID, &e.EntityType, &id, &e.Backend, &e.Action, &e.InvalidatedAt); err != nil {
			return nil, fmt.Errorf("scan cache log: %w", err)
		}
		if id.Valid {
			e.EntityID = &id.UUID
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune deletes entries older than before and reports how many went.
func (s *CacheLogStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cache_invalidation_log WHERE invalidated_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("prune cache log: %w", err)
	}
	return res.RowsAffected()
}

// CacheLogEntry represents a single cache invalidation event.
type CacheLogEntry struct {
	ID            int64      `json:"id"`
	EntityType    string     `json:"entity_type"`
	EntityID      *uuid.UUID `json:"entity_id,omitempty"`
	Backend       string     `json:"backend"`
	Action        string     `json:"action"`
	InvalidatedAt time.Time  `json:"invalidated_at"`
}
