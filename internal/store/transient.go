// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// transient.go implements named, expiring key/value rows. Expired rows
// read as missing and are removed lazily; PurgeExpired sweeps the rest.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// TransientStore manages the transients table.
type TransientStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewTransientStore creates a new TransientStore.
func NewTransientStore(db *sql.DB) *TransientStore {
	return &TransientStore{db: db, now: time.Now}
}

// GetTransient returns the value of a live transient.
func (s *TransientStore) GetTransient(ctx context.Context, name string) (string, bool, error) {
	var value string
	var expires sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM transients WHERE name = $1`, name,
	).Scan(&value, &expires)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get transient: %w", err)
	}

	if expires.Valid && !s.now().Before(expires.Time) {
		// Only delete the row we read; a concurrent writer may have
		// refreshed it already.
		if _, err := s.db.ExecContext(ctx,
			`DELETE FROM transients WHERE name = $1 AND expires_at = $2`, name, expires.Time,
		); err != nil {
			slog.Warn("failed to delete expired transient", "name", name, "error", err)
		}
		return "", false, nil
	}
	return value, true, nil
}

// SetTransient upserts a transient. A zero ttl never expires.
func (s *TransientStore) SetTransient(ctx context.Context, name, value string, ttl time.Duration) error {
	now := s.now()
	var expires sql.NullTime
	if ttl > 0 {
		expires = sql.NullTime{Time: now.Add(ttl), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transients (name, value, expires_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name)
		DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at, updated_at = EXCLUDED.updated_at`,
		name, value, expires, now,
	)
	if err != nil {
		return fmt.Errorf("set transient: %w", err)
	}
	return nil
}

// DeleteTransient removes a transient. Deleting a missing name is not an error.
func (s *TransientStore) DeleteTransient(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM transients WHERE name = $1`, name); err != nil {
		return fmt.Errorf("delete transient: %w", err)
	}
	return nil
}

// DeleteTransientPrefix removes every transient whose name starts with
// prefix. The prefix is matched literally.
func (s *TransientStore) DeleteTransientPrefix(ctx context.Context, prefix string) (int64, error) {
	if prefix == "" {
		return 0, fmt.Errorf("delete transients: empty prefix")
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM transients WHERE starts_with(name, $1)`, prefix)
	if err != nil {
		return 0, fmt.Errorf("delete transients by prefix: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// PurgeExpired removes every expired transient and reports how many.
func (s *TransientStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM transients WHERE expires_at IS NOT NULL AND expires_at <= $1`, s.now())
	if err != nil {
		return 0, fmt.Errorf("purge transients: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
