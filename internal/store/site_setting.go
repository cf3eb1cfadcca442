// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"staticmenus/internal/models"
)

// SiteSettingStore manages the site_settings key/value table.
type SiteSettingStore struct {
	db *sql.DB
}

// NewSiteSettingStore returns a new SiteSettingStore backed by the given database.
func NewSiteSettingStore(db *sql.DB) *SiteSettingStore {
	return &SiteSettingStore{db: db}
}

// WithPrefix returns the settings whose key starts with prefix.
func (s *SiteSettingStore) WithPrefix(ctx context.Context, prefix string) (models.SiteSettings, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM site_settings WHERE starts_with(key, $1) ORDER BY key`, prefix)
	if err != nil {
		return nil, fmt.Errorf("query site settings %q: %w", prefix, err)
	}
	defer rows.Close()

	settings := make(models.SiteSettings)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan site setting: %w", err)
		}
		settings[k] = v
	}
	return settings, rows.Err()
}

// Get returns a single setting, or fallback when it is missing or empty.
func (s *SiteSettingStore) Get(ctx context.Context, key, fallback string) (string, error) {
	var val string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM site_settings WHERE key = $1`, key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && val == "") {
		return fallback, nil
	}
	if err != nil {
		return fallback, fmt.Errorf("get site setting %s: %w", key, err)
	}
	return val, nil
}

// upsertSetting leaves updated_at alone when the value did not change.
const upsertSetting = `
	INSERT INTO site_settings (key, value, updated_at)
	VALUES ($1, $2, NOW())
	ON CONFLICT (key) DO UPDATE
	SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	WHERE site_settings.value IS DISTINCT FROM EXCLUDED.value`

// Set upserts a single setting.
func (s *SiteSettingStore) Set(ctx context.Context, key, value string) error {
	return s.SetMany(ctx, map[string]string{key: value})
}

// SetMany upserts settings in one transaction. Keys are written in sorted
// order so concurrent saves lock rows in the same sequence.
func (s *SiteSettingStore) SetMany(ctx context.Context, settings map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin site settings: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertSetting)
	if err != nil {
		return fmt.Errorf("prepare site settings: %w", err)
	}
	defer stmt.Close()

	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		if _, err := stmt.ExecContext(ctx, k, settings[k]); err != nil {
			return fmt.Errorf("set site setting %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit site settings: %w", err)
	}
	return nil
}
