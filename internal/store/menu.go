// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"staticmenus/internal/models"
)

// MenuStore handles menus and their items.
type MenuStore struct {
	db *sql.DB
}

// NewMenuStore creates a new MenuStore.
func NewMenuStore(db *sql.DB) *MenuStore {
	return &MenuStore{db: db}
}

// Create inserts an empty menu.
func (s *MenuStore) Create(ctx context.Context, name string) (*models.Menu, error) {
	m := &models.Menu{}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO menus (name) VALUES ($1)
		RETURNING id, name, location, created_at, updated_at
	`, name).Scan(&m.ID, &m.Name, &m.Location, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create menu: %w", err)
	}
	return m, nil
}

// FindByID returns a menu by ID. Returns nil if not found.
func (s *MenuStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Menu, error) {
	m := &models.Menu{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, location, created_at, updated_at FROM menus WHERE id = $1
	`, id).Scan(&m.ID, &m.Name, &m.Location, &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find menu: %w", err)
	}
	return m, nil
}

// List returns all menus ordered by name.
func (s *MenuStore) List(ctx context.Context) ([]models.Menu, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, location, created_at, updated_at FROM menus ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list menus: %w", err)
	}
	defer rows.Close()

	var menus []models.Menu
	for rows.Next() {
		var m models.Menu
		if err := rows.Scan(&m.ID, &m.Name, &m.Location, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan menu: %w", err)
		}
		menus = append(menus, m)
	}
	return menus, rows.Err()
}

// Items returns the items of a menu ordered by position.
func (s *MenuStore) Items(ctx context.Context, menuID uuid.UUID) ([]models.MenuItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, menu_id, parent_id, title, url, classes, position
		FROM menu_items WHERE menu_id = $1 ORDER BY position, title
	`, menuID)
	if err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	defer rows.Close()

	var items []models.MenuItem
	for rows.Next() {
		var it models.MenuItem
		if err := rows.Scan(&it.ID, &it.MenuID, &it.ParentID, &it.Title, &it.URL, &it.Classes, &it.Position); err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// FindByLocation returns the menu assigned to a location and its items.
// Returns a nil menu if nothing is assigned.
func (s *MenuStore) FindByLocation(ctx context.Context, location string) (*models.Menu, []models.MenuItem, error) {
	m := &models.Menu{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, location, created_at, updated_at FROM menus WHERE location = $1
	`, location).Scan(&m.ID, &m.Name, &m.Location, &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("find menu by location: %w", err)
	}
	items, err := s.Items(ctx, m.ID)
	if err != nil {
		return nil, nil, err
	}
	return m, items, nil
}

// ReplaceItems swaps the full item list of a menu in one transaction.
// Item IDs are kept when set so parent references stay valid.
func (s *MenuStore) ReplaceItems(ctx context.Context, menuID uuid.UUID, items []models.MenuItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM menu_items WHERE menu_id = $1`, menuID); err != nil {
		return fmt.Errorf("clear menu items: %w", err)
	}

	// Parents first so the foreign key on parent_id holds.
	for _, it := range orderParentsFirst(items) {
		if it.ID == uuid.Nil {
			it.ID = uuid.New()
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO menu_items (id, menu_id, parent_id, title, url, classes, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, it.ID, menuID, it.ParentID, it.Title, it.URL, it.Classes, it.Position); err != nil {
			return fmt.Errorf("insert menu item: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE menus SET updated_at = NOW() WHERE id = $1`, menuID); err != nil {
		return fmt.Errorf("touch menu: %w", err)
	}
	return tx.Commit()
}

// AssignLocation moves a location to the given menu. Any menu holding it
// before is unassigned. An empty location unassigns the menu.
func (s *MenuStore) AssignLocation(ctx context.Context, menuID uuid.UUID, location string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if location != "" {
		if _, err := tx.ExecContext(ctx,
			`UPDATE menus SET location = NULL, updated_at = NOW() WHERE location = $1 AND id <> $2`,
			location, menuID,
		); err != nil {
			return fmt.Errorf("release location: %w", err)
		}
	}

	var loc sql.NullString
	if location != "" {
		loc = sql.NullString{String: location, Valid: true}
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE menus SET location = $1, updated_at = NOW() WHERE id = $2`, loc, menuID,
	); err != nil {
		return fmt.Errorf("assign location: %w", err)
	}
	return tx.Commit()
}

// Delete removes a menu and its items.
func (s *MenuStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM menus WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete menu: %w", err)
	}
	return nil
}

// orderParentsFirst returns items so that every item follows its parent.
// Items whose parent is not in the list have their parent cleared.
func orderParentsFirst(items []models.MenuItem) []models.MenuItem {
	byID := make(map[uuid.UUID]bool, len(items))
	for _, it := range items {
		if it.ID != uuid.Nil {
			byID[it.ID] = true
		}
	}

	placed := make(map[uuid.UUID]bool, len(items))
	out := make([]models.MenuItem, 0, len(items))
	pending := make([]models.MenuItem, 0, len(items))
	for _, it := range items {
		if it.ParentID != nil && !byID[*it.ParentID] {
			it.ParentID = nil
		}
		pending = append(pending, it)
	}

	for len(pending) > 0 {
		var next []models.MenuItem
		for _, it := range pending {
			if it.ParentID == nil || placed[*it.ParentID] {
				out = append(out, it)
				if it.ID != uuid.Nil {
					placed[it.ID] = true
				}
				continue
			}
			next = append(next, it)
		}
		if len(next) == len(pending) {
			// Cycle: attach the rest to the top level.
			for _, it := range next {
				it.ParentID = nil
				out = append(out, it)
			}
			break
		}
		pending = next
	}
	return out
}
