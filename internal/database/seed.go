package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// Seed populates the database with initial development data.
// It creates a default admin user and a demo menu assigned to the
// "primary" location if no users exist. The admin will be prompted to set
// up 2FA on first login (totp_enabled = false).
func Seed(ctx context.Context, db *sql.DB) error {
	// Check if any users exist already.
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	// Hash the default admin password.
	hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	// Insert default admin user. 2FA is not enabled; they must set it up
	// on first login.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (email, password_hash, display_name, roles, super_admin, totp_enabled)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, "admin@staticmenus.local", string(hash), "Admin", "administrator", true, false)
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	if err := seedMenu(ctx, tx); err != nil {
		return err
	}

	// Cache the demo location out of the box.
	if _, err := tx.ExecContext(ctx, `
		UPDATE site_settings SET value = 'primary', updated_at = NOW()
		WHERE key = 'static_menus.theme_locations' AND value = ''
	`); err != nil {
		return fmt.Errorf("seed enable primary location: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with default admin user",
		"email", "admin@staticmenus.local",
		"password", "admin",
	)

	return nil
}

// seedMenu creates a small two-level menu in the primary location.
func seedMenu(ctx context.Context, tx *sql.Tx) error {
	var menuID string
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO menus (name, location) VALUES ($1, $2) RETURNING id
	`, "Main Navigation", "primary").Scan(&menuID); err != nil {
		return fmt.Errorf("seed insert menu: %w", err)
	}

	insert := `
		INSERT INTO menu_items (menu_id, parent_id, title, url, position)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`

	var aboutID string
	top := []struct {
		title, url string
	}{
		{"Home", "/"},
		{"About", "/about"},
		{"Blog", "/blog"},
		{"Contact", "/contact"},
	}
	for i, it := range top {
		var id string
		if err := tx.QueryRowContext(ctx, insert, menuID, nil, it.title, it.url, i+1).Scan(&id); err != nil {
			return fmt.Errorf("seed insert menu item: %w", err)
		}
		if it.title == "About" {
			aboutID = id
		}
	}

	for i, it := range []struct{ title, url string }{
		{"Team", "/about/team"},
		{"History", "/about/history"},
	} {
		var id string
		if err := tx.QueryRowContext(ctx, insert, menuID, aboutID, it.title, it.url, i+1).Scan(&id); err != nil {
			return fmt.Errorf("seed insert sub menu item: %w", err)
		}
	}
	return nil
}
