// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"staticmenus/internal/cache"
	"staticmenus/internal/models"
	"staticmenus/internal/settings"
	"staticmenus/internal/store"
)

// FlushMessage is the body of a successful manual flush.
const FlushMessage = "Cache flushed successfully"

// Log listing limits.
const (
	defaultLogLimit = 50
	maxLogLimit     = 200
)

// SettingsRepository loads and saves the static menus configuration.
type SettingsRepository interface {
	Load(ctx context.Context) (settings.Settings, error)
	Save(ctx context.Context, s settings.Settings) (settings.Settings, error)
}

// Invalidator flushes the menu cache after admin changes.
type Invalidator interface {
	Flush(ctx context.Context) error
	OnConfigurationChanged(ctx context.Context, before, after settings.Settings) error
	OnDeactivate(ctx context.Context) error
	OnMenuStructureChanged(ctx context.Context, menuID uuid.UUID) error
}

// MenuEditor is the menu persistence the admin edits through.
type MenuEditor interface {
	List(ctx context.Context) ([]models.Menu, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Menu, error)
	Items(ctx context.Context, menuID uuid.UUID) ([]models.MenuItem, error)
	ReplaceItems(ctx context.Context, menuID uuid.UUID, items []models.MenuItem) error
	AssignLocation(ctx context.Context, menuID uuid.UUID, location string) error
}

// CacheLogReader lists recent cache invalidations.
type CacheLogReader interface {
	RecentEntries(ctx context.Context, limit int) ([]store.CacheLogEntry, error)
}

// Admin groups the administrator endpoints for the menu cache and the
// menus it renders. Every mutation ends by flushing the active backend.
type Admin struct {
	settings SettingsRepository
	cache    Invalidator
	menus    MenuEditor
	log      CacheLogReader
}

// NewAdmin creates the admin handler group.
func NewAdmin(settingsRepo SettingsRepository, invalidator Invalidator, menus MenuEditor, log CacheLogReader) *Admin {
	return &Admin{
		settings: settingsRepo,
		cache:    invalidator,
		menus:    menus,
		log:      log,
	}
}

// Flush clears the active backend on demand.
func (a *Admin) Flush(w http.ResponseWriter, r *http.Request) {
	if err := a.cache.Flush(r.Context()); err != nil {
		slog.Error("manual menu cache flush failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Cache flush failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": FlushMessage})
}

// settingsResponse is the settings screen payload.
type settingsResponse struct {
	Settings  settings.Settings  `json:"settings"`
	Methods   []cache.MethodInfo `json:"methods"`
	Locations map[string]string  `json:"locations"`
	Warning   string             `json:"warning,omitempty"`
}

// Settings returns the configuration with the choices the screen offers.
func (a *Admin) Settings(w http.ResponseWriter, r *http.Request) {
	cfg, err := a.settings.Load(r.Context())
	if err != nil {
		slog.Error("load static menus settings failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Settings unavailable")
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse{
		Settings:  cfg,
		Methods:   cache.Methods(),
		Locations: models.ThemeLocations,
	})
}

// UpdateSettings validates and stores a configuration, then flushes the
// backend it selects. Fields missing from the body keep their value.
func (a *Admin) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	before, err := a.settings.Load(r.Context())
	if err != nil {
		slog.Error("load static menus settings failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Settings unavailable")
		return
	}

	submitted := before
	if err := decodeJSON(w, r, &submitted); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validateSettings(submitted); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	after, err := a.settings.Save(r.Context(), submitted)
	if errors.Is(err, settings.ErrPathTraversal) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		slog.Error("save static menus settings failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Settings could not be saved")
		return
	}

	resp := settingsResponse{
		Settings:  after,
		Methods:   cache.Methods(),
		Locations: models.ThemeLocations,
	}
	// The settings are stored either way; a failed flush is reported.
	if err := a.cache.OnConfigurationChanged(r.Context(), before, after); err != nil {
		slog.Error("flush after settings change failed", "error", err)
		resp.Warning = "Settings saved but the menu cache could not be flushed"
	}
	writeJSON(w, http.StatusOK, resp)
}

// Deactivate switches caching off and clears what the active backend
// holds.
func (a *Admin) Deactivate(w http.ResponseWriter, r *http.Request) {
	cfg, err := a.settings.Load(r.Context())
	if err != nil {
		slog.Error("load static menus settings failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Settings unavailable")
		return
	}

	cfg.DisableCaching = true
	if _, err := a.settings.Save(r.Context(), cfg); err != nil {
		slog.Error("disable menu caching failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Caching could not be disabled")
		return
	}
	if err := a.cache.OnDeactivate(r.Context()); err != nil {
		slog.Error("flush on deactivate failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Caching disabled but the cache could not be flushed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Menu caching disabled"})
}

// CacheLog lists recent invalidations, newest first. ?limit= bounds the
// result.
func (a *Admin) CacheLog(w http.ResponseWriter, r *http.Request) {
	limit := defaultLogLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxLogLimit)
	}

	entries, err := a.log.RecentEntries(r.Context(), limit)
	if err != nil {
		slog.Error("load cache log failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Cache log unavailable")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// menuResponse is a menu with its items.
type menuResponse struct {
	models.Menu
	Items []models.MenuItem `json:"items"`
}

// MenusList returns every menu with its items.
func (a *Admin) MenusList(w http.ResponseWriter, r *http.Request) {
	menus, err := a.menus.List(r.Context())
	if err != nil {
		slog.Error("list menus failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Menus unavailable")
		return
	}

	out := make([]menuResponse, 0, len(menus))
	for _, m := range menus {
		items, err := a.menus.Items(r.Context(), m.ID)
		if err != nil {
			slog.Error("list menu items failed", "menu_id", m.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "Menus unavailable")
			return
		}
		out = append(out, menuResponse{Menu: m, Items: items})
	}
	writeJSON(w, http.StatusOK, out)
}

// menuItemInput is one submitted menu item. Items reference their parent
// by ID; new items may pick their own IDs to be referenced.
type menuItemInput struct {
	ID       *uuid.UUID `json:"id"`
	ParentID *uuid.UUID `json:"parent_id"`
	Title    string     `json:"title"`
	URL      string     `json:"url"`
	Classes  string     `json:"classes"`
	Position int        `json:"position"`
}

// UpdateMenuItems replaces a menu's items and flushes the cache.
func (a *Admin) UpdateMenuItems(w http.ResponseWriter, r *http.Request) {
	menu, ok := a.loadMenu(w, r)
	if !ok {
		return
	}

	var input []menuItemInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items := make([]models.MenuItem, 0, len(input))
	for _, in := range input {
		item := models.MenuItem{
			MenuID:   menu.ID,
			ParentID: in.ParentID,
			Title:    in.Title,
			URL:      in.URL,
			Classes:  in.Classes,
			Position: in.Position,
		}
		if in.ID != nil {
			item.ID = *in.ID
		} else {
			item.ID = uuid.New()
		}
		items = append(items, item)
	}
	if msg := validateMenuItems(items); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if err := a.menus.ReplaceItems(r.Context(), menu.ID, items); err != nil {
		slog.Error("replace menu items failed", "menu_id", menu.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Menu could not be saved")
		return
	}
	a.menuChanged(r.Context(), menu.ID)

	writeJSON(w, http.StatusOK, menuResponse{Menu: *menu, Items: items})
}

// UpdateMenuLocation assigns a menu to a theme location, or unassigns it
// when the location is empty, and flushes the cache.
func (a *Admin) UpdateMenuLocation(w http.ResponseWriter, r *http.Request) {
	menu, ok := a.loadMenu(w, r)
	if !ok {
		return
	}

	var body struct {
		Location string `json:"location"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.Location != "" {
		if _, ok := models.ThemeLocations[body.Location]; !ok {
			writeError(w, http.StatusBadRequest, "Unknown theme location: "+body.Location)
			return
		}
	}

	if err := a.menus.AssignLocation(r.Context(), menu.ID, body.Location); err != nil {
		slog.Error("assign menu location failed", "menu_id", menu.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Menu location could not be saved")
		return
	}
	a.menuChanged(r.Context(), menu.ID)

	if body.Location == "" {
		menu.Location = nil
	} else {
		menu.Location = &body.Location
	}
	writeJSON(w, http.StatusOK, menu)
}

// loadMenu resolves the {id} URL parameter. It writes the error response
// and returns false when the menu cannot be used.
func (a *Admin) loadMenu(w http.ResponseWriter, r *http.Request) (*models.Menu, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid menu ID")
		return nil, false
	}
	menu, err := a.menus.FindByID(r.Context(), id)
	if err != nil {
		slog.Error("find menu failed", "menu_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Menu unavailable")
		return nil, false
	}
	if menu == nil {
		writeError(w, http.StatusNotFound, "Menu not found")
		return nil, false
	}
	return menu, true
}

// menuChanged flushes the cache after a menu edit. The edit is already
// stored, so a failed flush is logged rather than returned.
func (a *Admin) menuChanged(ctx context.Context, menuID uuid.UUID) {
	if err := a.cache.OnMenuStructureChanged(ctx, menuID); err != nil {
		slog.Error("flush after menu change failed", "menu_id", menuID, "error", err)
	}
}
