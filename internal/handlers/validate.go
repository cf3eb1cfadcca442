// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"staticmenus/internal/cache"
	"staticmenus/internal/models"
	"staticmenus/internal/settings"
)

// Validation limits for settings and menu fields.
const (
	maxCacheLength  = 525_600 // one year in minutes
	maxCachePathLen = 255
	maxMenuItems    = 500
	maxItemTitleLen = 200
	maxItemURLLen   = 2_000
	maxItemClassLen = 200
)

// validateSettings checks a submitted configuration and returns the first
// error found. Values Normalize would silently replace are rejected here
// so the admin sees the mistake.
func validateSettings(s settings.Settings) string {
	if _, ok := cache.ParseMethod(string(s.CachingMethod)); !ok {
		return fmt.Sprintf("Unknown caching method %q.", s.CachingMethod)
	}

	switch settings.Exception(strings.ToLower(strings.TrimSpace(string(s.Exceptions)))) {
	case settings.ExceptNone, settings.ExceptLoggedIn, settings.ExceptAdmins:
	default:
		return fmt.Sprintf("Unknown exception %q.", s.Exceptions)
	}

	for _, l := range s.ThemeLocations {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if _, ok := models.ThemeLocations[l]; !ok {
			return fmt.Sprintf("Unknown theme location %q.", l)
		}
	}

	if s.CacheLength < 0 {
		return "Cache length must not be negative."
	}
	if s.CacheLength > maxCacheLength {
		return "Cache length is too long (max 525,600 minutes)."
	}

	if utf8.RuneCountInString(s.CachePath) > maxCachePathLen {
		return "Cache path is too long (max 255 characters)."
	}
	return ""
}

// validateMenuItems checks a submitted item list and returns the first
// error found. Parents must be items of the same list.
func validateMenuItems(items []models.MenuItem) string {
	if len(items) > maxMenuItems {
		return "Too many menu items (max 500)."
	}

	ids := make(map[uuid.UUID]bool, len(items))
	for _, it := range items {
		if ids[it.ID] {
			return fmt.Sprintf("Duplicate menu item ID %s.", it.ID)
		}
		ids[it.ID] = true
	}

	for i, it := range items {
		title := strings.TrimSpace(it.Title)
		if title == "" {
			return fmt.Sprintf("Item %d: title is required.", i+1)
		}
		if utf8.RuneCountInString(title) > maxItemTitleLen {
			return fmt.Sprintf("Item %d: title is too long (max 200 characters).", i+1)
		}
		if strings.TrimSpace(it.URL) == "" {
			return fmt.Sprintf("Item %d: URL is required.", i+1)
		}
		if utf8.RuneCountInString(it.URL) > maxItemURLLen {
			return fmt.Sprintf("Item %d: URL is too long (max 2,000 characters).", i+1)
		}
		if utf8.RuneCountInString(it.Classes) > maxItemClassLen {
			return fmt.Sprintf("Item %d: classes are too long (max 200 characters).", i+1)
		}
		if it.ParentID != nil {
			if *it.ParentID == it.ID {
				return fmt.Sprintf("Item %d: an item cannot be its own parent.", i+1)
			}
			if !ids[*it.ParentID] {
				return fmt.Sprintf("Item %d: parent is not part of this menu.", i+1)
			}
		}
	}
	return ""
}
