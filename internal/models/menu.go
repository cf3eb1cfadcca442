// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Menu is a named navigation menu, optionally assigned to a theme location.
type Menu struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Location  *string   `json:"location"` // Nullable; at most one menu per location
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LocationName returns the assigned location or "".
func (m *Menu) LocationName() string {
	if m.Location == nil {
		return ""
	}
	return *m.Location
}

// MenuItem is one link in a menu. Items with a ParentID nest below it.
type MenuItem struct {
	ID       uuid.UUID  `json:"id"`
	MenuID   uuid.UUID  `json:"menu_id"`
	ParentID *uuid.UUID `json:"parent_id"`
	Title    string     `json:"title"`
	URL      string     `json:"url"`
	Classes  string     `json:"classes"` // Space separated extra CSS classes
	Position int        `json:"position"`
}

// ThemeLocations are the menu locations the site layout renders.
var ThemeLocations = map[string]string{
	"primary": "Primary Menu",
	"footer":  "Footer Menu",
	"social":  "Social Links",
}
