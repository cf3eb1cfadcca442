// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package navmenu renders the menu assigned to a theme location as an
// HTML list. It is the expensive render step the menu cache sits in
// front of.
package navmenu

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"staticmenus/internal/fingerprint"
	"staticmenus/internal/models"
	"staticmenus/internal/slug"
)

// MenuSource looks up the menu assigned to a location. A nil menu means
// nothing is assigned.
type MenuSource interface {
	FindByLocation(ctx context.Context, location string) (*models.Menu, []models.MenuItem, error)
}

// Renderer turns menus into markup.
type Renderer struct {
	menus MenuSource
	tmpl  *template.Template
}

// New returns a Renderer reading menus from src.
func New(src MenuSource) *Renderer {
	return &Renderer{menus: src, tmpl: template.Must(template.New("navmenu").Parse(menuTemplate))}
}

// Render renders the menu for the conditions' theme_location. Unknown or
// unassigned locations render as empty markup.
func (r *Renderer) Render(ctx context.Context, conds fingerprint.Conditions) (string, error) {
	location := conds.Location()
	if location == "" {
		return "", nil
	}

	menu, items, err := r.menus.FindByLocation(ctx, location)
	if err != nil {
		return "", fmt.Errorf("load menu for %s: %w", location, err)
	}
	if menu == nil || len(items) == 0 {
		return "", nil
	}

	a := parseArgs(conds, menu)
	view := menuView{
		Container:      a.container,
		ContainerClass: a.containerClass,
		ContainerID:    a.containerID,
		MenuID:         a.menuID,
		MenuClass:      a.menuClass,
		Items:          buildTree(items, a),
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "menu", view); err != nil {
		return "", fmt.Errorf("render menu %s: %w", location, err)
	}
	return buf.String(), nil
}

// arguments are the condition keys parseArgs reads.
var arguments = map[string]bool{
	"container":       true,
	"container_class": true,
	"container_id":    true,
	"menu_id":         true,
	"menu_class":      true,
	"depth":           true,
	"before":          true,
	"after":           true,
	"link_before":     true,
	"link_after":      true,
}

// IsArgument reports whether name is a render option Render understands.
// theme_location is not one; it selects the menu.
func IsArgument(name string) bool {
	return arguments[name]
}

// args are the wp_nav_menu style options read from the conditions.
type args struct {
	container      string
	containerClass string
	containerID    string
	menuID         string
	menuClass      string
	depth          int
	before         string
	after          string
	linkBefore     string
	linkAfter      string
}

func parseArgs(conds fingerprint.Conditions, menu *models.Menu) *args {
	menuSlug := slug.Generate(menu.Name)
	a := &args{
		container:      "div",
		containerClass: "menu-" + menuSlug + "-container",
		menuID:         "menu-" + menuSlug,
		menuClass:      "menu",
	}

	if v, ok := conds["container"]; ok {
		switch s := strings.ToLower(str(v)); s {
		case "div", "nav":
			a.container = s
		default:
			// false, "" and unsupported tags render without a container.
			a.container = ""
		}
	}
	setString(conds, "container_class", &a.containerClass)
	setString(conds, "container_id", &a.containerID)
	setString(conds, "menu_id", &a.menuID)
	setString(conds, "menu_class", &a.menuClass)
	setString(conds, "before", &a.before)
	setString(conds, "after", &a.after)
	setString(conds, "link_before", &a.linkBefore)
	setString(conds, "link_after", &a.linkAfter)
	a.depth = toInt(conds["depth"])
	return a
}

// menuView is the template data for the whole menu.
type menuView struct {
	Container      string
	ContainerClass string
	ContainerID    string
	MenuID         string
	MenuClass      string
	Items          []*itemView
}

// itemView is one rendered <li>.
type itemView struct {
	ID         string
	Class      string
	URL        string
	Title      string
	Before     string
	After      string
	LinkBefore string
	LinkAfter  string
	Children   []*itemView
}

// buildTree nests items under their parents, orders siblings by position
// and drops levels deeper than a.depth. Items whose parent is missing are
// shown at the top level.
func buildTree(items []models.MenuItem, a *args) []*itemView {
	sorted := append([]models.MenuItem(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })

	known := make(map[uuid.UUID]bool, len(sorted))
	for _, it := range sorted {
		known[it.ID] = true
	}
	children := make(map[uuid.UUID][]models.MenuItem)
	var roots []models.MenuItem
	for _, it := range sorted {
		if it.ParentID != nil && known[*it.ParentID] && *it.ParentID != it.ID {
			children[*it.ParentID] = append(children[*it.ParentID], it)
			continue
		}
		roots = append(roots, it)
	}

	maxDepth := a.depth
	if maxDepth <= 0 {
		maxDepth = math.MaxInt
	}
	visited := make(map[uuid.UUID]bool, len(sorted))

	var build func(level []models.MenuItem, depth int) []*itemView
	build = func(level []models.MenuItem, depth int) []*itemView {
		var out []*itemView
		for _, it := range level {
			if visited[it.ID] {
				continue
			}
			visited[it.ID] = true

			v := &itemView{
				ID:         it.ID.String(),
				URL:        it.URL,
				Title:      it.Title,
				Before:     a.before,
				After:      a.after,
				LinkBefore: a.linkBefore,
				LinkAfter:  a.linkAfter,
			}
			if depth < maxDepth {
				v.Children = build(children[it.ID], depth+1)
			}

			classes := []string{"menu-item", "menu-item-" + v.ID}
			if extra := strings.TrimSpace(it.Classes); extra != "" {
				classes = append(classes, strings.Fields(extra)...)
			}
			if len(v.Children) > 0 {
				classes = append(classes, "menu-item-has-children")
			}
			v.Class = strings.Join(classes, " ")
			out = append(out, v)
		}
		return out
	}
	return build(roots, 1)
}

func setString(conds fingerprint.Conditions, key string, dst *string) {
	if v, ok := conds[key]; ok {
		*dst = str(v)
	}
}

func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "1"
		}
		return ""
	default:
		return fmt.Sprint(t)
	}
}

func toInt(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(t))
		return n
	default:
		return 0
	}
}

const menuTemplate = `{{define "items"}}{{range .}}<li id="menu-item-{{.ID}}" class="{{.Class}}">{{.Before}}<a href="{{.URL}}">{{.LinkBefore}}{{.Title}}{{.LinkAfter}}</a>{{.After}}{{if .Children}}<ul class="sub-menu">{{template "items" .Children}}</ul>{{end}}</li>{{end}}{{end}}` +
	`{{define "list"}}<ul{{if .MenuID}} id="{{.MenuID}}"{{end}}{{if .MenuClass}} class="{{.MenuClass}}"{{end}}>{{template "items" .Items}}</ul>{{end}}` +
	`{{define "menu"}}` +
	`{{if eq .Container "nav"}}<nav{{if .ContainerID}} id="{{.ContainerID}}"{{end}}{{if .ContainerClass}} class="{{.ContainerClass}}"{{end}}>{{template "list" .}}</nav>` +
	`{{else if eq .Container "div"}}<div{{if .ContainerID}} id="{{.ContainerID}}"{{end}}{{if .ContainerClass}} class="{{.ContainerClass}}"{{end}}>{{template "list" .}}</div>` +
	`{{else}}{{template "list" .}}{{end}}{{end}}`
