// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"staticmenus/internal/fingerprint"
	"staticmenus/internal/menucache"
	"staticmenus/internal/middleware"
	"staticmenus/internal/navmenu"
	"staticmenus/internal/session"
)

// MenuResolver serves a menu from the cache or renders it.
type MenuResolver interface {
	Resolve(ctx context.Context, conds fingerprint.Conditions, req menucache.Requester, render menucache.RenderFunc) (string, error)
}

// Public serves rendered menu fragments. It asks the resolver for the
// markup, which decides per request whether the render cache applies.
type Public struct {
	menus  MenuResolver
	render menucache.RenderFunc
}

// NewPublic creates a Public handler group. render is the expensive menu
// render the cache sits in front of.
func NewPublic(menus MenuResolver, render menucache.RenderFunc) *Public {
	return &Public{menus: menus, render: render}
}

// Menu renders the menu assigned to the {location} URL parameter as an
// HTML fragment. Known query parameters become render arguments.
func (p *Public) Menu(w http.ResponseWriter, r *http.Request) {
	location := chi.URLParam(r, "location")
	conds := conditionsFromRequest(r, location)
	req := requesterFromSession(middleware.SessionFromCtx(r.Context()))

	markup, err := p.menus.Resolve(r.Context(), conds, req, p.render)
	if err != nil {
		slog.Error("menu render failed", "location", location, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(markup))
}

// intArgs are render arguments that carry numbers.
var intArgs = map[string]bool{"depth": true}

// conditionsFromRequest builds render conditions from the query string.
// Parameters the renderer does not read are dropped so they cannot mint
// cache entries. The path's location always wins over a theme_location
// parameter. Only the first value of a repeated parameter is used.
func conditionsFromRequest(r *http.Request, location string) fingerprint.Conditions {
	conds := fingerprint.Conditions{}
	for key, values := range r.URL.Query() {
		if len(values) == 0 || !navmenu.IsArgument(key) {
			continue
		}
		v := values[0]
		if intArgs[key] {
			if n, err := strconv.Atoi(v); err == nil {
				conds[key] = n
				continue
			}
		}
		conds[key] = v
	}
	conds[fingerprint.LocationKey] = location
	return conds
}

// requesterFromSession describes the session user to the cache. A nil
// session is an anonymous visitor. A session still waiting for its second
// factor counts as logged in.
func requesterFromSession(sess *session.Data) menucache.Requester {
	if sess == nil {
		return menucache.Anonymous
	}
	return menucache.Requester{
		LoggedIn:   true,
		Roles:      sess.Roles,
		SuperAdmin: sess.SuperAdmin,
	}
}
