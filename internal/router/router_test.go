// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router tests verify the HTTP routing configuration, middleware
// chains, and the health endpoint.
package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"staticmenus/internal/fingerprint"
	"staticmenus/internal/handlers"
	"staticmenus/internal/menucache"
	"staticmenus/internal/middleware"
	"staticmenus/internal/session"
	"staticmenus/internal/settings"
	"staticmenus/internal/store"
)

func TestHealthHandler(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/health", nil)

	healthHandler(w, r)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}

	ct := resp.Header.Get("Content-Type")
	if ct != "application/json" {
		t.Errorf("content-type: got %q, want %q", ct, "application/json")
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field: got %q, want %q", body["status"], "ok")
	}
}

func TestHealthHandlerMethods(t *testing.T) {
	// Health endpoint only accepts GET.
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/health", nil)

	healthHandler(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("GET /health: got %d, want 200", w.Code)
	}
}

// stubSessions hands every request the same session.
type stubSessions struct{ data *session.Data }

func (s stubSessions) Get(context.Context, *http.Request) (*session.Data, error) { return s.data, nil }

// stubResolver renders every menu as a fixed fragment.
type stubResolver struct{}

func (stubResolver) Resolve(_ context.Context, conds fingerprint.Conditions, _ menucache.Requester, _ menucache.RenderFunc) (string, error) {
	return "<ul data-location=\"" + conds.Location() + "\"></ul>", nil
}

// stubCache satisfies the admin dependencies the routing tests touch.
type stubCache struct{ flushes int }

func (c *stubCache) Flush(context.Context) error { c.flushes++; return nil }
func (c *stubCache) OnConfigurationChanged(context.Context, settings.Settings, settings.Settings) error {
	return nil
}
func (c *stubCache) OnDeactivate(context.Context) error                      { return nil }
func (c *stubCache) OnMenuStructureChanged(context.Context, uuid.UUID) error { return nil }

type stubLog struct{}

func (stubLog) RecentEntries(context.Context, int) ([]store.CacheLogEntry, error) {
	return []store.CacheLogEntry{}, nil
}

func newTestRouter(sess *session.Data, opts Options) (http.Handler, *stubCache) {
	c := &stubCache{}
	admin := handlers.NewAdmin(nil, c, nil, stubLog{})
	auth := handlers.NewAuth(nil, nil)
	public := handlers.NewPublic(stubResolver{}, nil)
	return New(stubSessions{data: sess}, admin, auth, public, opts), c
}

func adminSession(twoFADone bool) *session.Data {
	return &session.Data{UserID: uuid.New(), Email: "admin@staticmenus.local", Roles: []string{"administrator"}, TwoFADone: twoFADone}
}

func TestPublicMenuRoute(t *testing.T) {
	h, _ := newTestRouter(nil, Options{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/menus/footer", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `data-location="footer"`) {
		t.Errorf("body: got %q", rec.Body.String())
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
}

func TestMetricsRoute(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		h, _ := newTestRouter(nil, Options{Metrics: enabled})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		want := http.StatusNotFound
		if enabled {
			want = http.StatusOK
		}
		if rec.Code != want {
			t.Errorf("metrics enabled=%v: got %d, want %d", enabled, rec.Code, want)
		}
	}
}

func TestAdminRouteGuards(t *testing.T) {
	editor := adminSession(true)
	editor.Roles = []string{"editor"}

	tests := []struct {
		name     string
		sess     *session.Data
		wantCode int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"2fa pending", adminSession(false), http.StatusForbidden},
		{"editor", editor, http.StatusForbidden},
		{"administrator", adminSession(true), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestRouter(tt.sess, Options{})
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/static-menus/log", nil))
			if rec.Code != tt.wantCode {
				t.Errorf("status: got %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}
}

func TestAdminFlushRequiresCSRF(t *testing.T) {
	h, c := newTestRouter(adminSession(true), Options{})

	// Without the double-submitted token the flush is refused.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/static-menus/flush", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("flush without token: got %d, want 403", rec.Code)
	}

	// Fetch a token, then echo it.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/session", nil))
	var sessBody struct {
		CSRFToken string `json:"csrf_token"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&sessBody); err != nil || sessBody.CSRFToken == "" {
		t.Fatalf("session response: %v %q", err, sessBody.CSRFToken)
	}

	req := httptest.NewRequest(http.MethodPost, "/admin/static-menus/flush", nil)
	req.AddCookie(&http.Cookie{Name: middleware.CSRFCookieName, Value: sessBody.CSRFToken})
	req.Header.Set(middleware.CSRFHeaderName, sessBody.CSRFToken)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("flush with token: got %d, want 200", rec.Code)
	}
	if c.flushes != 1 {
		t.Errorf("flushes: got %d, want 1", c.flushes)
	}
}
