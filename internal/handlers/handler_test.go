// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests.
// Dependencies are in-memory fakes of the small interfaces the handlers
// accept, so no database or Valkey is required.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"staticmenus/internal/middleware"
	"staticmenus/internal/models"
	"staticmenus/internal/session"
	"staticmenus/internal/settings"
	"staticmenus/internal/store"
)

// ctxWithSession adds session data to a context using the middleware key.
func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, middleware.SessionKey, data)
}

// testSession creates a session.Data for testing.
func testSession(userID uuid.UUID, email string, roles []string, twoFADone bool) *session.Data {
	return &session.Data{
		UserID:      userID,
		Email:       email,
		DisplayName: "Test User",
		Roles:       roles,
		TwoFADone:   twoFADone,
	}
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// jsonRequest builds a request with a JSON body.
func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// decodeBody unmarshals a recorded JSON response into dst.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

// --- settings ---

// fakeSettings is an in-memory SettingsRepository.
type fakeSettings struct {
	mu      sync.Mutex
	current settings.Settings
	loadErr error
	saveErr error
	saves   int
}

func newFakeSettings() *fakeSettings {
	s := settings.Defaults()
	s.ThemeLocations = []string{"primary"}
	s.CachingMethod = "memory"
	return &fakeSettings{current: s}
}

func (f *fakeSettings) Load(context.Context) (settings.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return settings.Defaults(), f.loadErr
	}
	return f.current, nil
}

func (f *fakeSettings) Save(_ context.Context, s settings.Settings) (settings.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return settings.Settings{}, f.saveErr
	}
	n, err := s.Normalize()
	if err != nil {
		return settings.Settings{}, err
	}
	f.current = n
	f.saves++
	return n, nil
}

// --- invalidation ---

// fakeInvalidator records which flush ran.
type fakeInvalidator struct {
	calls  []string
	before settings.Settings
	after  settings.Settings
	menuID uuid.UUID
	err    error
}

func (f *fakeInvalidator) Flush(context.Context) error {
	f.calls = append(f.calls, "flush")
	return f.err
}

func (f *fakeInvalidator) OnConfigurationChanged(_ context.Context, before, after settings.Settings) error {
	f.calls = append(f.calls, "settings")
	f.before, f.after = before, after
	return f.err
}

func (f *fakeInvalidator) OnDeactivate(context.Context) error {
	f.calls = append(f.calls, "deactivate")
	return f.err
}

func (f *fakeInvalidator) OnMenuStructureChanged(_ context.Context, menuID uuid.UUID) error {
	f.calls = append(f.calls, "menu")
	f.menuID = menuID
	return f.err
}

// --- menus ---

// fakeMenus is an in-memory MenuEditor.
type fakeMenus struct {
	menus map[uuid.UUID]*models.Menu
	items map[uuid.UUID][]models.MenuItem
	err   error
}

func newFakeMenus(names ...string) *fakeMenus {
	f := &fakeMenus{menus: map[uuid.UUID]*models.Menu{}, items: map[uuid.UUID][]models.MenuItem{}}
	for _, n := range names {
		id := uuid.New()
		f.menus[id] = &models.Menu{ID: id, Name: n}
	}
	return f
}

func (f *fakeMenus) first() *models.Menu {
	for _, m := range f.menus {
		return m
	}
	return nil
}

func (f *fakeMenus) List(context.Context) ([]models.Menu, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []models.Menu{}
	for _, m := range f.menus {
		out = append(out, *m)
	}
	return out, nil
}

func (f *fakeMenus) FindByID(_ context.Context, id uuid.UUID) (*models.Menu, error) {
	if f.err != nil {
		return nil, f.err
	}
	m, ok := f.menus[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMenus) Items(_ context.Context, menuID uuid.UUID) ([]models.MenuItem, error) {
	return append([]models.MenuItem{}, f.items[menuID]...), nil
}

func (f *fakeMenus) ReplaceItems(_ context.Context, menuID uuid.UUID, items []models.MenuItem) error {
	if f.err != nil {
		return f.err
	}
	f.items[menuID] = items
	return nil
}

func (f *fakeMenus) AssignLocation(_ context.Context, menuID uuid.UUID, location string) error {
	if f.err != nil {
		return f.err
	}
	for _, m := range f.menus {
		if m.Location != nil && *m.Location == location {
			m.Location = nil
		}
	}
	if location == "" {
		f.menus[menuID].Location = nil
	} else {
		f.menus[menuID].Location = &location
	}
	return nil
}

// --- cache log ---

// fakeLog returns fixed entries and remembers the requested limit.
type fakeLog struct {
	entries []store.CacheLogEntry
	limit   int
	err     error
}

func (f *fakeLog) RecentEntries(_ context.Context, limit int) ([]store.CacheLogEntry, error) {
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	if len(f.entries) > limit {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}

// --- users and sessions ---

// fakeUsers is an in-memory UserAuthenticator with bcrypt passwords.
type fakeUsers struct {
	byID    map[uuid.UUID]*models.User
	findErr error
}

func newFakeUsers(t *testing.T, email, password string, roles ...models.Role) (*fakeUsers, *models.User) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	u := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  "Admin",
		Roles:        roles,
	}
	return &fakeUsers{byID: map[uuid.UUID]*models.User{u.ID: u}}, u
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.byID[id], nil
}

func (f *fakeUsers) SetTOTPSecret(_ context.Context, id uuid.UUID, secret string) error {
	f.byID[id].TOTPSecret = &secret
	return nil
}

func (f *fakeUsers) EnableTOTP(_ context.Context, id uuid.UUID) error {
	f.byID[id].TOTPEnabled = true
	return nil
}

func (f *fakeUsers) CheckPassword(user *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

// fakeSessions keeps the last created or updated session.
type fakeSessions struct {
	created   *session.Data
	updated   *session.Data
	destroyed bool
	err       error
}

func (f *fakeSessions) Create(_ context.Context, w http.ResponseWriter, data *session.Data) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.created = data
	http.SetCookie(w, &http.Cookie{Name: session.CookieName, Value: "test-session"})
	return "test-session", nil
}

func (f *fakeSessions) Update(_ context.Context, _ *http.Request, data *session.Data) error {
	if f.err != nil {
		return f.err
	}
	f.updated = data
	return nil
}

func (f *fakeSessions) Destroy(context.Context, http.ResponseWriter, *http.Request) error {
	f.destroyed = true
	return f.err
}

var errBoom = errors.New("boom")
