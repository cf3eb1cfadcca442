// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"staticmenus/internal/middleware"
	"staticmenus/internal/models"
	"staticmenus/internal/session"
)

// totpIssuer names the account in authenticator apps.
const totpIssuer = "Static Menus"

// UserAuthenticator is the user persistence sign-in needs.
type UserAuthenticator interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SetTOTPSecret(ctx context.Context, userID uuid.UUID, secret string) error
	EnableTOTP(ctx context.Context, userID uuid.UUID) error
	CheckPassword(user *models.User, password string) bool
}

// SessionManager creates and ends admin sessions.
type SessionManager interface {
	Create(ctx context.Context, w http.ResponseWriter, data *session.Data) (string, error)
	Update(ctx context.Context, r *http.Request, data *session.Data) error
	Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	sessions SessionManager
	users    UserAuthenticator
}

// NewAuth creates a new Auth handler group.
func NewAuth(sessions SessionManager, users UserAuthenticator) *Auth {
	return &Auth{
		sessions: sessions,
		users:    users,
	}
}

// sessionResponse describes the caller's sign-in state.
type sessionResponse struct {
	CSRFToken     string   `json:"csrf_token"`
	Authenticated bool     `json:"authenticated"`
	TwoFADone     bool     `json:"two_fa_done"`
	Email         string   `json:"email,omitempty"`
	DisplayName   string   `json:"display_name,omitempty"`
	Roles         []string `json:"roles,omitempty"`
}

// Session reports who is signed in and hands out the CSRF token admin
// clients echo on state-changing requests.
func (a *Auth) Session(w http.ResponseWriter, r *http.Request) {
	resp := sessionResponse{CSRFToken: middleware.CSRFTokenFromCtx(r.Context())}
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil {
		resp.Authenticated = true
		resp.TwoFADone = sess.TwoFADone
		resp.Email = sess.Email
		resp.DisplayName = sess.DisplayName
		resp.Roles = sess.Roles
	}
	writeJSON(w, http.StatusOK, resp)
}

// loginResponse tells the client which 2FA step comes next.
type loginResponse struct {
	Next string `json:"next"`
}

// Login checks email and password and starts a session that still needs
// its second factor.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := a.users.FindByEmail(r.Context(), strings.TrimSpace(body.Email))
	if err != nil {
		slog.Error("login lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}
	if user == nil || !a.users.CheckPassword(user, body.Password) {
		writeError(w, http.StatusUnauthorized, "Invalid email or password.")
		return
	}

	// TwoFADone starts as false; the user must complete 2FA.
	_, err = a.sessions.Create(r.Context(), w, &session.Data{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Roles:       user.RoleNames(),
		SuperAdmin:  user.SuperAdmin,
		TwoFADone:   false,
	})
	if err != nil {
		slog.Error("session create failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}
	slog.Info("user signed in, awaiting 2fa", "user_id", user.ID)

	next := "/admin/2fa/verify"
	if user.Needs2FASetup() {
		next = "/admin/2fa/setup"
	}
	writeJSON(w, http.StatusOK, loginResponse{Next: next})
}

// TwoFASetup generates a TOTP secret for a user without 2FA and returns
// the enrolment QR code as a PNG. The secret is also sent in the
// X-TOTP-Secret header for manual entry.
func (a *Auth) TwoFASetup(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "Sign in first.")
		return
	}

	user, err := a.users.FindByID(r.Context(), sess.UserID)
	if err != nil || user == nil {
		slog.Error("user lookup for 2fa setup failed", "user_id", sess.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}
	if user.TOTPEnabled {
		writeError(w, http.StatusConflict, "Two-factor authentication is already set up.")
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: user.Email,
	})
	if err != nil {
		slog.Error("totp generate failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	if err := a.users.SetTOTPSecret(r.Context(), user.ID, key.Secret()); err != nil {
		slog.Error("save totp secret failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	png, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		slog.Error("qr code generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-TOTP-Secret", key.Secret())
	w.Write(png)
}

// TwoFAVerify validates a TOTP code. The first valid code after setup
// enables 2FA for the user. Success completes the session.
func (a *Auth) TwoFAVerify(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "Sign in first.")
		return
	}

	var body struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := a.users.FindByID(r.Context(), sess.UserID)
	if err != nil || user == nil {
		slog.Error("user lookup for 2fa failed", "user_id", sess.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}
	if user.TOTPSecret == nil {
		writeJSON(w, http.StatusConflict, loginResponse{Next: "/admin/2fa/setup"})
		return
	}

	if !totp.Validate(strings.TrimSpace(body.Code), *user.TOTPSecret) {
		writeError(w, http.StatusUnauthorized, "Invalid code. Please try again.")
		return
	}

	if !user.TOTPEnabled {
		if err := a.users.EnableTOTP(r.Context(), user.ID); err != nil {
			slog.Error("enable totp failed", "error", err)
			writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
			return
		}
	}

	sess.TwoFADone = true
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		slog.Error("session update failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Signed in"})
}

// Logout destroys the session.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Warn("session destroy failed", "error", err)
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Signed out"})
}
