// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/muthawwif-go/internal/auth"
	"github.com/olegiv/muthawwif-go/internal/middleware"
	"github.com/olegiv/muthawwif-go/internal/render"
	"github.com/olegiv/muthawwif-go/internal/service"
	"github.com/olegiv/muthawwif-go/internal/session"
	"github.com/olegiv/muthawwif-go/internal/store"
	"github.com/olegiv/muthawwif-go/internal/util"
)

// AuthHandler handles sign-in, registration and the profile page.
type AuthHandler struct {
	queries        *store.Queries
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
	accounts       *service.AccountService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(db *store.DB, renderer *render.Renderer, sm *scs.SessionManager, accounts *service.AccountService) *AuthHandler {
	return &AuthHandler{
		queries:        store.New(db),
		renderer:       renderer,
		sessionManager: sm,
		accounts:       accounts,
	}
}

// safeNext returns next if it is a local path, otherwise fallback.
func safeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	return next
}

// afterLogin picks the landing page for a freshly signed-in profile.
func afterLogin(s middleware.Session, next string) string {
	fallback := RouteRoot
	if s.CanManageContent() {
		fallback = redirectAdmin
	}
	return safeNext(next, fallback)
}

// LoginForm renders the login page. Signed-in visitors are sent on.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	s := middleware.SessionFrom(r.Context())
	if s.SignedIn() {
		http.Redirect(w, r, afterLogin(s, ""), http.StatusSeeOther)
		return
	}

	data := render.TemplateData{
		Title: "Masuk",
		Form:  map[string]string{"next": r.URL.Query().Get("next")},
	}
	if err := h.renderer.Render(w, r, "auth/login", data); err != nil {
		serverError(w, "failed to render login page", "error", err)
	}
}

// Login handles the login form submission.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectLogin) {
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	next := r.FormValue("next")
	retry := redirectLogin
	if next != "" {
		retry = redirectLogin + "?next=" + url.QueryEscape(next)
	}

	if email == "" || password == "" {
		flashError(w, r, h.renderer, retry, "Email dan kata sandi wajib diisi")
		return
	}

	profile, err := h.accounts.SignIn(r.Context(), email, password, util.ClientIP(r))
	if err != nil {
		flashError(w, r, h.renderer, retry, signInMessage(err))
		return
	}

	// Regenerate session ID to prevent session fixation
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		serverError(w, "session renewal error", "error", err)
		return
	}
	h.sessionManager.Put(r.Context(), session.KeyUserID, profile.ID)

	slog.Info("user logged in", "user_id", profile.ID, "email", profile.Email)
	h.renderer.SetFlash(r, "Selamat datang kembali, "+profile.DisplayName()+"!", render.FlashSuccess)
	http.Redirect(w, r, afterLogin(middleware.Session{Profile: &profile}, next), http.StatusSeeOther)
}

// signInMessage maps a sign-in error to the message shown to the visitor.
func signInMessage(err error) string {
	var locked *service.LockedError
	var cred *service.CredentialsError
	switch {
	case errors.As(err, &locked):
		return "Terlalu banyak percobaan gagal. Coba lagi dalam " + formatDuration(locked.Remaining) + "."
	case errors.As(err, &cred):
		if cred.RemainingAttempts > 0 && cred.RemainingAttempts <= 3 {
			return fmt.Sprintf("Email atau kata sandi salah. Sisa percobaan: %d.", cred.RemainingAttempts)
		}
		return "Email atau kata sandi salah"
	case errors.Is(err, service.ErrAccountInactive):
		return "Akun Anda telah dinonaktifkan"
	default:
		slog.Error("sign-in failed", "error", err)
		return "Terjadi kesalahan. Silakan coba lagi."
	}
}

// RegisterForm renders the registration page.
func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	if middleware.SessionFrom(r.Context()).SignedIn() {
		http.Redirect(w, r, RouteRoot, http.StatusSeeOther)
		return
	}
	h.renderRegister(w, r, http.StatusOK, nil, nil)
}

func (h *AuthHandler) renderRegister(w http.ResponseWriter, r *http.Request, status int, form, errs map[string]string) {
	data := render.TemplateData{
		Title:  "Daftar",
		Form:   form,
		Errors: errs,
	}
	if err := h.renderer.RenderStatus(w, r, status, "auth/register", data); err != nil {
		serverError(w, "failed to render register page", "error", err)
	}
}

// Register handles the registration form. A new profile is signed in
// straight away.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderRegister(w, r, http.StatusBadRequest, nil, map[string]string{"form": "Data formulir tidak valid"})
		return
	}

	form := formValues(r.FormValue, "full_name", "email")
	params := service.SignUpParams{
		FullName: form["full_name"],
		Email:    form["email"],
		Password: r.FormValue("password"),
	}

	errs := make(map[string]string)
	if params.Password != r.FormValue("password_confirm") {
		errs["password_confirm"] = "Konfirmasi kata sandi tidak cocok"
	}
	if len(errs) == 0 {
		profile, err := h.accounts.SignUp(r.Context(), params, util.ClientIP(r))
		if err == nil {
			if err := h.sessionManager.RenewToken(r.Context()); err != nil {
				serverError(w, "session renewal error", "error", err)
				return
			}
			h.sessionManager.Put(r.Context(), session.KeyUserID, profile.ID)
			flashSuccess(w, r, h.renderer, RouteRoot, "Pendaftaran berhasil. Selamat datang, "+profile.DisplayName()+"!")
			return
		}
		field, msg := signUpError(err)
		if field == "" {
			serverError(w, "registration failed", "error", err)
			return
		}
		errs[field] = msg
	}

	h.renderRegister(w, r, http.StatusUnprocessableEntity, form, errs)
}

// signUpError maps a registration error to a form field and message. An
// empty field means the error is unexpected.
func signUpError(err error) (string, string) {
	switch {
	case errors.Is(err, service.ErrNameRequired):
		return "full_name", "Nama lengkap wajib diisi"
	case errors.Is(err, service.ErrInvalidEmail):
		return "email", "Alamat email tidak valid"
	case errors.Is(err, service.ErrEmailTaken):
		return "email", "Email sudah terdaftar"
	case errors.Is(err, auth.ErrPasswordTooShort):
		return "password", fmt.Sprintf("Kata sandi minimal %d karakter", auth.MinPasswordLength)
	}
	return "", ""
}

// Logout handles user logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.SessionFrom(r.Context()).UserID()

	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		slog.Error("session destroy error", "error", err)
	}
	h.accounts.SignOut(userID, util.ClientIP(r))

	slog.Info("user logged out", "user_id", userID)
	redirectWithFlash(w, r, h.renderer, RouteRoot, render.FlashInfo, "Anda telah keluar")
}

// Profile renders the signed-in visitor's profile with their purchases.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	profile := middleware.SessionFrom(r.Context()).Profile
	h.renderProfile(w, r, http.StatusOK, map[string]string{"full_name": profile.FullName}, nil)
}

func (h *AuthHandler) renderProfile(w http.ResponseWriter, r *http.Request, status int, form, errs map[string]string) {
	profile := middleware.SessionFrom(r.Context()).Profile

	purchases, err := h.queries.ListUserPurchases(r.Context(), profile.ID)
	if err != nil {
		slog.Error("failed to list user purchases", "error", err, "user_id", profile.ID)
	}

	data := render.TemplateData{
		Title:  "Profil Saya",
		Form:   form,
		Errors: errs,
		Data: map[string]any{
			"Profile":        profile,
			"Purchases":      purchases,
			"PurchasesError": err != nil,
		},
	}
	if err := h.renderer.RenderStatus(w, r, status, "auth/profile", data); err != nil {
		serverError(w, "failed to render profile page", "error", err)
	}
}

// UpdateProfile handles the profile form.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectProfile) {
		return
	}
	profile := middleware.SessionFrom(r.Context()).Profile

	update := service.ProfileUpdate{
		FullName:        strings.TrimSpace(r.FormValue("full_name")),
		CurrentPassword: r.FormValue("current_password"),
		NewPassword:     r.FormValue("new_password"),
	}

	err := h.accounts.UpdateProfile(r.Context(), *profile, update, util.ClientIP(r))
	if err == nil {
		flashSuccess(w, r, h.renderer, redirectProfile, "Profil berhasil diperbarui")
		return
	}

	var field, msg string
	switch {
	case errors.Is(err, service.ErrNameRequired):
		field, msg = "full_name", "Nama lengkap wajib diisi"
	case errors.Is(err, service.ErrWrongPassword):
		field, msg = "current_password", "Kata sandi saat ini salah"
	case errors.Is(err, auth.ErrPasswordTooShort):
		field, msg = "new_password", fmt.Sprintf("Kata sandi minimal %d karakter", auth.MinPasswordLength)
	default:
		serverError(w, "failed to update profile", "error", err, "user_id", profile.ID)
		return
	}
	h.renderProfile(w, r, http.StatusUnprocessableEntity, map[string]string{"full_name": update.FullName}, map[string]string{field: msg})
}

// formatDuration formats a duration for lockout messages.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d detik", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%d menit", int(d.Minutes()))
	}
	return fmt.Sprintf("%d jam", int(d.Hours()))
}
