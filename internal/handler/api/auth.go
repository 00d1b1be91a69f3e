// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/olegiv/muthawwif-go/internal/auth"
	"github.com/olegiv/muthawwif-go/internal/middleware"
	"github.com/olegiv/muthawwif-go/internal/model"
	"github.com/olegiv/muthawwif-go/internal/service"
	"github.com/olegiv/muthawwif-go/internal/util"
)

// SignInRequest is the body of POST /auth/signin.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUpRequest is the body of POST /auth/signup.
type SignUpRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// tokenResponse builds the body returned after sign-in or sign-up.
func (h *Handler) tokenResponse(p model.Profile) (map[string]any, error) {
	token, exp, err := h.issuer.Issue(p.ID, p.Role)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_at":   exp.UTC().Format(time.RFC3339),
		"profile":      p,
	}, nil
}

// SignIn handles POST /api/v1/auth/signin.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		WriteError(w, http.StatusBadRequest, "Email dan kata sandi wajib diisi")
		return
	}

	profile, err := h.accounts.SignIn(r.Context(), req.Email, req.Password, util.ClientIP(r))
	if err != nil {
		var locked *service.LockedError
		switch {
		case errors.As(err, &locked):
			w.Header().Set("Retry-After", fmt.Sprintf("%.0f", locked.Remaining.Seconds()))
			WriteError(w, http.StatusTooManyRequests, "Akun terkunci sementara karena terlalu banyak percobaan gagal")
		case errors.Is(err, service.ErrInvalidCredentials):
			WriteError(w, http.StatusUnauthorized, "Email atau kata sandi salah")
		case errors.Is(err, service.ErrAccountInactive):
			WriteError(w, http.StatusForbidden, "Akun Anda telah dinonaktifkan")
		default:
			WriteInternalError(w, "api sign-in failed", err)
		}
		return
	}

	body, err := h.tokenResponse(profile)
	if err != nil {
		WriteInternalError(w, "issuing token", err, "user_id", profile.ID)
		return
	}
	WriteSuccess(w, http.StatusOK, body)
}

// SignUp handles POST /api/v1/auth/signup.
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.accounts.SignUp(r.Context(), service.SignUpParams{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
	}, util.ClientIP(r))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNameRequired):
			WriteValidationError(w, map[string]string{"full_name": "Nama lengkap wajib diisi"})
		case errors.Is(err, service.ErrInvalidEmail):
			WriteValidationError(w, map[string]string{"email": "Alamat email tidak valid"})
		case errors.Is(err, auth.ErrPasswordTooShort):
			WriteValidationError(w, map[string]string{"password": fmt.Sprintf("Kata sandi minimal %d karakter", auth.MinPasswordLength)})
		case errors.Is(err, service.ErrEmailTaken):
			WriteError(w, http.StatusConflict, "Email sudah terdaftar")
		default:
			WriteInternalError(w, "api sign-up failed", err)
		}
		return
	}

	body, err := h.tokenResponse(profile)
	if err != nil {
		WriteInternalError(w, "issuing token", err, "user_id", profile.ID)
		return
	}
	WriteSuccess(w, http.StatusCreated, body)
}

// Session handles GET /api/v1/auth/session. It requires a bearer token.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	s := middleware.SessionFrom(r.Context())
	if !s.SignedIn() {
		WriteError(w, http.StatusUnauthorized, "Belum masuk")
		return
	}
	WriteSuccess(w, http.StatusOK, map[string]any{
		"profile": s.Profile,
		"permissions": map[string]bool{
			"is_admin":           s.IsAdmin(),
			"is_owner":           s.IsOwner(),
			"can_manage_content": s.CanManageContent(),
			"can_manage_users":   s.CanManageUsers(),
		},
	})
}
