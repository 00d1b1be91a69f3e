// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/muthawwif-go/internal/listing"
	"github.com/olegiv/muthawwif-go/internal/middleware"
	"github.com/olegiv/muthawwif-go/internal/model"
	"github.com/olegiv/muthawwif-go/internal/render"
	"github.com/olegiv/muthawwif-go/internal/service"
	"github.com/olegiv/muthawwif-go/internal/store"
	"github.com/olegiv/muthawwif-go/internal/uikit"
	"github.com/olegiv/muthawwif-go/internal/util"
)

// UsersHandler manages profiles in the admin panel.
type UsersHandler struct {
	db       *store.DB
	queries  *store.Queries
	renderer *render.Renderer
	events   *service.EventService
}

// NewUsersHandler creates a new UsersHandler.
func NewUsersHandler(db *store.DB, renderer *render.Renderer, events *service.EventService) *UsersHandler {
	return &UsersHandler{
		db:       db,
		queries:  store.New(db),
		renderer: renderer,
		events:   events,
	}
}

// List handles GET /admin/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	state := listing.FromQuery(r.URL.Query(), listing.AdminUsers)

	users := listing.Fetch(r.Context(), state, h.db, h.queries.ListProfiles)
	logIfError(users.Err(), "failed to list users", "query", state.Query())

	if err := h.renderer.Render(w, r, "admin/users", render.TemplateData{
		Title:       "Pengguna",
		Breadcrumbs: uikit.Crumbs("Dasbor", redirectAdmin, "Pengguna", redirectAdminUsers),
		Data: map[string]any{
			"Users":      users,
			"State":      state,
			"Roles":      model.ValidRoles,
			"Pagination": listingPagination(state, users.Value()),
		},
	}); err != nil {
		serverError(w, "failed to render users", "error", err)
	}
}

// ChangeRole handles POST /admin/users/{id}/role.
func (h *UsersHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminUsers) {
		return
	}
	ctx := r.Context()
	s := middleware.SessionFrom(ctx)
	id := chi.URLParam(r, "id")

	if id == s.UserID() {
		flashError(w, r, h.renderer, redirectAdminUsers, "Anda tidak dapat mengubah peran akun sendiri")
		return
	}

	role := r.FormValue("role")
	if !model.IsValidRole(role) {
		flashError(w, r, h.renderer, redirectAdminUsers, "Peran tidak valid")
		return
	}

	n, err := h.queries.SetProfilesRole(ctx, []string{id}, role, time.Now())
	if err != nil {
		slog.Error("failed to change role", "error", err, "user_id", id)
		flashError(w, r, h.renderer, redirectAdminUsers, "Gagal mengubah peran pengguna")
		return
	}
	if n == 0 {
		flashError(w, r, h.renderer, redirectAdminUsers, "Pengguna tidak ditemukan")
		return
	}

	slog.Info("user role changed", "user_id", id, "role", role, "changed_by", s.UserID())
	_ = h.events.LogUserEvent(ctx, "User role changed", s.UserID(), util.ClientIP(r),
		map[string]any{"target_user_id": id, "role": role})
	flashSuccess(w, r, h.renderer, redirectAdminUsers, "Peran pengguna diperbarui")
}

// SetActive handles POST /admin/users/{id}/active with active=true|false.
func (h *UsersHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminUsers) {
		return
	}
	ctx := r.Context()
	s := middleware.SessionFrom(ctx)
	id := chi.URLParam(r, "id")

	active := r.FormValue("active") == "true"
	if !active && id == s.UserID() {
		flashError(w, r, h.renderer, redirectAdminUsers, "Anda tidak dapat menonaktifkan akun sendiri")
		return
	}

	n, err := h.queries.SetProfilesActive(ctx, []string{id}, active, time.Now())
	if err != nil {
		slog.Error("failed to change user status", "error", err, "user_id", id)
		flashError(w, r, h.renderer, redirectAdminUsers, "Gagal mengubah status pengguna")
		return
	}
	if n == 0 {
		flashError(w, r, h.renderer, redirectAdminUsers, "Pengguna tidak ditemukan")
		return
	}

	msg, event := "Pengguna diaktifkan", "User activated"
	if !active {
		msg, event = "Pengguna dinonaktifkan", "User deactivated"
	}
	_ = h.events.LogUserEvent(ctx, event, s.UserID(), util.ClientIP(r), map[string]any{"target_user_id": id})
	flashSuccess(w, r, h.renderer, redirectAdminUsers, msg)
}

// Bulk handles POST /admin/users/bulk with action activate, deactivate,
// makeUser or makeAdmin. A selection containing the caller is rejected
// for every action.
func (h *UsersHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminUsers) {
		return
	}
	ctx := r.Context()
	s := middleware.SessionFrom(ctx)

	ids, err := parseProfileIDList(r.Form["ids"])
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminUsers, "Pilih minimal satu pengguna")
		return
	}
	if slices.Contains(ids, s.UserID()) {
		flashError(w, r, h.renderer, redirectAdminUsers, "Pilihan tidak boleh menyertakan akun Anda sendiri")
		return
	}

	action := r.FormValue("action")
	now := time.Now()
	var n int64
	var verb string
	switch action {
	case "activate":
		n, err = h.queries.SetProfilesActive(ctx, ids, true, now)
		verb = "diaktifkan"
	case "deactivate":
		n, err = h.queries.SetProfilesActive(ctx, ids, false, now)
		verb = "dinonaktifkan"
	case "makeUser":
		n, err = h.queries.SetProfilesRole(ctx, ids, model.RoleUser, now)
		verb = "dijadikan pengguna"
	case "makeAdmin":
		n, err = h.queries.SetProfilesRole(ctx, ids, model.RoleAdmin, now)
		verb = "dijadikan admin"
	default:
		flashError(w, r, h.renderer, redirectAdminUsers, "Aksi tidak dikenal")
		return
	}
	if err != nil {
		slog.Error("bulk user action failed", "error", err, "action", action, "count", len(ids))
		flashError(w, r, h.renderer, redirectAdminUsers, "Gagal memproses pengguna terpilih")
		return
	}

	_ = h.events.LogUserEvent(ctx, "Bulk user action", s.UserID(), util.ClientIP(r),
		map[string]any{"action": action, "ids": ids, "affected": n})
	flashSuccess(w, r, h.renderer, redirectAdminUsers, fmt.Sprintf("%d pengguna %s", n, verb))
}
