// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/muthawwif-go/internal/cache"
	"github.com/olegiv/muthawwif-go/internal/middleware"
	"github.com/olegiv/muthawwif-go/internal/model"
	"github.com/olegiv/muthawwif-go/internal/render"
	"github.com/olegiv/muthawwif-go/internal/service"
	"github.com/olegiv/muthawwif-go/internal/store"
	"github.com/olegiv/muthawwif-go/internal/uikit"
	"github.com/olegiv/muthawwif-go/internal/util"
)

// SettingsHandler edits the site settings.
type SettingsHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
	settings *cache.SettingsCache
	events   *service.EventService
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(db *store.DB, renderer *render.Renderer, settings *cache.SettingsCache, events *service.EventService) *SettingsHandler {
	return &SettingsHandler{
		queries:  store.New(db),
		renderer: renderer,
		settings: settings,
		events:   events,
	}
}

// Edit handles GET /admin/settings. Values are read from the store so the
// form never shows a stale cached copy.
func (h *SettingsHandler) Edit(w http.ResponseWriter, r *http.Request) {
	values, err := h.queries.LoadSettings(r.Context(), false)
	if err != nil {
		serverError(w, "failed to load settings", "error", err)
		return
	}

	if err := h.renderer.Render(w, r, "admin/settings", render.TemplateData{
		Title:       "Pengaturan",
		Breadcrumbs: uikit.Crumbs("Dasbor", redirectAdmin, "Pengaturan", redirectAdminSettings),
		Data: map[string]any{
			"Keys":   model.SettingKeys,
			"Fields": model.SettingFields,
			"Values": values,
		},
	}); err != nil {
		serverError(w, "failed to render settings", "error", err)
	}
}

// Save handles POST /admin/settings/{key}, storing the key's fields as a
// JSON object.
func (h *SettingsHandler) Save(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if !model.IsValidSettingKey(key) {
		flashError(w, r, h.renderer, redirectAdminSettings, "Pengaturan tidak dikenal")
		return
	}
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminSettings) {
		return
	}
	ctx := r.Context()

	fields := make(map[string]string, len(model.SettingFields[key]))
	for _, f := range model.SettingFields[key] {
		fields[f] = strings.TrimSpace(r.FormValue(f))
	}
	value, err := json.Marshal(fields)
	if err != nil {
		serverError(w, "failed to encode setting", "error", err, "key", key)
		return
	}

	if err := h.queries.UpsertSetting(ctx, key, string(value), model.IsPublicSetting(key), time.Now()); err != nil {
		slog.Error("failed to save setting", "error", err, "key", key)
		flashError(w, r, h.renderer, redirectAdminSettings, "Gagal menyimpan pengaturan")
		return
	}

	if err := h.settings.Invalidate(ctx); err != nil {
		slog.Warn("failed to invalidate settings cache", "error", err)
	}

	userID := middleware.SessionFrom(ctx).UserID()
	_ = h.events.LogSettingsEvent(ctx, "Settings updated", userID, util.ClientIP(r), map[string]any{"key": key})
	flashSuccess(w, r, h.renderer, redirectAdminSettings+"#"+key, "Pengaturan berhasil disimpan")
}
