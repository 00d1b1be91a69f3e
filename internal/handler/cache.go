// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/olegiv/muthawwif-go/internal/analytics"
	"github.com/olegiv/muthawwif-go/internal/cache"
	"github.com/olegiv/muthawwif-go/internal/middleware"
	"github.com/olegiv/muthawwif-go/internal/model"
	"github.com/olegiv/muthawwif-go/internal/render"
	"github.com/olegiv/muthawwif-go/internal/service"
	"github.com/olegiv/muthawwif-go/internal/uikit"
	"github.com/olegiv/muthawwif-go/internal/util"
)

// CacheHandler handles cache management routes.
type CacheHandler struct {
	renderer  *render.Renderer
	cache     cache.Cache
	settings  *cache.SettingsCache
	analytics *analytics.Service
	events    *service.EventService
}

// NewCacheHandler creates a new CacheHandler.
func NewCacheHandler(renderer *render.Renderer, c cache.Cache, settings *cache.SettingsCache, analyticsService *analytics.Service, events *service.EventService) *CacheHandler {
	return &CacheHandler{
		renderer:  renderer,
		cache:     c,
		settings:  settings,
		analytics: analyticsService,
		events:    events,
	}
}

// CacheStatsData holds data for the cache stats template.
type CacheStatsData struct {
	Stats       cache.Stats
	HasStats    bool
	IsRedis     bool
	HealthError string // Non-empty if health check failed
}

// Stats handles GET /admin/cache - displays cache statistics.
func (h *CacheHandler) Stats(w http.ResponseWriter, r *http.Request) {
	data := CacheStatsData{IsRedis: cache.BackendOf(h.cache) == cache.BackendRedis}

	if sp, ok := h.cache.(cache.StatsProvider); ok {
		data.Stats = sp.Stats()
		data.HasStats = true
	}
	if err := h.cache.Ping(r.Context()); err != nil {
		data.HealthError = err.Error()
	}

	if err := h.renderer.Render(w, r, "admin/cache", render.TemplateData{
		Title:       "Cache",
		Breadcrumbs: uikit.Crumbs("Dasbor", redirectAdmin, "Cache", redirectAdminCache),
		Data:        data,
	}); err != nil {
		serverError(w, "failed to render cache page", "error", err)
	}
}

// clearCacheHelper performs the clear operation, logging, and flash message.
func (h *CacheHandler) clearCacheHelper(w http.ResponseWriter, r *http.Request, clearFn func(context.Context) error, logMsg, eventMsg, flashMsg string) {
	ctx := r.Context()
	userID := middleware.SessionFrom(ctx).UserID()

	if err := clearFn(ctx); err != nil {
		slog.Error("cache clear failed", "error", err, "action", logMsg)
		flashError(w, r, h.renderer, redirectAdminCache, "Gagal membersihkan cache")
		return
	}
	slog.Info(logMsg, "cleared_by", userID)

	if h.events != nil {
		_ = h.events.LogEvent(ctx, model.EventLevelInfo, model.EventCategoryCache, eventMsg, userID, util.ClientIP(r), nil)
	}

	flashSuccess(w, r, h.renderer, redirectAdminCache, flashMsg)
}

// Clear handles POST /admin/cache/clear - clears every cached entry.
func (h *CacheHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.clearCacheHelper(w, r, h.cache.Clear,
		"cache cleared", "All caches cleared", "Semua cache berhasil dibersihkan")
}

// ClearSettings handles POST /admin/cache/clear/settings.
func (h *CacheHandler) ClearSettings(w http.ResponseWriter, r *http.Request) {
	h.clearCacheHelper(w, r, h.settings.Invalidate,
		"settings cache cleared", "Settings cache cleared", "Cache pengaturan dibersihkan")
}

// ClearAnalytics handles POST /admin/cache/clear/analytics.
func (h *CacheHandler) ClearAnalytics(w http.ResponseWriter, r *http.Request) {
	h.clearCacheHelper(w, r, func(ctx context.Context) error {
		h.analytics.Invalidate(ctx)
		return nil
	}, "analytics cache cleared", "Analytics cache cleared", "Cache analitik dibersihkan")
}
