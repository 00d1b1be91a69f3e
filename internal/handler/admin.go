// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"

	"github.com/olegiv/muthawwif-go/internal/analytics"
	"github.com/olegiv/muthawwif-go/internal/model"
	"github.com/olegiv/muthawwif-go/internal/render"
	"github.com/olegiv/muthawwif-go/internal/result"
	"github.com/olegiv/muthawwif-go/internal/store"
	"github.com/olegiv/muthawwif-go/internal/uikit"
)

// dashboardRecentLimit is how many recent rows each dashboard panel shows.
const dashboardRecentLimit = 5

// DashboardData holds the dashboard counters and recent activity.
type DashboardData struct {
	Counts    result.Result[store.DashboardCounts]
	Posts     result.Result[[]model.Post]
	Users     result.Result[[]model.Profile]
	Purchases result.Result[[]model.Purchase]
}

// AdminHandler serves the dashboard and the analytics pages.
type AdminHandler struct {
	queries   *store.Queries
	renderer  *render.Renderer
	analytics *analytics.Service
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(db *store.DB, renderer *render.Renderer, analyticsService *analytics.Service) *AdminHandler {
	return &AdminHandler{
		queries:   store.New(db),
		renderer:  renderer,
		analytics: analyticsService,
	}
}

// Dashboard renders the admin dashboard with counters and recent activity.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	counts, err := h.queries.GetDashboardCounts(ctx)
	data := DashboardData{
		Counts: result.From(counts, err, nil),
		Posts: result.FromSlice(h.queries.ListPosts(ctx,
			store.PostsQuery().OrderBy("p.created_at", true).OrderBy("p.id", true).Limit(dashboardRecentLimit))),
		Users: result.FromSlice(h.queries.ListProfiles(ctx,
			store.ProfilesQuery().OrderBy("p.created_at", true).Limit(dashboardRecentLimit))),
		Purchases: result.FromSlice(h.queries.ListPurchases(ctx,
			store.PurchasesQuery().OrderBy("pu.created_at", true).OrderBy("pu.id", true).Limit(dashboardRecentLimit))),
	}
	logIfError(data.Counts.Err(), "failed to load dashboard counts")
	logIfError(data.Posts.Err(), "failed to load recent posts")
	logIfError(data.Users.Err(), "failed to load recent users")
	logIfError(data.Purchases.Err(), "failed to load recent purchases")

	if err := h.renderer.Render(w, r, "admin/dashboard", render.TemplateData{
		Title:       "Dasbor",
		Breadcrumbs: uikit.Crumbs("Dasbor", redirectAdmin),
		Data:        data,
	}); err != nil {
		serverError(w, "failed to render dashboard", "error", err)
	}
}

// Analytics renders the sales and registration report.
func (h *AdminHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	days := analytics.ParseRange(r.URL.Query().Get("range"))
	report := h.analytics.Report(r.Context(), days)

	if err := h.renderer.Render(w, r, "admin/analytics", render.TemplateData{
		Title:       "Analitik",
		Breadcrumbs: uikit.Crumbs("Dasbor", redirectAdmin, "Analitik", RouteAdmin+RouteAnalytics),
		Data: map[string]any{
			"Report":       report,
			"Range":        days,
			"RangeOptions": analytics.RangeOptions,
		},
	}); err != nil {
		serverError(w, "failed to render analytics", "error", err)
	}
}

type analyticsPayload struct {
	Report analytics.Report `json:"report"`
	Empty  bool             `json:"empty"`
}

// AnalyticsJSON returns the report as JSON for the dashboard charts.
func (h *AdminHandler) AnalyticsJSON(w http.ResponseWriter, r *http.Request) {
	days := analytics.ParseRange(r.URL.Query().Get("range"))
	report := h.analytics.Report(r.Context(), days)

	if report.IsError() {
		slog.Error("analytics report failed", "error", report.Err(), "range", days)
		writeJSONError(w, http.StatusInternalServerError, "Gagal memuat data analitik")
		return
	}

	writeJSONData(w, analyticsPayload{
		Report: report.Value(),
		Empty:  report.IsEmpty(),
	})
}
