// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/muthawwif-go/internal/middleware"
	"github.com/olegiv/muthawwif-go/internal/render"
	"github.com/olegiv/muthawwif-go/internal/scheduler"
	"github.com/olegiv/muthawwif-go/internal/service"
	"github.com/olegiv/muthawwif-go/internal/uikit"
	"github.com/olegiv/muthawwif-go/internal/util"
)

// SchedulerHandler handles scheduler admin routes.
type SchedulerHandler struct {
	renderer *render.Renderer
	registry *scheduler.Registry
	events   *service.EventService
}

// NewSchedulerHandler creates a new SchedulerHandler.
func NewSchedulerHandler(renderer *render.Renderer, registry *scheduler.Registry, events *service.EventService) *SchedulerHandler {
	return &SchedulerHandler{
		renderer: renderer,
		registry: registry,
		events:   events,
	}
}

// List handles GET /admin/scheduler.
func (h *SchedulerHandler) List(w http.ResponseWriter, r *http.Request) {
	if err := h.renderer.Render(w, r, "admin/scheduler", render.TemplateData{
		Title:       "Penjadwal",
		Breadcrumbs: uikit.Crumbs("Dasbor", redirectAdmin, "Penjadwal", redirectAdminScheduler),
		Data: map[string]any{
			"Jobs": h.registry.List(),
		},
	}); err != nil {
		serverError(w, "failed to render scheduler", "error", err)
	}
}

// UpdateSchedule handles POST /admin/scheduler/{name}/schedule.
func (h *SchedulerHandler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminScheduler) {
		return
	}

	name := chi.URLParam(r, "name")
	schedule := strings.TrimSpace(r.FormValue("schedule"))
	if schedule == "" {
		flashError(w, r, h.renderer, redirectAdminScheduler, "Jadwal wajib diisi")
		return
	}

	if err := h.registry.UpdateSchedule(r.Context(), name, schedule); err != nil {
		slog.Error("failed to update schedule", "error", err, "name", name)
		flashError(w, r, h.renderer, redirectAdminScheduler, schedulerErrorMessage(err, "Gagal memperbarui jadwal"))
		return
	}

	userID := middleware.SessionFrom(r.Context()).UserID()
	_ = h.events.LogSchedulerEvent(r.Context(), "Schedule updated: "+name+" -> "+schedule, userID, util.ClientIP(r),
		map[string]any{"name": name, "schedule": schedule})

	slog.Info("scheduler job updated", "name", name, "schedule", schedule, "updated_by", userID)
	flashSuccess(w, r, h.renderer, redirectAdminScheduler, "Jadwal diperbarui")
}

// ResetSchedule handles POST /admin/scheduler/{name}/reset.
func (h *SchedulerHandler) ResetSchedule(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := h.registry.ResetSchedule(r.Context(), name); err != nil {
		slog.Error("failed to reset schedule", "error", err, "name", name)
		flashError(w, r, h.renderer, redirectAdminScheduler, schedulerErrorMessage(err, "Gagal mengembalikan jadwal"))
		return
	}

	userID := middleware.SessionFrom(r.Context()).UserID()
	_ = h.events.LogSchedulerEvent(r.Context(), "Schedule reset to default: "+name, userID, util.ClientIP(r),
		map[string]any{"name": name})

	slog.Info("scheduler job reset", "name", name, "reset_by", userID)
	flashSuccess(w, r, h.renderer, redirectAdminScheduler, "Jadwal dikembalikan ke bawaan")
}

// TriggerNow handles POST /admin/scheduler/{name}/trigger.
func (h *SchedulerHandler) TriggerNow(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := h.registry.TriggerNow(r.Context(), name); err != nil {
		slog.Error("failed to trigger job", "error", err, "name", name)
		flashError(w, r, h.renderer, redirectAdminScheduler, schedulerErrorMessage(err, "Tugas gagal dijalankan"))
		return
	}

	userID := middleware.SessionFrom(r.Context()).UserID()
	_ = h.events.LogSchedulerEvent(r.Context(), "Job manually triggered: "+name, userID, util.ClientIP(r),
		map[string]any{"name": name})

	slog.Info("scheduler job triggered", "name", name, "triggered_by", userID)
	flashSuccess(w, r, h.renderer, redirectAdminScheduler, "Tugas dijalankan")
}

func schedulerErrorMessage(err error, fallback string) string {
	if errors.Is(err, scheduler.ErrJobNotFound) {
		return "Tugas tidak ditemukan"
	}
	return fallback + ": " + err.Error()
}
