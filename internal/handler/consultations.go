// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"slices"

	"github.com/olegiv/muthawwif-go/internal/listing"
	"github.com/olegiv/muthawwif-go/internal/model"
	"github.com/olegiv/muthawwif-go/internal/render"
	"github.com/olegiv/muthawwif-go/internal/store"
	"github.com/olegiv/muthawwif-go/internal/uikit"
)

// ConsultationsHandler lists contact form submissions.
type ConsultationsHandler struct {
	db       *store.DB
	queries  *store.Queries
	renderer *render.Renderer
}

// NewConsultationsHandler creates a new ConsultationsHandler.
func NewConsultationsHandler(db *store.DB, renderer *render.Renderer) *ConsultationsHandler {
	return &ConsultationsHandler{
		db:       db,
		queries:  store.New(db),
		renderer: renderer,
	}
}

// List handles GET /admin/consultations.
func (h *ConsultationsHandler) List(w http.ResponseWriter, r *http.Request) {
	state := listing.FromQuery(r.URL.Query(), listing.AdminConsultations)

	items := listing.Fetch(r.Context(), state, h.db, h.queries.ListConsultations)
	logIfError(items.Err(), "failed to list consultations", "query", state.Query())

	if err := h.renderer.Render(w, r, "admin/consultations", render.TemplateData{
		Title:       "Konsultasi",
		Breadcrumbs: uikit.Crumbs("Dasbor", redirectAdmin, "Konsultasi", redirectAdminConsultations),
		Data: map[string]any{
			"Consultations": items,
			"State":         state,
			"Statuses":      model.ValidConsultationStatuses,
			"Types":         model.ConsultationTypes,
			"Pagination":    listingPagination(state, items.Value()),
		},
	}); err != nil {
		serverError(w, "failed to render consultations", "error", err)
	}
}

// UpdateStatus handles POST /admin/consultations/{id}/status.
func (h *ConsultationsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminConsultations, "ID konsultasi tidak valid")
		return
	}
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminConsultations) {
		return
	}

	status := r.FormValue("status")
	if !slices.Contains(model.ValidConsultationStatuses, status) {
		flashError(w, r, h.renderer, redirectAdminConsultations, "Status tidak valid")
		return
	}

	if err := h.queries.UpdateConsultationStatus(r.Context(), id, status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			flashError(w, r, h.renderer, redirectAdminConsultations, "Konsultasi tidak ditemukan")
			return
		}
		slog.Error("failed to update consultation", "error", err, "consultation_id", id)
		flashError(w, r, h.renderer, redirectAdminConsultations, "Gagal memperbarui status konsultasi")
		return
	}

	flashSuccess(w, r, h.renderer, redirectAdminConsultations, "Status konsultasi diperbarui")
}
