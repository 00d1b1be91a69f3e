// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/olegiv/muthawwif-go/internal/analytics"
	"github.com/olegiv/muthawwif-go/internal/listing"
	"github.com/olegiv/muthawwif-go/internal/middleware"
	"github.com/olegiv/muthawwif-go/internal/model"
	"github.com/olegiv/muthawwif-go/internal/render"
	"github.com/olegiv/muthawwif-go/internal/service"
	"github.com/olegiv/muthawwif-go/internal/store"
	"github.com/olegiv/muthawwif-go/internal/uikit"
	"github.com/olegiv/muthawwif-go/internal/util"
)

// PurchasesHandler reviews purchases and confirms payments.
type PurchasesHandler struct {
	db        *store.DB
	queries   *store.Queries
	renderer  *render.Renderer
	events    *service.EventService
	analytics *analytics.Service
}

// NewPurchasesHandler creates a new PurchasesHandler.
func NewPurchasesHandler(db *store.DB, renderer *render.Renderer, events *service.EventService, analyticsService *analytics.Service) *PurchasesHandler {
	return &PurchasesHandler{
		db:        db,
		queries:   store.New(db),
		renderer:  renderer,
		events:    events,
		analytics: analyticsService,
	}
}

// List handles GET /admin/purchases.
func (h *PurchasesHandler) List(w http.ResponseWriter, r *http.Request) {
	state := listing.FromQuery(r.URL.Query(), listing.AdminPurchases)

	purchases := listing.Fetch(r.Context(), state, h.db, h.queries.ListPurchases)
	logIfError(purchases.Err(), "failed to list purchases", "query", state.Query())

	if err := h.renderer.Render(w, r, "admin/purchases", render.TemplateData{
		Title:       "Pembelian",
		Breadcrumbs: uikit.Crumbs("Dasbor", redirectAdmin, "Pembelian", redirectAdminPurchases),
		Data: map[string]any{
			"Purchases":  purchases,
			"State":      state,
			"Statuses":   model.ValidPaymentStatuses,
			"Pagination": listingPagination(state, purchases.Value()),
		},
	}); err != nil {
		serverError(w, "failed to render purchases", "error", err)
	}
}

// UpdateStatus handles POST /admin/purchases/{id}/status. Moving a purchase
// into completed counts one sale on its product.
func (h *PurchasesHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminPurchases, "ID pembelian tidak valid")
		return
	}
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminPurchases) {
		return
	}
	ctx := r.Context()

	status := r.FormValue("status")
	if !slices.Contains(model.ValidPaymentStatuses, status) {
		flashError(w, r, h.renderer, redirectAdminPurchases, "Status pembayaran tidak valid")
		return
	}

	purchase, ok := loadOrRedirect(w, r, h.renderer, redirectAdminPurchases, "Pembelian", id, h.queries.GetPurchaseByID)
	if !ok {
		return
	}
	if purchase.PaymentStatus == status {
		redirectWithFlash(w, r, h.renderer, redirectAdminPurchases, render.FlashInfo, "Status pembayaran tidak berubah")
		return
	}

	if err := h.queries.UpdatePurchaseStatus(ctx, id, status, time.Now()); err != nil {
		slog.Error("failed to update purchase status", "error", err, "purchase_id", id)
		flashError(w, r, h.renderer, redirectAdminPurchases, "Gagal memperbarui status pembayaran")
		return
	}

	if delta := soldCountDelta(purchase.PaymentStatus, status); delta != 0 {
		if err := h.queries.AdjustSoldCount(ctx, purchase.ProductID, delta); err != nil {
			slog.Error("failed to adjust sold count", "error", err, "product_id", purchase.ProductID, "delta", delta)
		}
	}
	h.analytics.Invalidate(ctx)

	userID := middleware.SessionFrom(ctx).UserID()
	slog.Info("purchase status changed", "purchase_id", id, "from", purchase.PaymentStatus, "to", status)
	_ = h.events.LogPurchaseEvent(ctx, "Purchase status changed", userID, util.ClientIP(r), map[string]any{
		"purchase_id": id,
		"product_id":  purchase.ProductID,
		"from":        purchase.PaymentStatus,
		"to":          status,
	})
	flashSuccess(w, r, h.renderer, redirectAdminPurchases, "Status pembayaran diperbarui")
}

// soldCountDelta is the change to a product's sold count when a purchase
// moves from one payment status to another. Only completed purchases count.
func soldCountDelta(from, to string) int64 {
	switch {
	case to == model.PaymentStatusCompleted && from != model.PaymentStatusCompleted:
		return 1
	case from == model.PaymentStatusCompleted && to != model.PaymentStatusCompleted:
		return -1
	}
	return 0
}
