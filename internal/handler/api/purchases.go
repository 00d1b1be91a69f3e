// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/muthawwif-go/internal/middleware"
	"github.com/olegiv/muthawwif-go/internal/model"
	"github.com/olegiv/muthawwif-go/internal/store"
	"github.com/olegiv/muthawwif-go/internal/util"
)

// Payment methods accepted when creating a purchase.
const (
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodEWallet      = "ewallet"
	PaymentMethodQRIS         = "qris"
)

// PaymentMethods lists the accepted payment methods.
var PaymentMethods = []string{PaymentMethodBankTransfer, PaymentMethodEWallet, PaymentMethodQRIS}

// CreatePurchaseRequest is the body of POST /purchases.
type CreatePurchaseRequest struct {
	ProductID     int64  `json:"product_id"`
	PaymentMethod string `json:"payment_method"`
}

// PurchaseResponse is the caller's view of one purchase.
type PurchaseResponse struct {
	ID            int64     `json:"id"`
	ProductID     int64     `json:"product_id"`
	ProductTitle  string    `json:"product_title,omitempty"`
	Amount        int64     `json:"amount"`
	PaymentStatus string    `json:"payment_status"`
	PaymentMethod string    `json:"payment_method"`
	CreatedAt     time.Time `json:"created_at"`
}

func purchaseToResponse(p model.Purchase) PurchaseResponse {
	return PurchaseResponse{
		ID:            p.ID,
		ProductID:     p.ProductID,
		ProductTitle:  p.ProductTitle,
		Amount:        p.EffectiveAmount(),
		PaymentStatus: p.PaymentStatus,
		PaymentMethod: p.PaymentMethod,
		CreatedAt:     p.CreatedAt.UTC(),
	}
}

// MyPurchases handles GET /api/v1/purchases.
func (h *Handler) MyPurchases(w http.ResponseWriter, r *http.Request) {
	userID := middleware.SessionFrom(r.Context()).UserID()

	purchases, err := h.queries.ListUserPurchases(r.Context(), userID)
	if err != nil {
		WriteInternalError(w, "failed to list user purchases", err, "user_id", userID)
		return
	}

	out := make([]PurchaseResponse, len(purchases))
	for i, p := range purchases {
		out[i] = purchaseToResponse(p)
	}
	WriteSuccess(w, http.StatusOK, map[string]any{"data": out})
}

// CheckPurchase handles GET /api/v1/purchases/check/{productID}.
func (h *Handler) CheckPurchase(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil || productID <= 0 {
		WriteError(w, http.StatusBadRequest, "ID produk tidak valid")
		return
	}
	userID := middleware.SessionFrom(r.Context()).UserID()

	owned, err := h.queries.HasCompletedPurchase(r.Context(), userID, productID)
	if err != nil {
		WriteInternalError(w, "failed to check purchase", err, "user_id", userID, "product_id", productID)
		return
	}
	WriteSuccess(w, http.StatusOK, map[string]any{
		"product_id": productID,
		"purchased":  owned,
	})
}

// CreatePurchase handles POST /api/v1/purchases. The purchase is created
// pending at the product's current price.
func (h *Handler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	var req CreatePurchaseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = PaymentMethodBankTransfer
	}

	fields := make(map[string]string)
	if req.ProductID <= 0 {
		fields["product_id"] = "Produk wajib dipilih"
	}
	if !slices.Contains(PaymentMethods, req.PaymentMethod) {
		fields["payment_method"] = "Metode pembayaran tidak valid"
	}
	if len(fields) > 0 {
		WriteValidationError(w, fields)
		return
	}

	ctx := r.Context()
	userID := middleware.SessionFrom(ctx).UserID()

	product, err := h.queries.GetProductByID(ctx, req.ProductID)
	if err != nil || !product.IsActive {
		if err == nil || errors.Is(err, store.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Produk tidak ditemukan")
			return
		}
		WriteInternalError(w, "failed to load product", err, "product_id", req.ProductID)
		return
	}

	owned, err := h.queries.HasCompletedPurchase(ctx, userID, product.ID)
	if err != nil {
		WriteInternalError(w, "failed to check purchase", err, "user_id", userID, "product_id", product.ID)
		return
	}
	if owned {
		WriteError(w, http.StatusConflict, "Produk sudah Anda miliki")
		return
	}

	now := time.Now()
	id, err := h.queries.CreatePurchase(ctx, userID, product.ID, product.Price, req.PaymentMethod, now)
	if err != nil {
		WriteInternalError(w, "failed to create purchase", err, "user_id", userID, "product_id", product.ID)
		return
	}

	if h.events != nil {
		_ = h.events.LogPurchaseEvent(ctx, "Purchase created", userID, util.ClientIP(r), map[string]any{
			"purchase_id": id,
			"product_id":  product.ID,
			"amount":      product.Price,
		})
	}

	WriteSuccess(w, http.StatusCreated, map[string]any{
		"data": PurchaseResponse{
			ID:            id,
			ProductID:     product.ID,
			ProductTitle:  product.Title,
			Amount:        product.Price,
			PaymentStatus: model.PaymentStatusPending,
			PaymentMethod: req.PaymentMethod,
			CreatedAt:     now.UTC(),
		},
	})
}
