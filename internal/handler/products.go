// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/olegiv/muthawwif-go/internal/listing"
	"github.com/olegiv/muthawwif-go/internal/middleware"
	"github.com/olegiv/muthawwif-go/internal/model"
	"github.com/olegiv/muthawwif-go/internal/render"
	"github.com/olegiv/muthawwif-go/internal/service"
	"github.com/olegiv/muthawwif-go/internal/store"
	"github.com/olegiv/muthawwif-go/internal/uikit"
	"github.com/olegiv/muthawwif-go/internal/util"
)

var productFormFields = []string{
	"title", "slug", "description", "price", "original_price",
	"product_type", "category_id", "thumbnail", "is_active", "is_featured",
}

// ProductsHandler manages the product catalogue in the admin panel.
type ProductsHandler struct {
	db       *store.DB
	queries  *store.Queries
	renderer *render.Renderer
	events   *service.EventService
}

// NewProductsHandler creates a new ProductsHandler.
func NewProductsHandler(db *store.DB, renderer *render.Renderer, events *service.EventService) *ProductsHandler {
	return &ProductsHandler{
		db:       db,
		queries:  store.New(db),
		renderer: renderer,
		events:   events,
	}
}

// List handles GET /admin/products.
func (h *ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	state := listing.FromQuery(r.URL.Query(), listing.AdminProducts)

	products := listing.Fetch(ctx, state, h.db, h.queries.ListProducts)
	logIfError(products.Err(), "failed to list products", "query", state.Query())

	categories, err := h.queries.ListCategories(ctx, false)
	logIfError(err, "failed to list categories")

	if err := h.renderer.Render(w, r, "admin/products", render.TemplateData{
		Title:       "Produk",
		Breadcrumbs: uikit.Crumbs("Dasbor", redirectAdmin, "Produk", redirectAdminProducts),
		Data: map[string]any{
			"Products":   products,
			"State":      state,
			"Categories": categories,
			"Types":      model.ValidProductTypes,
			"Pagination": listingPagination(state, products.Value()),
		},
	}); err != nil {
		serverError(w, "failed to render products", "error", err)
	}
}

func (h *ProductsHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, id int64, form, errs map[string]string) {
	categories, err := h.queries.ListCategories(r.Context(), false)
	logIfError(err, "failed to list categories")

	title := "Produk Baru"
	crumbURL := redirectAdminProducts + RouteSuffixNew
	if id > 0 {
		title = "Edit Produk"
		crumbURL = fmt.Sprintf(redirectAdminProductsID, id)
	}

	if err := h.renderer.RenderStatus(w, r, status, "admin/product_form", render.TemplateData{
		Title:       title,
		Breadcrumbs: uikit.Crumbs("Dasbor", redirectAdmin, "Produk", redirectAdminProducts, title, crumbURL),
		Form:        form,
		Errors:      errs,
		Data: map[string]any{
			"ID":         id,
			"IsEdit":     id > 0,
			"Categories": categories,
			"Types":      model.ValidProductTypes,
		},
	}); err != nil {
		serverError(w, "failed to render product form", "error", err)
	}
}

// NewForm handles GET /admin/products/new.
func (h *ProductsHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, 0, map[string]string{
		"product_type": model.ProductTypeDigital,
		"is_active":    "on",
	}, nil)
}

// Create handles POST /admin/products.
func (h *ProductsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminProducts+RouteSuffixNew) {
		return
	}
	ctx := r.Context()

	form := formValues(r.FormValue, productFormFields...)
	params, errs := h.parseProductForm(ctx, form, 0)
	if len(errs) > 0 {
		h.renderForm(w, r, http.StatusUnprocessableEntity, 0, form, errs)
		return
	}

	id, err := h.queries.CreateProduct(ctx, params, time.Now())
	if err != nil {
		serverError(w, "failed to create product", "error", err)
		return
	}

	userID := middleware.SessionFrom(ctx).UserID()
	slog.Info("product created", "product_id", id, "slug", params.Slug, "created_by", userID)
	_ = h.events.LogContentEvent(ctx, "Product created", userID, util.ClientIP(r),
		map[string]any{"product_id": id, "title": params.Title})
	flashSuccess(w, r, h.renderer, redirectAdminProducts, "Produk berhasil dibuat")
}

// EditForm handles GET /admin/products/{id}.
func (h *ProductsHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminProducts, "ID produk tidak valid")
		return
	}
	p, ok := loadOrRedirect(w, r, h.renderer, redirectAdminProducts, "Produk", id, h.queries.GetProductByID)
	if !ok {
		return
	}

	form := map[string]string{
		"title":        p.Title,
		"slug":         p.Slug,
		"description":  p.Description,
		"price":        strconv.FormatInt(p.Price, 10),
		"product_type": p.ProductType,
		"thumbnail":    p.Thumbnail,
	}
	if p.OriginalPrice.Valid {
		form["original_price"] = strconv.FormatInt(p.OriginalPrice.Int64, 10)
	}
	if p.CategoryID.Valid {
		form["category_id"] = strconv.FormatInt(p.CategoryID.Int64, 10)
	}
	if p.IsActive {
		form["is_active"] = "on"
	}
	if p.IsFeatured {
		form["is_featured"] = "on"
	}
	h.renderForm(w, r, http.StatusOK, id, form, nil)
}

// Update handles POST /admin/products/{id}.
func (h *ProductsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminProducts, "ID produk tidak valid")
		return
	}
	if !parseFormOrRedirect(w, r, h.renderer, fmt.Sprintf(redirectAdminProductsID, id)) {
		return
	}
	ctx := r.Context()

	if _, ok := loadOrRedirect(w, r, h.renderer, redirectAdminProducts, "Produk", id, h.queries.GetProductByID); !ok {
		return
	}

	form := formValues(r.FormValue, productFormFields...)
	params, errs := h.parseProductForm(ctx, form, id)
	if len(errs) > 0 {
		h.renderForm(w, r, http.StatusUnprocessableEntity, id, form, errs)
		return
	}

	if err := h.queries.UpdateProduct(ctx, id, params, time.Now()); err != nil {
		serverError(w, "failed to update product", "error", err, "product_id", id)
		return
	}

	userID := middleware.SessionFrom(ctx).UserID()
	_ = h.events.LogContentEvent(ctx, "Product updated", userID, util.ClientIP(r),
		map[string]any{"product_id": id, "title": params.Title})
	flashSuccess(w, r, h.renderer, redirectAdminProducts, "Produk berhasil diperbarui")
}

// parseProductForm validates the product form. Prices accept rupiah
// notation such as "Rp 1.500.000".
func (h *ProductsHandler) parseProductForm(ctx context.Context, form map[string]string, excludeID int64) (store.ProductParams, map[string]string) {
	errs := make(map[string]string)

	if form["title"] == "" {
		errs["title"] = "Judul wajib diisi"
	}

	price, err := util.ParseRupiah(form["price"])
	if err != nil || price < 0 {
		errs["price"] = "Harga tidak valid"
	}

	var original sql.NullInt64
	if form["original_price"] != "" {
		v, err := util.ParseRupiah(form["original_price"])
		if err != nil || v < 0 {
			errs["original_price"] = "Harga awal tidak valid"
		} else if v > 0 {
			original = sql.NullInt64{Int64: v, Valid: true}
		}
	}

	productType := form["product_type"]
	if !slices.Contains(model.ValidProductTypes, productType) {
		errs["product_type"] = "Jenis produk tidak valid"
	}

	var slug string
	if form["title"] != "" || form["slug"] != "" {
		var msg string
		slug, msg = resolveSlug(ctx, form["slug"], form["title"], func(ctx context.Context, s string) (bool, error) {
			return h.queries.ProductSlugExists(ctx, s, excludeID)
		})
		if msg != "" {
			errs["slug"] = msg
		}
	}

	return store.ProductParams{
		Title:         form["title"],
		Slug:          slug,
		Description:   form["description"],
		Price:         price,
		OriginalPrice: original,
		ProductType:   productType,
		CategoryID:    util.ParseNullInt64Positive(form["category_id"]),
		Thumbnail:     form["thumbnail"],
		IsActive:      form["is_active"] != "",
		IsFeatured:    form["is_featured"] != "",
	}, errs
}

// Delete handles POST /admin/products/{id}/delete.
func (h *ProductsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminProducts, "ID produk tidak valid")
		return
	}
	ctx := r.Context()

	n, err := h.queries.DeleteProducts(ctx, []int64{id})
	if err != nil {
		slog.Error("failed to delete product", "error", err, "product_id", id)
		flashError(w, r, h.renderer, redirectAdminProducts, "Gagal menghapus produk")
		return
	}
	if n == 0 {
		flashError(w, r, h.renderer, redirectAdminProducts, "Produk tidak ditemukan")
		return
	}

	userID := middleware.SessionFrom(ctx).UserID()
	_ = h.events.LogContentEvent(ctx, "Product deleted", userID, util.ClientIP(r), map[string]any{"product_id": id})
	flashSuccess(w, r, h.renderer, redirectAdminProducts, "Produk berhasil dihapus")
}

// ToggleActive handles POST /admin/products/{id}/active.
func (h *ProductsHandler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "active", func(p model.Product) bool { return p.IsActive },
		h.queries.SetProductsActive, "Produk diaktifkan", "Produk dinonaktifkan")
}

// ToggleFeatured handles POST /admin/products/{id}/featured.
func (h *ProductsHandler) ToggleFeatured(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "featured", func(p model.Product) bool { return p.IsFeatured },
		h.queries.SetProductsFeatured, "Produk ditampilkan di beranda", "Produk tidak lagi ditampilkan di beranda")
}

func (h *ProductsHandler) toggle(
	w http.ResponseWriter,
	r *http.Request,
	flag string,
	current func(model.Product) bool,
	set func(context.Context, []int64, bool, time.Time) (int64, error),
	onMsg, offMsg string,
) {
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminProducts, "ID produk tidak valid")
		return
	}
	ctx := r.Context()

	p, ok := loadOrRedirect(w, r, h.renderer, redirectAdminProducts, "Produk", id, h.queries.GetProductByID)
	if !ok {
		return
	}

	next := !current(p)
	if _, err := set(ctx, []int64{id}, next, time.Now()); err != nil {
		slog.Error("failed to toggle product flag", "error", err, "product_id", id, "flag", flag)
		flashError(w, r, h.renderer, redirectAdminProducts, "Gagal mengubah produk")
		return
	}

	userID := middleware.SessionFrom(ctx).UserID()
	_ = h.events.LogContentEvent(ctx, "Product "+flag+" toggled", userID, util.ClientIP(r),
		map[string]any{"product_id": id, flag: next})

	msg := offMsg
	if next {
		msg = onMsg
	}
	flashSuccess(w, r, h.renderer, redirectAdminProducts, msg)
}

// Bulk handles POST /admin/products/bulk with action delete, activate,
// deactivate, feature or unfeature.
func (h *ProductsHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminProducts) {
		return
	}
	ctx := r.Context()

	ids, err := parseIDList(r.Form["ids"])
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminProducts, "Pilih minimal satu produk")
		return
	}

	action := r.FormValue("action")
	now := time.Now()
	var n int64
	var verb string
	switch action {
	case "delete":
		n, err = h.queries.DeleteProducts(ctx, ids)
		verb = "dihapus"
	case "activate":
		n, err = h.queries.SetProductsActive(ctx, ids, true, now)
		verb = "diaktifkan"
	case "deactivate":
		n, err = h.queries.SetProductsActive(ctx, ids, false, now)
		verb = "dinonaktifkan"
	case "feature":
		n, err = h.queries.SetProductsFeatured(ctx, ids, true, now)
		verb = "ditampilkan di beranda"
	case "unfeature":
		n, err = h.queries.SetProductsFeatured(ctx, ids, false, now)
		verb = "tidak lagi ditampilkan di beranda"
	default:
		flashError(w, r, h.renderer, redirectAdminProducts, "Aksi tidak dikenal")
		return
	}
	if err != nil {
		slog.Error("bulk product action failed", "error", err, "action", action, "count", len(ids))
		flashError(w, r, h.renderer, redirectAdminProducts, "Gagal memproses produk terpilih")
		return
	}

	userID := middleware.SessionFrom(ctx).UserID()
	_ = h.events.LogContentEvent(ctx, "Bulk product action", userID, util.ClientIP(r),
		map[string]any{"action": action, "ids": ids, "affected": n})
	flashSuccess(w, r, h.renderer, redirectAdminProducts, fmt.Sprintf("%d produk %s", n, verb))
}
