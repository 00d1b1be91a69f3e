// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/muthawwif-go/internal/handler"
	"github.com/olegiv/muthawwif-go/internal/model"
	"github.com/olegiv/muthawwif-go/internal/store"
)

// PostResponse is the public JSON view of a post.
type PostResponse struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Excerpt       string     `json:"excerpt"`
	Content       string     `json:"content,omitempty"`
	FeaturedImage string     `json:"featured_image,omitempty"`
	ViewCount     int64      `json:"view_count"`
	CategoryID    *int64     `json:"category_id,omitempty"`
	CategoryName  string     `json:"category_name,omitempty"`
	AuthorName    string     `json:"author_name,omitempty"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
}

func postToResponse(p model.Post) PostResponse {
	resp := PostResponse{
		ID:            p.ID,
		Title:         p.Title,
		Slug:          p.Slug,
		Excerpt:       p.Excerpt,
		FeaturedImage: p.FeaturedImage,
		ViewCount:     p.ViewCount,
		CategoryName:  p.CategoryName,
		AuthorName:    p.AuthorName,
	}
	if p.CategoryID.Valid {
		resp.CategoryID = &p.CategoryID.Int64
	}
	if p.PublishedAt.Valid {
		t := p.PublishedAt.Time.UTC()
		resp.PublishedAt = &t
	}
	return resp
}

// ProductResponse is the public JSON view of a product.
type ProductResponse struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	Slug          string  `json:"slug"`
	Description   string  `json:"description"`
	Price         int64   `json:"price"`
	OriginalPrice *int64  `json:"original_price,omitempty"`
	ProductType   string  `json:"product_type"`
	CategoryID    *int64  `json:"category_id,omitempty"`
	CategoryName  string  `json:"category_name,omitempty"`
	Thumbnail     string  `json:"thumbnail,omitempty"`
	IsFeatured    bool    `json:"is_featured"`
	SoldCount     int64   `json:"sold_count"`
	RatingAverage float64 `json:"rating_average"`
}

func productToResponse(p model.Product) ProductResponse {
	resp := ProductResponse{
		ID:            p.ID,
		Title:         p.Title,
		Slug:          p.Slug,
		Description:   p.Description,
		Price:         p.Price,
		ProductType:   p.ProductType,
		CategoryName:  p.CategoryName,
		Thumbnail:     p.Thumbnail,
		IsFeatured:    p.IsFeatured,
		SoldCount:     p.SoldCount,
		RatingAverage: p.RatingAverage,
	}
	if p.HasDiscount() {
		resp.OriginalPrice = &p.OriginalPrice.Int64
	}
	if p.CategoryID.Valid {
		resp.CategoryID = &p.CategoryID.Int64
	}
	return resp
}

// Post handles GET /api/v1/posts/{slug}.
func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	post, err := h.queries.GetPublishedPostBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Artikel tidak ditemukan")
			return
		}
		WriteInternalError(w, "failed to load post", err, "slug", slug)
		return
	}

	resp := postToResponse(post)
	resp.Content = post.Content
	WriteSuccess(w, http.StatusOK, map[string]any{"data": resp})
}

// RecordPostView handles POST /api/v1/posts/{id}/views. Crawler requests
// are accepted but not counted.
func (h *Handler) RecordPostView(w http.ResponseWriter, r *http.Request) {
	id, err := handler.ParseIDParam(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "ID artikel tidak valid")
		return
	}
	ctx := r.Context()

	post, err := h.queries.GetPostByID(ctx, id)
	if err != nil || !post.IsPublished() {
		if err == nil || errors.Is(err, store.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Artikel tidak ditemukan")
			return
		}
		WriteInternalError(w, "failed to load post", err, "post_id", id)
		return
	}

	counted := handler.CountsAsView(r)
	if counted {
		if err := h.queries.IncrementPostViews(ctx, id); err != nil {
			WriteInternalError(w, "failed to increment post views", err, "post_id", id)
			return
		}
		post.ViewCount++
	}
	WriteSuccess(w, http.StatusOK, map[string]any{
		"counted":    counted,
		"view_count": post.ViewCount,
	})
}

// Product handles GET /api/v1/products/{slug}.
func (h *Handler) Product(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	product, err := h.queries.GetActiveProductBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Produk tidak ditemukan")
			return
		}
		WriteInternalError(w, "failed to load product", err, "slug", slug)
		return
	}
	WriteSuccess(w, http.StatusOK, map[string]any{"data": productToResponse(product)})
}

// Categories handles GET /api/v1/categories.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.queries.ListCategories(r.Context(), true)
	if err != nil {
		WriteInternalError(w, "failed to list categories", err)
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}
	WriteSuccess(w, http.StatusOK, map[string]any{"data": categories})
}

// PublicSettings handles GET /api/v1/settings/public.
func (h *Handler) PublicSettings(w http.ResponseWriter, r *http.Request) {
	if h.settings == nil {
		WriteSuccess(w, http.StatusOK, map[string]any{"data": model.Settings{}})
		return
	}
	settings, err := h.settings.Public(r.Context())
	if err != nil {
		WriteInternalError(w, "failed to load public settings", err)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=60")
	WriteSuccess(w, http.StatusOK, map[string]any{"data": settings})
}
