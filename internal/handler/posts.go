// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
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

var postFormFields = []string{"title", "slug", "content", "excerpt", "status", "category_id", "featured_image"}

// PostsHandler manages blog posts in the admin panel.
type PostsHandler struct {
	db       *store.DB
	queries  *store.Queries
	renderer *render.Renderer
	events   *service.EventService
}

// NewPostsHandler creates a new PostsHandler.
func NewPostsHandler(db *store.DB, renderer *render.Renderer, events *service.EventService) *PostsHandler {
	return &PostsHandler{
		db:       db,
		queries:  store.New(db),
		renderer: renderer,
		events:   events,
	}
}

// List handles GET /admin/posts.
func (h *PostsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	state := listing.FromQuery(r.URL.Query(), listing.AdminPosts)

	posts := listing.Fetch(ctx, state, h.db, h.queries.ListPosts)
	logIfError(posts.Err(), "failed to list posts", "query", state.Query())

	categories, err := h.queries.ListCategories(ctx, false)
	logIfError(err, "failed to list categories")

	if err := h.renderer.Render(w, r, "admin/posts", render.TemplateData{
		Title:       "Artikel",
		Breadcrumbs: uikit.Crumbs("Dasbor", redirectAdmin, "Artikel", redirectAdminPosts),
		Data: map[string]any{
			"Posts":      posts,
			"State":      state,
			"Categories": categories,
			"Statuses":   model.ValidPostStatuses,
			"Pagination": listingPagination(state, posts.Value()),
		},
	}); err != nil {
		serverError(w, "failed to render posts", "error", err)
	}
}

func (h *PostsHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, id int64, form, errs map[string]string) {
	categories, err := h.queries.ListCategories(r.Context(), false)
	logIfError(err, "failed to list categories")

	title := "Artikel Baru"
	crumbURL := redirectAdminPosts + RouteSuffixNew
	if id > 0 {
		title = "Edit Artikel"
		crumbURL = fmt.Sprintf(redirectAdminPostsID, id)
	}

	if err := h.renderer.RenderStatus(w, r, status, "admin/post_form", render.TemplateData{
		Title:       title,
		Breadcrumbs: uikit.Crumbs("Dasbor", redirectAdmin, "Artikel", redirectAdminPosts, title, crumbURL),
		Form:        form,
		Errors:      errs,
		Data: map[string]any{
			"ID":         id,
			"IsEdit":     id > 0,
			"Categories": categories,
			"Statuses":   model.ValidPostStatuses,
		},
	}); err != nil {
		serverError(w, "failed to render post form", "error", err)
	}
}

// NewForm handles GET /admin/posts/new.
func (h *PostsHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, 0, map[string]string{"status": model.PostStatusDraft}, nil)
}

// Create handles POST /admin/posts.
func (h *PostsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminPosts+RouteSuffixNew) {
		return
	}
	ctx := r.Context()
	s := middleware.SessionFrom(ctx)

	form := formValues(r.FormValue, postFormFields...)
	params, errs := h.parsePostForm(ctx, form, 0)
	if len(errs) > 0 {
		h.renderForm(w, r, http.StatusUnprocessableEntity, 0, form, errs)
		return
	}
	params.AuthorID = util.NullStringFromValue(s.UserID())

	id, err := h.queries.CreatePost(ctx, params, time.Now())
	if err != nil {
		serverError(w, "failed to create post", "error", err)
		return
	}

	slog.Info("post created", "post_id", id, "slug", params.Slug, "created_by", s.UserID())
	_ = h.events.LogContentEvent(ctx, "Post created", s.UserID(), util.ClientIP(r),
		map[string]any{"post_id": id, "title": params.Title})
	flashSuccess(w, r, h.renderer, redirectAdminPosts, "Artikel berhasil dibuat")
}

// EditForm handles GET /admin/posts/{id}.
func (h *PostsHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminPosts, "ID artikel tidak valid")
		return
	}
	post, ok := loadOrRedirect(w, r, h.renderer, redirectAdminPosts, "Artikel", id, h.queries.GetPostByID)
	if !ok {
		return
	}

	form := map[string]string{
		"title":          post.Title,
		"slug":           post.Slug,
		"content":        post.Content,
		"excerpt":        post.Excerpt,
		"status":         post.Status,
		"featured_image": post.FeaturedImage,
	}
	if post.CategoryID.Valid {
		form["category_id"] = fmt.Sprint(post.CategoryID.Int64)
	}
	h.renderForm(w, r, http.StatusOK, id, form, nil)
}

// Update handles POST /admin/posts/{id}.
func (h *PostsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminPosts, "ID artikel tidak valid")
		return
	}
	editURL := fmt.Sprintf(redirectAdminPostsID, id)
	if !parseFormOrRedirect(w, r, h.renderer, editURL) {
		return
	}
	ctx := r.Context()

	if _, ok := loadOrRedirect(w, r, h.renderer, redirectAdminPosts, "Artikel", id, h.queries.GetPostByID); !ok {
		return
	}

	form := formValues(r.FormValue, postFormFields...)
	params, errs := h.parsePostForm(ctx, form, id)
	if len(errs) > 0 {
		h.renderForm(w, r, http.StatusUnprocessableEntity, id, form, errs)
		return
	}

	if err := h.queries.UpdatePost(ctx, id, params, time.Now()); err != nil {
		serverError(w, "failed to update post", "error", err, "post_id", id)
		return
	}

	userID := middleware.SessionFrom(ctx).UserID()
	slog.Info("post updated", "post_id", id, "updated_by", userID)
	_ = h.events.LogContentEvent(ctx, "Post updated", userID, util.ClientIP(r),
		map[string]any{"post_id": id, "title": params.Title})
	flashSuccess(w, r, h.renderer, redirectAdminPosts, "Artikel berhasil diperbarui")
}

// parsePostForm validates the post form. excludeID is the post being
// edited, or 0 when creating.
func (h *PostsHandler) parsePostForm(ctx context.Context, form map[string]string, excludeID int64) (store.PostParams, map[string]string) {
	errs := make(map[string]string)

	if form["title"] == "" {
		errs["title"] = "Judul wajib diisi"
	} else if len(form["title"]) > 255 {
		errs["title"] = "Judul maksimal 255 karakter"
	}
	if form["content"] == "" {
		errs["content"] = "Konten wajib diisi"
	}

	status := form["status"]
	if status == "" {
		status = model.PostStatusDraft
	}
	if !slices.Contains(model.ValidPostStatuses, status) {
		errs["status"] = "Status tidak valid"
	}

	var slug string
	if form["title"] != "" || form["slug"] != "" {
		var msg string
		slug, msg = resolveSlug(ctx, form["slug"], form["title"], func(ctx context.Context, s string) (bool, error) {
			return h.queries.PostSlugExists(ctx, s, excludeID)
		})
		if msg != "" {
			errs["slug"] = msg
		}
	}

	return store.PostParams{
		Title:         form["title"],
		Slug:          slug,
		Content:       form["content"],
		Excerpt:       form["excerpt"],
		Status:        status,
		CategoryID:    util.ParseNullInt64Positive(form["category_id"]),
		FeaturedImage: form["featured_image"],
	}, errs
}

// Delete handles POST /admin/posts/{id}/delete.
func (h *PostsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminPosts, "ID artikel tidak valid")
		return
	}
	ctx := r.Context()

	n, err := h.queries.DeletePosts(ctx, []int64{id})
	if err != nil {
		slog.Error("failed to delete post", "error", err, "post_id", id)
		flashError(w, r, h.renderer, redirectAdminPosts, "Gagal menghapus artikel")
		return
	}
	if n == 0 {
		flashError(w, r, h.renderer, redirectAdminPosts, "Artikel tidak ditemukan")
		return
	}

	userID := middleware.SessionFrom(ctx).UserID()
	_ = h.events.LogContentEvent(ctx, "Post deleted", userID, util.ClientIP(r), map[string]any{"post_id": id})
	flashSuccess(w, r, h.renderer, redirectAdminPosts, "Artikel berhasil dihapus")
}

// ToggleStatus handles POST /admin/posts/{id}/status, flipping a post
// between published and draft.
func (h *PostsHandler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminPosts, "ID artikel tidak valid")
		return
	}
	ctx := r.Context()

	post, ok := loadOrRedirect(w, r, h.renderer, redirectAdminPosts, "Artikel", id, h.queries.GetPostByID)
	if !ok {
		return
	}

	next := model.PostStatusPublished
	msg := "Artikel dipublikasikan"
	if post.IsPublished() {
		next = model.PostStatusDraft
		msg = "Artikel dikembalikan ke draf"
	}

	if _, err := h.queries.SetPostsStatus(ctx, []int64{id}, next, time.Now()); err != nil {
		slog.Error("failed to change post status", "error", err, "post_id", id)
		flashError(w, r, h.renderer, redirectAdminPosts, "Gagal mengubah status artikel")
		return
	}

	userID := middleware.SessionFrom(ctx).UserID()
	_ = h.events.LogContentEvent(ctx, "Post status changed", userID, util.ClientIP(r),
		map[string]any{"post_id": id, "status": next})
	flashSuccess(w, r, h.renderer, redirectAdminPosts, msg)
}

// Bulk handles POST /admin/posts/bulk with action delete, publish or
// unpublish and a list of ids.
func (h *PostsHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminPosts) {
		return
	}
	ctx := r.Context()

	ids, err := parseIDList(r.Form["ids"])
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminPosts, "Pilih minimal satu artikel")
		return
	}

	action := r.FormValue("action")
	now := time.Now()
	var n int64
	var verb string
	switch action {
	case "delete":
		n, err = h.queries.DeletePosts(ctx, ids)
		verb = "dihapus"
	case "publish":
		n, err = h.queries.PublishPosts(ctx, ids, now)
		verb = "dipublikasikan"
	case "unpublish":
		n, err = h.queries.SetPostsStatus(ctx, ids, model.PostStatusDraft, now)
		verb = "dijadikan draf"
	default:
		flashError(w, r, h.renderer, redirectAdminPosts, "Aksi tidak dikenal")
		return
	}
	if err != nil {
		slog.Error("bulk post action failed", "error", err, "action", action, "count", len(ids))
		flashError(w, r, h.renderer, redirectAdminPosts, "Gagal memproses artikel terpilih")
		return
	}

	userID := middleware.SessionFrom(ctx).UserID()
	_ = h.events.LogContentEvent(ctx, "Bulk post action", userID, util.ClientIP(r),
		map[string]any{"action": action, "ids": ids, "affected": n})
	flashSuccess(w, r, h.renderer, redirectAdminPosts, fmt.Sprintf("%d artikel %s", n, verb))
}
