// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides HTTP handlers for the public site, the member
// pages and the admin panel.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mileusna/useragent"

	"github.com/olegiv/muthawwif-go/internal/listing"
	"github.com/olegiv/muthawwif-go/internal/middleware"
	"github.com/olegiv/muthawwif-go/internal/model"
	"github.com/olegiv/muthawwif-go/internal/render"
	"github.com/olegiv/muthawwif-go/internal/result"
	"github.com/olegiv/muthawwif-go/internal/store"
	"github.com/olegiv/muthawwif-go/internal/uikit"
	"github.com/olegiv/muthawwif-go/internal/util"
)

// Home page section sizes.
const (
	homeFeaturedProducts = 4
	homeLatestPosts      = 3
	homeTestimonials     = 6
	relatedPostsLimit    = 3
)

// FrontendHandler serves the public pages.
type FrontendHandler struct {
	db       *store.DB
	queries  *store.Queries
	renderer *render.Renderer
}

// NewFrontendHandler creates a new FrontendHandler.
func NewFrontendHandler(db *store.DB, renderer *render.Renderer) *FrontendHandler {
	return &FrontendHandler{
		db:       db,
		queries:  store.New(db),
		renderer: renderer,
	}
}

func (h *FrontendHandler) render(w http.ResponseWriter, r *http.Request, name string, data render.TemplateData) {
	if err := h.renderer.Render(w, r, name, data); err != nil {
		slog.Error("failed to render page", "error", err, "template", name)
		h.renderer.ServerError(w, r)
	}
}

// Home handles GET /.
func (h *FrontendHandler) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	featured := result.FromSlice(h.queries.ListProducts(ctx, store.ProductsQuery().
		Where(store.Eq("pr.is_active", true), store.Eq("pr.is_featured", true)).
		OrderBy("pr.created_at", true).
		Limit(homeFeaturedProducts)))
	logIfError(featured.Err(), "failed to load featured products")

	posts := result.FromSlice(h.queries.ListPosts(ctx, latestPostsQuery(homeLatestPosts)))
	logIfError(posts.Err(), "failed to load latest posts")

	testimonials := result.FromSlice(h.queries.ListTestimonials(ctx, true, homeTestimonials))
	logIfError(testimonials.Err(), "failed to load testimonials")

	h.render(w, r, "pages/home", render.TemplateData{
		Title: "Beranda",
		Data: map[string]any{
			"Products":     featured,
			"Posts":        posts,
			"Testimonials": testimonials,
		},
	})
}

// About handles GET /about.
func (h *FrontendHandler) About(w http.ResponseWriter, r *http.Request) {
	testimonials := result.FromSlice(h.queries.ListTestimonials(r.Context(), false, 0))
	logIfError(testimonials.Err(), "failed to load testimonials")

	h.render(w, r, "pages/about", render.TemplateData{
		Title:       "Tentang Kami",
		Breadcrumbs: uikit.Crumbs("Beranda", RouteRoot, "Tentang Kami", RouteAbout),
		Data:        map[string]any{"Testimonials": testimonials},
	})
}

// Blog handles GET /blog.
func (h *FrontendHandler) Blog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	state := listing.FromQuery(r.URL.Query(), listing.Blog)

	posts := listing.Fetch(ctx, state, h.db, h.queries.ListPosts)
	logIfError(posts.Err(), "failed to list blog posts", "query", state.Query())

	categories, err := h.queries.ListCategories(ctx, true)
	logIfError(err, "failed to list categories")

	h.render(w, r, "pages/blog", render.TemplateData{
		Title:       "Blog",
		Breadcrumbs: uikit.Crumbs("Beranda", RouteRoot, "Blog", RouteBlog),
		Data: map[string]any{
			"Posts":      posts,
			"State":      state,
			"Categories": categories,
			"Pagination": listingPagination(state, posts.Value()),
		},
	})
}

// Post handles GET /blog/{slug}.
func (h *FrontendHandler) Post(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	post, err := h.queries.GetPublishedPostBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.renderer.NotFound(w, r)
			return
		}
		slog.Error("failed to load post", "error", err, "slug", chi.URLParam(r, "slug"))
		h.renderer.ServerError(w, r)
		return
	}

	if CountsAsView(r) {
		if err := h.queries.IncrementPostViews(ctx, post.ID); err != nil {
			slog.Warn("failed to increment post views", "error", err, "post_id", post.ID)
		} else {
			post.ViewCount++
		}
	}

	related := result.FromSlice(h.relatedPosts(ctx, post))
	logIfError(related.Err(), "failed to load related posts", "post_id", post.ID)

	description := post.Excerpt
	if description == "" {
		description = uikit.Truncate(render.PlainText(post.Content), 160)
	}

	h.render(w, r, "pages/post", render.TemplateData{
		Title:       post.Title,
		Description: description,
		Breadcrumbs: uikit.Crumbs("Beranda", RouteRoot, "Blog", RouteBlog, post.Title, RouteBlog+"/"+post.Slug),
		Data: map[string]any{
			"Post":    post,
			"Related": related,
		},
	})
}

func (h *FrontendHandler) relatedPosts(ctx context.Context, post model.Post) ([]model.Post, error) {
	q := latestPostsQuery(relatedPostsLimit).Where(store.Neq("p.id", post.ID))
	if post.CategoryID.Valid {
		q.Where(store.Eq("p.category_id", post.CategoryID.Int64))
	}
	return h.queries.ListPosts(ctx, q)
}

// CountsAsView reports whether a request should bump a post's view count.
// Crawlers and link previews are ignored.
func CountsAsView(r *http.Request) bool {
	ua := r.UserAgent()
	if ua == "" {
		return false
	}
	return !useragent.Parse(ua).Bot
}

// Products handles GET /products.
func (h *FrontendHandler) Products(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	state := listing.FromQuery(r.URL.Query(), listing.Products)

	products := listing.Fetch(ctx, state, h.db, h.queries.ListProducts)
	logIfError(products.Err(), "failed to list products", "query", state.Query())

	categories, err := h.queries.ListCategories(ctx, true)
	logIfError(err, "failed to list categories")

	h.render(w, r, "pages/products", render.TemplateData{
		Title:       "Produk & Layanan",
		Breadcrumbs: uikit.Crumbs("Beranda", RouteRoot, "Produk", RouteProducts),
		Data: map[string]any{
			"Products":     products,
			"State":        state,
			"Categories":   categories,
			"Types":        model.ValidProductTypes,
			"SortOptions":  listing.SortOptions,
			"PriceRanges":  priceRanges,
			"CurrentSort":  state.Get(listing.KeySortBy),
			"DefaultSort":  listing.Products.DefaultSort,
			"ProductCount": len(products.Value().Items),
		},
	})
}

// priceRanges are the catalogue's price filter presets.
var priceRanges = []struct{ Value, Label string }{
	{"0-1000000", "Di bawah Rp 1 juta"},
	{"1000000-5000000", "Rp 1 - 5 juta"},
	{"5000000-20000000", "Rp 5 - 20 juta"},
	{"20000000", "Di atas Rp 20 juta"},
}

// Product handles GET /products/{slug}.
func (h *FrontendHandler) Product(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	product, err := h.queries.GetActiveProductBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.renderer.NotFound(w, r)
			return
		}
		slog.Error("failed to load product", "error", err, "slug", chi.URLParam(r, "slug"))
		h.renderer.ServerError(w, r)
		return
	}

	owned := false
	if s := middleware.SessionFrom(ctx); s.SignedIn() {
		owned, err = h.queries.HasCompletedPurchase(ctx, s.UserID(), product.ID)
		logIfError(err, "failed to check purchase", "product_id", product.ID)
	}

	h.render(w, r, "pages/product", render.TemplateData{
		Title:       product.Title,
		Description: uikit.Truncate(render.PlainText(product.Description), 160),
		Breadcrumbs: uikit.Crumbs("Beranda", RouteRoot, "Produk", RouteProducts, product.Title, RouteProducts+"/"+product.Slug),
		Data: map[string]any{
			"Product": product,
			"Owned":   owned,
		},
	})
}

// Contact handles GET /contact.
func (h *FrontendHandler) Contact(w http.ResponseWriter, r *http.Request) {
	form := map[string]string{"consultation_type": model.ConsultationTypeGeneral}
	if s := middleware.SessionFrom(r.Context()); s.SignedIn() {
		form["name"] = s.Profile.FullName
		form["email"] = s.Profile.Email
	}
	h.renderContact(w, r, http.StatusOK, form, nil)
}

func (h *FrontendHandler) renderContact(w http.ResponseWriter, r *http.Request, status int, form, errs map[string]string) {
	data := render.TemplateData{
		Title:       "Hubungi Kami",
		Breadcrumbs: uikit.Crumbs("Beranda", RouteRoot, "Kontak", RouteContact),
		Form:        form,
		Errors:      errs,
		Data:        map[string]any{"Types": model.ConsultationTypes},
	}
	if err := h.renderer.RenderStatus(w, r, status, "pages/contact", data); err != nil {
		slog.Error("failed to render contact page", "error", err)
		h.renderer.ServerError(w, r)
	}
}

// SubmitContact handles POST /contact and stores a consultation request.
func (h *FrontendHandler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectContact) {
		return
	}

	form := formValues(r.FormValue, "name", "email", "phone", "consultation_type", "preferred_date", "message")
	c, errs := parseConsultation(form)
	if len(errs) > 0 {
		h.renderContact(w, r, http.StatusUnprocessableEntity, form, errs)
		return
	}

	s := middleware.SessionFrom(r.Context())
	c.UserID = util.NullStringFromValue(s.UserID())

	id, err := h.queries.CreateConsultation(r.Context(), c, time.Now())
	if err != nil {
		slog.Error("failed to save consultation", "error", err)
		flashError(w, r, h.renderer, redirectContact, "Terjadi kesalahan saat mengirim pesan. Silakan coba lagi.")
		return
	}

	slog.Info("consultation received", "consultation_id", id, "type", c.ConsultationType)
	flashSuccess(w, r, h.renderer, redirectContact, "Terima kasih! Pesan Anda telah terkirim. Kami akan segera menghubungi Anda.")
}

// parseConsultation validates the contact form.
func parseConsultation(form map[string]string) (model.Consultation, map[string]string) {
	errs := make(map[string]string)

	c := model.Consultation{
		Name:             form["name"],
		Email:            strings.ToLower(form["email"]),
		Phone:            form["phone"],
		ConsultationType: form["consultation_type"],
		Message:          form["message"],
	}

	if c.Name == "" {
		errs["name"] = "Nama wajib diisi"
	}
	if !validEmail(c.Email) {
		errs["email"] = "Alamat email tidak valid"
	}
	if c.Message == "" {
		errs["message"] = "Pesan wajib diisi"
	}
	if c.ConsultationType == "" {
		c.ConsultationType = model.ConsultationTypeGeneral
	} else if !model.IsValidConsultationType(c.ConsultationType) {
		errs["consultation_type"] = "Jenis konsultasi tidak valid"
	}

	date, err := util.ParseNullDate(form["preferred_date"])
	if err != nil {
		errs["preferred_date"] = "Tanggal tidak valid (format YYYY-MM-DD)"
	}
	c.PreferredDate = date

	return c, errs
}

// latestPostsQuery selects the newest published posts.
func latestPostsQuery(limit int) *store.Query {
	return store.PostsQuery().
		Where(store.Eq("p.status", model.PostStatusPublished)).
		OrderBy("p.published_at", true).
		OrderBy("p.id", true).
		Limit(limit)
}

// logIfError logs a failed section load. The page still renders and the
// template shows the section's error state.
func logIfError(err error, msg string, args ...any) {
	if err != nil {
		slog.Error(msg, append([]any{"error", err}, args...)...)
	}
}
