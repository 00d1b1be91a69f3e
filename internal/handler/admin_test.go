// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/olegiv/muthawwif-go/internal/analytics"
	"github.com/olegiv/muthawwif-go/internal/cache"
	"github.com/olegiv/muthawwif-go/internal/model"
	"github.com/olegiv/muthawwif-go/internal/render"
	"github.com/olegiv/muthawwif-go/internal/service"
	"github.com/olegiv/muthawwif-go/internal/store"
	"github.com/olegiv/muthawwif-go/internal/testutil"
)

func TestPostsHandler_CreateDerivesSlug(t *testing.T) {
	db := testutil.TestDB(t)
	renderer, sm := testRenderer(t)
	admin := testutil.CreateProfile(t, db, "admin@example.com", model.RoleAdmin)
	h := NewPostsHandler(db, renderer, service.NewEventService(store.New(db)))

	form := url.Values{"title": {"Tips Manasik Umrah"}, "content": {"Isi artikel"}, "status": {model.PostStatusPublished}}
	w := httptest.NewRecorder()
	r := newRequest(t, sm, http.MethodPost, "/admin/posts", form, &admin)
	h.Create(w, r)

	assertRedirect(t, w, redirectAdminPosts)
	assertFlash(t, sm, r, render.FlashSuccess)

	post, err := store.New(db).GetPublishedPostBySlug(context.Background(), "tips-manasik-umrah")
	if err != nil {
		t.Fatalf("GetPublishedPostBySlug: %v", err)
	}
	if post.AuthorID.String != admin.ID {
		t.Errorf("AuthorID = %q, want %q", post.AuthorID.String, admin.ID)
	}
	if !post.PublishedAt.Valid {
		t.Error("published post should have published_at set")
	}
}

func TestPostsHandler_CreateValidation(t *testing.T) {
	db := testutil.TestDB(t)
	renderer, sm := testRenderer(t)
	admin := testutil.CreateProfile(t, db, "admin@example.com", model.RoleAdmin)
	h := NewPostsHandler(db, renderer, service.NewEventService(store.New(db)))

	w := httptest.NewRecorder()
	h.Create(w, newRequest(t, sm, http.MethodPost, "/admin/posts", url.Values{"title": {""}}, &admin))

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}
}

func TestPostsHandler_ToggleAndBulk(t *testing.T) {
	db := testutil.TestDB(t)
	q := store.New(db)
	ctx := context.Background()
	renderer, sm := testRenderer(t)
	admin := testutil.CreateProfile(t, db, "admin@example.com", model.RoleAdmin)
	h := NewPostsHandler(db, renderer, service.NewEventService(q))

	var ids []int64
	for _, slug := range []string{"satu", "dua"} {
		id, err := q.CreatePost(ctx, store.PostParams{Title: slug, Slug: slug, Content: "x", Status: model.PostStatusDraft}, time.Now())
		if err != nil {
			t.Fatalf("CreatePost: %v", err)
		}
		ids = append(ids, id)
	}

	// Toggle publishes a draft.
	w := httptest.NewRecorder()
	r := withURLParams(newRequest(t, sm, http.MethodPost, "/admin/posts/status", nil, &admin), "id", itoa(ids[0]))
	h.ToggleStatus(w, r)
	assertRedirect(t, w, redirectAdminPosts)

	post, err := q.GetPostByID(ctx, ids[0])
	if err != nil {
		t.Fatalf("GetPostByID: %v", err)
	}
	if post.Status != model.PostStatusPublished {
		t.Errorf("status after toggle = %q, want published", post.Status)
	}

	// Bulk publish both, then unpublish both.
	for _, tc := range []struct{ action, want string }{
		{"publish", model.PostStatusPublished},
		{"unpublish", model.PostStatusDraft},
	} {
		w := httptest.NewRecorder()
		form := url.Values{"action": {tc.action}, "ids": {itoa(ids[0]), itoa(ids[1])}}
		r := newRequest(t, sm, http.MethodPost, "/admin/posts/bulk", form, &admin)
		h.Bulk(w, r)
		assertRedirect(t, w, redirectAdminPosts)
		assertFlash(t, sm, r, render.FlashSuccess)

		for _, id := range ids {
			p, err := q.GetPostByID(ctx, id)
			if err != nil {
				t.Fatalf("GetPostByID: %v", err)
			}
			if p.Status != tc.want {
				t.Errorf("%s: post %d status = %q, want %q", tc.action, id, p.Status, tc.want)
			}
		}
	}

	// Unknown actions are rejected.
	w = httptest.NewRecorder()
	r = newRequest(t, sm, http.MethodPost, "/admin/posts/bulk", url.Values{"action": {"archive"}, "ids": {itoa(ids[0])}}, &admin)
	h.Bulk(w, r)
	assertFlash(t, sm, r, render.FlashError)
}

func TestProductsHandler_CreateAndToggle(t *testing.T) {
	db := testutil.TestDB(t)
	q := store.New(db)
	ctx := context.Background()
	renderer, sm := testRenderer(t)
	admin := testutil.CreateProfile(t, db, "admin@example.com", model.RoleAdmin)
	h := NewProductsHandler(db, renderer, service.NewEventService(q))

	form := url.Values{
		"title":        {"Panduan Haji Lengkap"},
		"description":  {"E-book"},
		"price":        {"150000"},
		"product_type": {model.ProductTypeDigital},
		"is_active":    {"on"},
	}
	w := httptest.NewRecorder()
	h.Create(w, newRequest(t, sm, http.MethodPost, "/admin/products", form, &admin))
	assertRedirect(t, w, redirectAdminProducts)

	p, err := q.GetActiveProductBySlug(ctx, "panduan-haji-lengkap")
	if err != nil {
		t.Fatalf("GetActiveProductBySlug: %v", err)
	}
	if p.Price != 150000 {
		t.Errorf("Price = %d, want 150000", p.Price)
	}
	if p.IsFeatured {
		t.Error("new product should not be featured")
	}

	w = httptest.NewRecorder()
	h.ToggleFeatured(w, withURLParams(newRequest(t, sm, http.MethodPost, "/", nil, &admin), "id", itoa(p.ID)))
	assertRedirect(t, w, redirectAdminProducts)

	p, err = q.GetProductByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProductByID: %v", err)
	}
	if !p.IsFeatured {
		t.Error("product should be featured after toggle")
	}
}

func TestUsersHandler_SelfProtection(t *testing.T) {
	db := testutil.TestDB(t)
	q := store.New(db)
	ctx := context.Background()
	renderer, sm := testRenderer(t)
	admin := testutil.CreateProfile(t, db, "admin@example.com", model.RoleAdmin)
	other := testutil.CreateProfile(t, db, "jamaah@example.com", model.RoleUser)
	h := NewUsersHandler(db, renderer, service.NewEventService(q))

	t.Run("own role", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := withURLParams(newRequest(t, sm, http.MethodPost, "/", url.Values{"role": {model.RoleUser}}, &admin), "id", admin.ID)
		h.ChangeRole(w, r)
		assertRedirect(t, w, redirectAdminUsers)
		assertFlash(t, sm, r, render.FlashError)
	})

	t.Run("own deactivation", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := withURLParams(newRequest(t, sm, http.MethodPost, "/", url.Values{"active": {"false"}}, &admin), "id", admin.ID)
		h.SetActive(w, r)
		assertFlash(t, sm, r, render.FlashError)
	})

	t.Run("bulk including self", func(t *testing.T) {
		w := httptest.NewRecorder()
		form := url.Values{"action": {"deactivate"}, "ids": {admin.ID + "," + other.ID}}
		r := newRequest(t, sm, http.MethodPost, "/", form, &admin)
		h.Bulk(w, r)
		assertFlash(t, sm, r, render.FlashError)

		p, err := q.GetProfileByID(ctx, other.ID)
		if err != nil {
			t.Fatalf("GetProfileByID: %v", err)
		}
		if !p.IsActive {
			t.Error("rejected bulk action must not touch other profiles")
		}
	})

	t.Run("promote other", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := withURLParams(newRequest(t, sm, http.MethodPost, "/", url.Values{"role": {model.RoleAdmin}}, &admin), "id", other.ID)
		h.ChangeRole(w, r)
		assertFlash(t, sm, r, render.FlashSuccess)

		p, err := q.GetProfileByID(ctx, other.ID)
		if err != nil {
			t.Fatalf("GetProfileByID: %v", err)
		}
		if p.Role != model.RoleAdmin {
			t.Errorf("Role = %q, want admin", p.Role)
		}
	})

	t.Run("invalid role", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := withURLParams(newRequest(t, sm, http.MethodPost, "/", url.Values{"role": {"superuser"}}, &admin), "id", other.ID)
		h.ChangeRole(w, r)
		assertFlash(t, sm, r, render.FlashError)
	})
}

func TestPurchasesHandler_CompleteCountsSale(t *testing.T) {
	db := testutil.TestDB(t)
	q := store.New(db)
	ctx := context.Background()
	renderer, sm := testRenderer(t)
	admin := testutil.CreateProfile(t, db, "admin@example.com", model.RoleAdmin)
	buyer := testutil.CreateProfile(t, db, "jamaah@example.com", model.RoleUser)
	productID := testutil.CreateProduct(t, db, "Panduan Umrah", "panduan-umrah", 99000)

	purchaseID, err := q.CreatePurchase(ctx, buyer.ID, productID, 99000, "transfer", time.Now())
	if err != nil {
		t.Fatalf("CreatePurchase: %v", err)
	}

	analyticsService := analytics.NewService(q, nil, time.Minute, testutil.TestLoggerSilent())
	h := NewPurchasesHandler(db, renderer, service.NewEventService(q), analyticsService)

	update := func(status string) *http.Request {
		w := httptest.NewRecorder()
		r := withURLParams(newRequest(t, sm, http.MethodPost, "/", url.Values{"status": {status}}, &admin), "id", itoa(purchaseID))
		h.UpdateStatus(w, r)
		assertRedirect(t, w, redirectAdminPurchases)
		return r
	}

	soldCount := func() int64 {
		t.Helper()
		product, err := q.GetProductByID(ctx, productID)
		if err != nil {
			t.Fatalf("GetProductByID: %v", err)
		}
		return product.SoldCount
	}

	assertFlash(t, sm, update(model.PaymentStatusCompleted), render.FlashSuccess)
	if got := soldCount(); got != 1 {
		t.Errorf("SoldCount = %d, want 1", got)
	}

	owned, err := q.HasCompletedPurchase(ctx, buyer.ID, productID)
	if err != nil {
		t.Fatalf("HasCompletedPurchase: %v", err)
	}
	if !owned {
		t.Error("buyer should own the product after completion")
	}

	// A refund takes the sale back and completing again counts it once.
	for _, step := range []struct {
		status string
		want   int64
	}{
		{model.PaymentStatusRefunded, 0},
		{model.PaymentStatusCompleted, 1},
		{model.PaymentStatusFailed, 0},
		{model.PaymentStatusPending, 0},
		{model.PaymentStatusCompleted, 1},
	} {
		assertFlash(t, sm, update(step.status), render.FlashSuccess)
		if got := soldCount(); got != step.want {
			t.Errorf("after %s: SoldCount = %d, want %d", step.status, got, step.want)
		}
	}

	// Repeating the same status changes nothing.
	assertFlash(t, sm, update(model.PaymentStatusCompleted), render.FlashInfo)
	if got := soldCount(); got != 1 {
		t.Errorf("SoldCount = %d after a no-op update, want 1", got)
	}
	assertFlash(t, sm, update("refunded-maybe"), render.FlashError)
}

func TestConsultationsHandler_UpdateStatus(t *testing.T) {
	db := testutil.TestDB(t)
	q := store.New(db)
	ctx := context.Background()
	renderer, sm := testRenderer(t)
	admin := testutil.CreateProfile(t, db, "admin@example.com", model.RoleAdmin)

	id, err := q.CreateConsultation(ctx, model.Consultation{
		Name: "Budi", Email: "budi@example.com", Message: "Halo", ConsultationType: model.ConsultationTypeGeneral,
	}, time.Now())
	if err != nil {
		t.Fatalf("CreateConsultation: %v", err)
	}

	h := NewConsultationsHandler(db, renderer)
	status := model.ValidConsultationStatuses[len(model.ValidConsultationStatuses)-1]

	w := httptest.NewRecorder()
	r := withURLParams(newRequest(t, sm, http.MethodPost, "/", url.Values{"status": {status}}, &admin), "id", itoa(id))
	h.UpdateStatus(w, r)
	assertRedirect(t, w, redirectAdminConsultations)
	assertFlash(t, sm, r, render.FlashSuccess)

	w = httptest.NewRecorder()
	r = withURLParams(newRequest(t, sm, http.MethodPost, "/", url.Values{"status": {status}}, &admin), "id", "9999")
	h.UpdateStatus(w, r)
	assertFlash(t, sm, r, render.FlashError)
}

func TestAdminHandler_AnalyticsJSON(t *testing.T) {
	db := testutil.TestDB(t)
	q := store.New(db)
	renderer, sm := testRenderer(t)
	admin := testutil.CreateProfile(t, db, "admin@example.com", model.RoleAdmin)

	h := NewAdminHandler(db, renderer, analytics.NewService(q, nil, time.Minute, testutil.TestLoggerSilent()))

	w := httptest.NewRecorder()
	h.AnalyticsJSON(w, newRequest(t, sm, http.MethodGet, "/admin/analytics.json?range=7", nil, &admin))
	resp := assertJSONResponse(t, w, http.StatusOK, true)
	data, _ := resp["data"].(map[string]any)
	if _, ok := data["report"]; !ok {
		t.Errorf("data should contain report, got %v", resp)
	}
	if _, ok := data["empty"].(bool); !ok {
		t.Errorf("empty = %v, want a bool", data["empty"])
	}

	w = httptest.NewRecorder()
	h.Dashboard(w, newRequest(t, sm, http.MethodGet, "/admin", nil, &admin))
	if w.Code != http.StatusOK {
		t.Errorf("dashboard status = %d, want 200", w.Code)
	}
}

func TestSettingsHandler_Save(t *testing.T) {
	db := testutil.TestDB(t)
	q := store.New(db)
	renderer, sm := testRenderer(t)
	admin := testutil.CreateProfile(t, db, "admin@example.com", model.RoleAdmin)

	settingsCache := cache.NewSettingsCache(cache.NewSimpleMemoryCache(time.Minute), q)
	h := NewSettingsHandler(db, renderer, settingsCache, service.NewEventService(q))
	ctx := context.Background()

	// Prime the cache so the save must invalidate it.
	if _, err := settingsCache.Public(ctx); err != nil {
		t.Fatalf("Public: %v", err)
	}

	field := model.SettingFields[model.SettingContactInfo][0]
	w := httptest.NewRecorder()
	r := withURLParams(newRequest(t, sm, http.MethodPost, "/", url.Values{field: {"  nilai baru  "}}, &admin), "key", model.SettingContactInfo)
	h.Save(w, r)
	assertRedirect(t, w, redirectAdminSettings+"#"+model.SettingContactInfo)

	settings, err := settingsCache.Public(ctx)
	if err != nil {
		t.Fatalf("Public: %v", err)
	}
	if got := settings.Get(model.SettingContactInfo, field); got != "nilai baru" {
		t.Errorf("%s.%s = %q, want %q", model.SettingContactInfo, field, got, "nilai baru")
	}

	w = httptest.NewRecorder()
	r = withURLParams(newRequest(t, sm, http.MethodPost, "/", url.Values{}, &admin), "key", "unknown")
	h.Save(w, r)
	assertFlash(t, sm, r, render.FlashError)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
