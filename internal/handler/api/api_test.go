// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/muthawwif-go/internal/auth"
	"github.com/olegiv/muthawwif-go/internal/cache"
	"github.com/olegiv/muthawwif-go/internal/middleware"
	"github.com/olegiv/muthawwif-go/internal/model"
	"github.com/olegiv/muthawwif-go/internal/service"
	"github.com/olegiv/muthawwif-go/internal/store"
	"github.com/olegiv/muthawwif-go/internal/testutil"
)

const browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

type testAPI struct {
	db     *store.DB
	issuer *auth.TokenIssuer
	h      *Handler
	router chi.Router
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	db := testutil.TestDB(t)
	queries := store.New(db)
	events := service.NewEventService(queries)
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)

	h := NewHandler(Config{
		DB:       db,
		Accounts: service.NewAccountService(queries, events, nil, nil),
		Issuer:   issuer,
		Settings: cache.NewSettingsCache(cache.NewSimpleMemoryCache(time.Minute), queries),
		Events:   events,
	})

	r := chi.NewRouter()
	r.Get("/", h.Status)
	r.Post("/auth/signin", h.SignIn)
	r.Post("/auth/signup", h.SignUp)
	r.With(middleware.BearerAuth(issuer, queries)).Get("/auth/session", h.Session)
	r.Get("/posts", h.Posts)
	r.Get("/posts/{slug}", h.Post)
	r.Post("/posts/{id}/views", h.RecordPostView)
	r.Get("/products", h.Products)
	r.Get("/products/{slug}", h.Product)
	r.Get("/categories", h.Categories)
	r.Get("/settings/public", h.PublicSettings)
	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerAuth(issuer, queries))
		r.Get("/purchases", h.MyPurchases)
		r.Get("/purchases/check/{productID}", h.CheckPurchase)
		r.Post("/purchases", h.CreatePurchase)
	})

	return &testAPI{db: db, issuer: issuer, h: h, router: r}
}

func (a *testAPI) do(t *testing.T, method, target, body string, header http.Header) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, target, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[http.CanonicalHeaderKey(k)] = v
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var decoded map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded), "body: %s", w.Body.String())
	}
	return w, decoded
}

func (a *testAPI) bearer(t *testing.T, p model.Profile) http.Header {
	t.Helper()
	token, _, err := a.issuer.Issue(p.ID, p.Role)
	require.NoError(t, err)
	return http.Header{"Authorization": {"Bearer " + token}}
}

func (a *testAPI) createPost(t *testing.T, title, slug, status string) int64 {
	t.Helper()
	id, err := store.New(a.db).CreatePost(context.Background(), store.PostParams{
		Title:   title,
		Slug:    slug,
		Content: "Isi " + title,
		Excerpt: "Ringkasan " + title,
		Status:  status,
	}, time.Now())
	require.NoError(t, err)
	return id
}

func TestStatus(t *testing.T) {
	a := newTestAPI(t)
	w, body := a.do(t, http.MethodGet, "/", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "v1", body["version"])
}

func TestSignUpAndSession(t *testing.T) {
	a := newTestAPI(t)

	w, body := a.do(t, http.MethodPost, "/auth/signup",
		`{"full_name":"Ahmad Fauzi","email":"Ahmad@Example.com","password":"rahasia123"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Bearer", body["token_type"])

	token, _ := body["access_token"].(string)
	require.NotEmpty(t, token)
	profile, _ := body["profile"].(map[string]any)
	assert.Equal(t, "ahmad@example.com", profile["email"])
	assert.NotContains(t, w.Body.String(), "password_hash")

	w, body = a.do(t, http.MethodGet, "/auth/session", "", http.Header{"Authorization": {"Bearer " + token}})
	require.Equal(t, http.StatusOK, w.Code)
	perms, _ := body["permissions"].(map[string]any)
	assert.Equal(t, false, perms["is_admin"])
	assert.Equal(t, false, perms["can_manage_content"])
}

func TestSignUpValidation(t *testing.T) {
	a := newTestAPI(t)
	testutil.CreateProfile(t, a.db, "taken@example.com", model.RoleUser)

	tests := []struct {
		name     string
		body     string
		wantCode int
		field    string
	}{
		{"missing name", `{"email":"a@example.com","password":"rahasia123"}`, http.StatusUnprocessableEntity, "full_name"},
		{"bad email", `{"full_name":"A","email":"nope","password":"rahasia123"}`, http.StatusUnprocessableEntity, "email"},
		{"short password", `{"full_name":"A","email":"a@example.com","password":"123"}`, http.StatusUnprocessableEntity, "password"},
		{"email taken", `{"full_name":"A","email":"taken@example.com","password":"rahasia123"}`, http.StatusConflict, ""},
		{"unknown field", `{"full_name":"A","email":"a@example.com","password":"rahasia123","role":"admin"}`, http.StatusBadRequest, ""},
		{"malformed", `{`, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := a.do(t, http.MethodPost, "/auth/signup", tt.body, nil)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			assert.Equal(t, false, body["success"])
			if tt.field != "" {
				fields, _ := body["fields"].(map[string]any)
				assert.Contains(t, fields, tt.field)
			}
		})
	}
}

func TestSignIn(t *testing.T) {
	a := newTestAPI(t)
	testutil.CreateProfile(t, a.db, "jamaah@example.com", model.RoleUser)

	w, body := a.do(t, http.MethodPost, "/auth/signin",
		`{"email":"JAMAAH@example.com","password":"`+testutil.TestPassword+`"}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, body["access_token"])

	w, _ = a.do(t, http.MethodPost, "/auth/signin", `{"email":"jamaah@example.com","password":"salah"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = a.do(t, http.MethodPost, "/auth/signin", `{"email":"jamaah@example.com"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionRequiresToken(t *testing.T) {
	a := newTestAPI(t)

	w, body := a.do(t, http.MethodGet, "/auth/session", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, false, body["success"])

	w, _ = a.do(t, http.MethodGet, "/auth/session", "", http.Header{"Authorization": {"Bearer garbage"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPostsListing(t *testing.T) {
	a := newTestAPI(t)
	a.createPost(t, "Panduan Ihram", "panduan-ihram", model.PostStatusPublished)
	a.createPost(t, "Doa Tawaf", "doa-tawaf", model.PostStatusPublished)
	a.createPost(t, "Draf Rahasia", "draf-rahasia", model.PostStatusDraft)

	w, body := a.do(t, http.MethodGet, "/posts?gen=1", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(1), body["gen"])
	assert.Nil(t, body["stale"])

	data, _ := body["data"].(map[string]any)
	assert.Equal(t, float64(2), data["total"])
	items, _ := data["items"].([]any)
	require.Len(t, items, 2)
	first, _ := items[0].(map[string]any)
	assert.NotEmpty(t, first["published_at"])
	assert.Nil(t, first["content"])

	w, body = a.do(t, http.MethodGet, "/posts?gen=2&search=ihram", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data, _ = body["data"].(map[string]any)
	assert.Equal(t, float64(1), data["total"])
	state, _ := body["state"].(map[string]any)
	assert.Equal(t, []any{"ihram"}, state["search"])
}

func TestListingStaleGeneration(t *testing.T) {
	a := newTestAPI(t)
	a.createPost(t, "Panduan Ihram", "panduan-ihram", model.PostStatusPublished)
	client := http.Header{ClientIDHeader: {"tab-1"}}

	w, body := a.do(t, http.MethodGet, "/posts?gen=5", "", client)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(5), body["gen"])

	w, body = a.do(t, http.MethodGet, "/posts?gen=3", "", client)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["stale"])
	assert.Equal(t, float64(3), body["gen"])
	assert.Nil(t, body["data"])

	// Another tab is tracked separately.
	w, body = a.do(t, http.MethodGet, "/posts?gen=3", "", http.Header{ClientIDHeader: {"tab-2"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, body["stale"])

	// No gen takes the next generation for the client.
	_, body = a.do(t, http.MethodGet, "/posts", "", client)
	assert.Equal(t, float64(6), body["gen"])
}

func TestClientKey(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/posts", nil)
	r.RemoteAddr = "203.0.113.7:5000"
	key, identified := clientKey(r, "posts")
	assert.Equal(t, "posts:203.0.113.7", key)
	assert.False(t, identified)

	r.Header.Set(ClientIDHeader, "tab-9")
	key, identified = clientKey(r, "posts")
	assert.Equal(t, "posts:tab-9", key)
	assert.True(t, identified)

	r.Header.Set(ClientIDHeader, strings.Repeat("x", maxClientIDLen+1))
	key, identified = clientKey(r, "posts")
	assert.Equal(t, "posts:203.0.113.7", key)
	assert.False(t, identified)
}

func TestListingSharedIPIgnoresClientGen(t *testing.T) {
	a := newTestAPI(t)
	a.createPost(t, "Panduan Ihram", "panduan-ihram", model.PostStatusPublished)

	// An earlier browser behind the same NAT has gone far ahead.
	for range 5 {
		w, body := a.do(t, http.MethodGet, "/posts?gen=40", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, body["stale"])
	}

	// A freshly opened page starts again at gen=1 and still gets rows.
	w, body := a.do(t, http.MethodGet, "/posts?gen=1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, body["stale"])
	assert.Equal(t, float64(6), body["gen"])
	data, _ := body["data"].(map[string]any)
	assert.Equal(t, float64(1), data["total"])
}

func TestListingHugeGenDoesNotWedgeClient(t *testing.T) {
	a := newTestAPI(t)
	a.createPost(t, "Panduan Ihram", "panduan-ihram", model.PostStatusPublished)
	client := http.Header{ClientIDHeader: {"tab-1"}}

	_, body := a.do(t, http.MethodGet, "/posts?gen=18446744073709551615", "", client)
	assert.Equal(t, float64(1), body["gen"])

	for want := 2; want <= 4; want++ {
		_, body = a.do(t, http.MethodGet, "/posts", "", client)
		assert.Nil(t, body["stale"])
		assert.Equal(t, float64(want), body["gen"])
	}
}

func TestParseGen(t *testing.T) {
	tests := []struct {
		query string
		want  uint64
	}{
		{"", 0},
		{"gen=7", 7},
		{"gen=-1", 0},
		{"gen=abc", 0},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/posts?"+tt.query, nil)
		assert.Equal(t, tt.want, parseGen(r), tt.query)
	}
}

func TestProductsListingAndDetail(t *testing.T) {
	a := newTestAPI(t)
	testutil.CreateProduct(t, a.db, "Ebook Manasik", "ebook-manasik", 99000)
	testutil.CreateProduct(t, a.db, "Kelas Umrah", "kelas-umrah", 450000)

	w, body := a.do(t, http.MethodGet, "/products?sortBy=price_high", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data, _ := body["data"].(map[string]any)
	items, _ := data["items"].([]any)
	require.Len(t, items, 2)
	first, _ := items[0].(map[string]any)
	assert.Equal(t, "kelas-umrah", first["slug"])

	w, body = a.do(t, http.MethodGet, "/products/ebook-manasik", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	product, _ := body["data"].(map[string]any)
	assert.Equal(t, float64(99000), product["price"])

	w, _ = a.do(t, http.MethodGet, "/products/tidak-ada", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPostDetailAndViews(t *testing.T) {
	a := newTestAPI(t)
	id := a.createPost(t, "Panduan Ihram", "panduan-ihram", model.PostStatusPublished)
	draftID := a.createPost(t, "Draf", "draf", model.PostStatusDraft)

	w, body := a.do(t, http.MethodGet, "/posts/panduan-ihram", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	post, _ := body["data"].(map[string]any)
	assert.Equal(t, "Isi Panduan Ihram", post["content"])

	w, _ = a.do(t, http.MethodGet, "/posts/draf", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	target := "/posts/" + itoa(id) + "/views"
	w, body = a.do(t, http.MethodPost, target, "", http.Header{"User-Agent": {browserUA}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, body["counted"])
	assert.Equal(t, float64(1), body["view_count"])

	w, body = a.do(t, http.MethodPost, target, "", http.Header{"User-Agent": {"Googlebot/2.1 (+http://www.google.com/bot.html)"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["counted"])
	assert.Equal(t, float64(1), body["view_count"])

	w, _ = a.do(t, http.MethodPost, "/posts/"+itoa(draftID)+"/views", "", http.Header{"User-Agent": {browserUA}})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = a.do(t, http.MethodPost, "/posts/abc/views", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCategoriesAndSettings(t *testing.T) {
	a := newTestAPI(t)
	testutil.CreateCategory(t, a.db, "Umrah", "umrah")

	w, body := a.do(t, http.MethodGet, "/categories", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	cats, _ := body["data"].([]any)
	require.Len(t, cats, 1)

	w, body = a.do(t, http.MethodGet, "/settings/public", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, w.Header().Get("Cache-Control"))
}

func TestPurchaseFlow(t *testing.T) {
	a := newTestAPI(t)
	user := testutil.CreateProfile(t, a.db, "jamaah@example.com", model.RoleUser)
	productID := testutil.CreateProduct(t, a.db, "Ebook Manasik", "ebook-manasik", 99000)
	hdr := a.bearer(t, user)

	w, body := a.do(t, http.MethodPost, "/purchases", `{"product_id":`+itoa(productID)+`}`, hdr)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created, _ := body["data"].(map[string]any)
	assert.Equal(t, model.PaymentStatusPending, created["payment_status"])
	assert.Equal(t, float64(99000), created["amount"])
	assert.Equal(t, PaymentMethodBankTransfer, created["payment_method"])

	// Pending purchases are not ownership.
	w, body = a.do(t, http.MethodGet, "/purchases/check/"+itoa(productID), "", hdr)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["purchased"])

	_, body = a.do(t, http.MethodGet, "/purchases", "", hdr)
	assert.Empty(t, body["data"])

	purchaseID := int64(created["id"].(float64))
	require.NoError(t, store.New(a.db).UpdatePurchaseStatus(context.Background(), purchaseID, model.PaymentStatusCompleted, time.Now()))

	_, body = a.do(t, http.MethodGet, "/purchases/check/"+itoa(productID), "", hdr)
	assert.Equal(t, true, body["purchased"])

	_, body = a.do(t, http.MethodGet, "/purchases", "", hdr)
	list, _ := body["data"].([]any)
	require.Len(t, list, 1)

	w, _ = a.do(t, http.MethodPost, "/purchases", `{"product_id":`+itoa(productID)+`}`, hdr)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreatePurchaseValidation(t *testing.T) {
	a := newTestAPI(t)
	user := testutil.CreateProfile(t, a.db, "jamaah@example.com", model.RoleUser)
	hdr := a.bearer(t, user)

	inactiveID, err := store.New(a.db).CreateProduct(context.Background(), store.ProductParams{
		Title: "Arsip", Slug: "arsip", Price: 1000, ProductType: model.ProductTypeDigital,
		CategoryID: sql.NullInt64{},
	}, time.Now())
	require.NoError(t, err)

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"missing product", `{}`, http.StatusUnprocessableEntity},
		{"bad method", `{"product_id":1,"payment_method":"cash"}`, http.StatusUnprocessableEntity},
		{"unknown product", `{"product_id":9999}`, http.StatusNotFound},
		{"inactive product", `{"product_id":` + itoa(inactiveID) + `}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := a.do(t, http.MethodPost, "/purchases", tt.body, hdr)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
		})
	}

	w, _ := a.do(t, http.MethodPost, "/purchases", `{"product_id":1}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = a.do(t, http.MethodGet, "/purchases/check/abc", "", hdr)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
