// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/muthawwif-go/internal/middleware"
	"github.com/olegiv/muthawwif-go/internal/model"
	"github.com/olegiv/muthawwif-go/internal/render"
	"github.com/olegiv/muthawwif-go/internal/session"
)

var testPages = map[string][]string{
	"pages": {"home", "about", "blog", "post", "products", "product", "contact", "error"},
	"auth":  {"login", "register", "profile"},
	"admin": {
		"dashboard", "posts", "post_form", "products", "product_form", "users", "analytics",
		"settings", "consultations", "purchases", "events", "cache", "scheduler",
	},
}

// testTemplates returns a minimal template tree with one page per handler
// template. Each page prints its title.
func testTemplates() fstest.MapFS {
	fsys := fstest.MapFS{
		"layouts/base.html":   {Data: []byte(`{{define "base"}}<title>{{.Title}}</title>{{template "content" .}}{{end}}`)},
		"layouts/public.html": {Data: []byte(`{{define "layout"}}public{{end}}`)},
		"layouts/admin.html":  {Data: []byte(`{{define "layout"}}admin{{end}}`)},
	}
	for dir, names := range testPages {
		for _, name := range names {
			fsys[dir+"/"+name+".html"] = &fstest.MapFile{Data: []byte(`{{define "content"}}<h1>{{.Title}}</h1>{{end}}`)}
		}
	}
	return fsys
}

// testRenderer creates a renderer over testTemplates with an in-memory
// session manager.
func testRenderer(t *testing.T) (*render.Renderer, *scs.SessionManager) {
	t.Helper()

	sm := scs.New()
	r, err := render.New(render.Config{TemplatesFS: testTemplates(), SessionManager: sm})
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	return r, sm
}

// newRequest builds a request with a loaded session. A non-nil form is
// sent url-encoded; a non-nil profile is attached as the signed-in user.
func newRequest(t *testing.T, sm *scs.SessionManager, method, target string, form url.Values, profile *model.Profile) *http.Request {
	t.Helper()

	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set(HeaderContentType, "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	ctx, err := sm.Load(req.Context(), "")
	if err != nil {
		t.Fatalf("loading session: %v", err)
	}
	if profile != nil {
		ctx = middleware.WithSession(ctx, middleware.Session{Profile: profile})
	}
	return req.WithContext(ctx)
}

// withURLParams attaches chi route parameters given as key, value pairs.
func withURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// flashOf returns the flash message and type stored during the request.
func flashOf(sm *scs.SessionManager, r *http.Request) (string, string) {
	return sm.GetString(r.Context(), session.KeyFlash), sm.GetString(r.Context(), session.KeyFlashType)
}

// assertRedirect checks for a 303 to the given location.
func assertRedirect(t *testing.T, w *httptest.ResponseRecorder, location string) {
	t.Helper()
	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	if got := w.Header().Get("Location"); got != location {
		t.Errorf("Location = %q, want %q", got, location)
	}
}

// assertFlash checks the flash type set by the handler.
func assertFlash(t *testing.T, sm *scs.SessionManager, r *http.Request, wantType string) string {
	t.Helper()
	msg, typ := flashOf(sm, r)
	if typ != wantType {
		t.Errorf("flash type = %q (%q), want %q", typ, msg, wantType)
	}
	return msg
}
