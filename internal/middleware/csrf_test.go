// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
)

var testCSRFKey = []byte("12345678901234567890123456789012")

func TestTrustedOrigins(t *testing.T) {
	tests := []struct {
		name  string
		isDev bool
		extra []string
		want  []string
	}{
		{"production", false, nil, nil},
		{"development", true, nil, []string{"localhost:8080", "127.0.0.1:8080"}},
		{"production with proxy host", false, []string{" muthawwif.id ", ""}, []string{"muthawwif.id"}},
		{"development with extra", true, []string{"umrah.test:8443"}, []string{"localhost:8080", "127.0.0.1:8080", "umrah.test:8443"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrustedOrigins(tt.isDev, 8080, tt.extra)
			if !slices.Equal(got, tt.want) {
				t.Errorf("TrustedOrigins() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCSRF_CrossSitePost(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := SkipCSRF("/api/")(CSRF(testCSRFKey, CSRFOptions{})(ok))

	tests := []struct {
		name      string
		method    string
		path      string
		fetchSite string
		want      int
	}{
		{"cross-site consultation form", http.MethodPost, "/contact", "cross-site", http.StatusForbidden},
		{"same-origin consultation form", http.MethodPost, "/contact", "same-origin", http.StatusOK},
		{"cross-site page view", http.MethodGet, "/blog", "cross-site", http.StatusOK},
		{"cross-site api sign-in", http.MethodPost, "/api/v1/auth/signin", "cross-site", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "https://muthawwif.id"+tt.path, nil)
			req.Header.Set("Sec-Fetch-Site", tt.fetchSite)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestCSRF_OnFailure(t *testing.T) {
	called := false
	h := CSRF(testCSRFKey, CSRFOptions{
		OnFailure: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			called = true
			w.WriteHeader(http.StatusTeapot)
		}),
	})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("protected handler should not run")
	}))

	req := httptest.NewRequest(http.MethodPost, "https://muthawwif.id/login", nil)
	req.Header.Set("Sec-Fetch-Site", "cross-site")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if !called {
		t.Error("OnFailure was not called")
	}
	if rr.Code != http.StatusTeapot {
		t.Errorf("status = %d, want 418", rr.Code)
	}
}
