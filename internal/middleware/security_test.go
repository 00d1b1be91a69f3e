// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// headersFor runs one GET for path through SecurityHeaders and returns the
// response headers.
func headersFor(cfg SecurityHeadersConfig, path string) http.Header {
	h := SecurityHeaders(cfg)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec.Header()
}

func TestSecurityHeaders_Production(t *testing.T) {
	got := headersFor(DefaultSecurityHeadersConfig(false), "/products/umrah-reguler")

	want := map[string]string{
		"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
		"X-Frame-Options":           "SAMEORIGIN",
		"X-Content-Type-Options":    "nosniff",
		"Referrer-Policy":           "strict-origin-when-cross-origin",
	}
	for name, value := range want {
		if got.Get(name) != value {
			t.Errorf("%s = %q, want %q", name, got.Get(name), value)
		}
	}
	if !strings.HasPrefix(got.Get("Content-Security-Policy"), "default-src 'self'; script-src 'self'; ") {
		t.Errorf("CSP = %q", got.Get("Content-Security-Policy"))
	}
	if !strings.Contains(got.Get("Permissions-Policy"), "camera=()") {
		t.Errorf("Permissions-Policy = %q", got.Get("Permissions-Policy"))
	}
}

func TestSecurityHeaders_Development(t *testing.T) {
	got := headersFor(DefaultSecurityHeadersConfig(true), "/")

	if hsts := got.Get("Strict-Transport-Security"); hsts != "" {
		t.Errorf("development should not send HSTS, got %q", hsts)
	}
	if csp := got.Get("Content-Security-Policy"); !strings.Contains(csp, "script-src 'self' 'unsafe-inline'") {
		t.Errorf("development CSP should allow inline scripts: %q", csp)
	}
}

func TestSecurityHeaders_ExcludePaths(t *testing.T) {
	cfg := DefaultSecurityHeadersConfig(false)
	cfg.ExcludePaths = []string{"/api/"}

	for path, want := range map[string]bool{
		"/":                     true,
		"/admin/consultations":  true,
		"/api/v1/products":      false,
		"/api/v1/auth/session":  false,
		"/apiary-not-the-api/x": true,
	} {
		if has := headersFor(cfg, path).Get("Content-Security-Policy") != ""; has != want {
			t.Errorf("%s: CSP present = %v, want %v", path, has, want)
		}
	}
}

func TestSecurityHeaders_HSTSFlags(t *testing.T) {
	tests := []struct {
		name string
		cfg  SecurityHeadersConfig
		want string
	}{
		{"max-age only", SecurityHeadersConfig{HSTSMaxAge: 600}, "max-age=600"},
		{"preload", SecurityHeadersConfig{HSTSMaxAge: 63072000, HSTSIncludeSubDomains: true, HSTSPreload: true},
			"max-age=63072000; includeSubDomains; preload"},
		{"disabled", SecurityHeadersConfig{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := headersFor(tt.cfg, "/").Get("Strict-Transport-Security"); got != tt.want {
				t.Errorf("HSTS = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildCSP_Order(t *testing.T) {
	got := buildCSP(map[string]string{
		"worker-src":  "'self'",
		"img-src":     "'self' data:",
		"default-src": "'self'",
		"media-src":   "https://www.youtube-nocookie.com",
	})
	want := "default-src 'self'; img-src 'self' data:; media-src https://www.youtube-nocookie.com; worker-src 'self'"
	if got != want {
		t.Errorf("buildCSP() = %q, want %q", got, want)
	}
}

func TestBuildPermissionsPolicy(t *testing.T) {
	got := buildPermissionsPolicy(map[string]string{"usb": "()", "camera": "()", "fullscreen": "(self)"})
	if want := "camera=(), fullscreen=(self), usb=()"; got != want {
		t.Errorf("buildPermissionsPolicy() = %q, want %q", got, want)
	}
}

func TestDefaultSecurityHeadersConfig_Embeds(t *testing.T) {
	csp := DefaultSecurityHeadersConfig(false).ContentSecurityPolicy
	for _, want := range []string{
		"frame-src https://www.youtube-nocookie.com https://www.google.com",
		"form-action 'self' https://wa.me",
		"object-src 'none'",
	} {
		if !strings.Contains(csp, want) {
			t.Errorf("CSP %q missing %q", csp, want)
		}
	}
}
