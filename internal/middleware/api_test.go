// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/olegiv/muthawwif-go/internal/auth"
	"github.com/olegiv/muthawwif-go/internal/model"
	"github.com/olegiv/muthawwif-go/internal/store"
	"github.com/olegiv/muthawwif-go/internal/testutil"
)

const testTokenSecret = "test-secret-that-is-long-enough-for-hs256"

// simpleOKHandler returns an http.Handler that writes 200 OK.
var simpleOKHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

// executeAuthRequest runs handler with the given Authorization header.
func executeAuthRequest(handler http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/session", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// captureSession returns a handler that stores the request session in *got.
func captureSession(got *Session) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = SessionFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func decodeAPIError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body %q: %v", rr.Body.String(), err)
	}
	if body.Success {
		t.Error("success = true, want false")
	}
	return body.Error
}

func TestWriteAPIError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteAPIError(rr, http.StatusBadRequest, "bad input")

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if msg := decodeAPIError(t, rr); msg != "bad input" {
		t.Errorf("error = %q, want %q", msg, "bad input")
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"", "", false},
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"Bearer   abc  ", "abc", true},
		{"Basic abc", "", false},
		{"Bearer", "", false},
		{"Bearer ", "", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		got, ok := bearerToken(req)
		if got != tt.want || ok != tt.ok {
			t.Errorf("bearerToken(%q) = %q, %v; want %q, %v", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}

func TestBearerAuth_Rejections(t *testing.T) {
	db := testutil.TestDB(t)
	queries := store.New(db)
	issuer := auth.NewTokenIssuer(testTokenSecret, time.Hour)
	otherIssuer := auth.NewTokenIssuer("a-completely-different-signing-secret", time.Hour)

	inactive := testutil.CreateProfile(t, db, "inactive@example.com", model.RoleUser)
	if _, err := queries.SetProfilesActive(context.Background(), []string{inactive.ID}, false, time.Now()); err != nil {
		t.Fatalf("SetProfilesActive: %v", err)
	}
	inactiveToken, _, err := issuer.Issue(inactive.ID, inactive.Role)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	forged, _, err := otherIssuer.Issue(inactive.ID, model.RoleAdmin)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	ghost, _, err := issuer.Issue("00000000-0000-0000-0000-000000000000", model.RoleUser)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tests := []struct {
		name    string
		header  string
		wantMsg string
	}{
		{"missing header", "", "Missing Authorization header"},
		{"wrong scheme", "Basic dXNlcjpwYXNz", "Invalid Authorization header format. Use: Bearer <token>"},
		{"garbage token", "Bearer not-a-jwt", "Invalid or expired token"},
		{"foreign signature", "Bearer " + forged, "Invalid or expired token"},
		{"unknown profile", "Bearer " + ghost, "Invalid or expired token"},
		{"inactive profile", "Bearer " + inactiveToken, "Account is deactivated"},
	}

	handler := BearerAuth(issuer, queries)(simpleOKHandler)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := executeAuthRequest(handler, tt.header)
			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
			}
			if msg := decodeAPIError(t, rr); msg != tt.wantMsg {
				t.Errorf("error = %q, want %q", msg, tt.wantMsg)
			}
		})
	}
}

func TestBearerAuth_ValidToken(t *testing.T) {
	db := testutil.TestDB(t)
	queries := store.New(db)
	issuer := auth.NewTokenIssuer(testTokenSecret, time.Hour)

	profile := testutil.CreateProfile(t, db, "owner@example.com", model.RoleOwner)
	token, _, err := issuer.Issue(profile.ID, profile.Role)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	var got Session
	rr := executeAuthRequest(BearerAuth(issuer, queries)(captureSession(&got)), "Bearer "+token)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if got.UserID() != profile.ID {
		t.Errorf("UserID = %q, want %q", got.UserID(), profile.ID)
	}
	if got.Source != SourceBearer {
		t.Errorf("Source = %q, want %q", got.Source, SourceBearer)
	}
	if !got.IsOwner() || !got.CanManageContent() || got.CanManageUsers() {
		t.Errorf("owner permissions wrong: %+v", got.Profile)
	}
}

func TestBearerAuth_RoleComesFromDatabase(t *testing.T) {
	db := testutil.TestDB(t)
	queries := store.New(db)
	issuer := auth.NewTokenIssuer(testTokenSecret, time.Hour)

	profile := testutil.CreateProfile(t, db, "user@example.com", model.RoleUser)
	// A token minted with a stale role must not grant more than the stored role.
	token, _, err := issuer.Issue(profile.ID, model.RoleAdmin)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	var got Session
	executeAuthRequest(BearerAuth(issuer, queries)(captureSession(&got)), "Bearer "+token)
	if got.IsAdmin() {
		t.Error("session should use the stored role, not the token claim")
	}
}

func TestOptionalBearerAuth(t *testing.T) {
	db := testutil.TestDB(t)
	queries := store.New(db)
	issuer := auth.NewTokenIssuer(testTokenSecret, time.Hour)

	profile := testutil.CreateProfile(t, db, "admin@example.com", model.RoleAdmin)
	token, _, err := issuer.Issue(profile.ID, profile.Role)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tests := []struct {
		name       string
		header     string
		wantSigned bool
	}{
		{"no header", "", false},
		{"invalid token", "Bearer nope", false},
		{"valid token", "Bearer " + token, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Session
			rr := executeAuthRequest(OptionalBearerAuth(issuer, queries)(captureSession(&got)), tt.header)
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rr.Code)
			}
			if got.SignedIn() != tt.wantSigned {
				t.Errorf("SignedIn = %v, want %v", got.SignedIn(), tt.wantSigned)
			}
		})
	}
}

func TestRateLimiter_Middleware(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	handler := rl.Middleware()(simpleOKHandler)

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/posts", nil)
		req.RemoteAddr = ip + ":1234"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	for i := range 2 {
		if code := send("10.0.0.1"); code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, code)
		}
	}
	if code := send("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Errorf("third request: status = %d, want 429", code)
	}
	if code := send("10.0.0.2"); code != http.StatusOK {
		t.Errorf("other IP: status = %d, want 200", code)
	}
}

func TestRateLimiter_KeysBySession(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	handler := rl.Middleware()(simpleOKHandler)

	send := func(userID string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/purchases", nil)
		req.RemoteAddr = "10.0.0.9:1234"
		if userID != "" {
			req = req.WithContext(WithSession(req.Context(), Session{
				Profile: &model.Profile{ID: userID, Role: model.RoleUser},
				Source:  SourceBearer,
			}))
		}
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	if code := send("alice"); code != http.StatusOK {
		t.Fatalf("alice: status = %d", code)
	}
	if code := send("bob"); code != http.StatusOK {
		t.Errorf("bob shares alice's IP but should have a separate budget: %d", code)
	}
	if code := send("alice"); code != http.StatusTooManyRequests {
		t.Errorf("alice second request: status = %d, want 429", code)
	}
	if code := send(""); code != http.StatusOK {
		t.Errorf("anonymous caller: status = %d, want 200", code)
	}
}

func TestRateLimiter_HTMLMiddleware(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	handler := rl.HTMLMiddleware()(simpleOKHandler)

	req := httptest.NewRequest(http.MethodPost, "/contact", nil)
	req.Header.Set("X-Real-IP", "203.0.113.5")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("first: status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("second: status = %d, want 429", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/plain; charset=utf-8" {
		t.Errorf("Content-Type = %q, want plain text", ct)
	}
}

func TestRateLimiter_Prune(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	for _, key := range []string{"a", "b", "c"} {
		rl.cache.get(key)
	}

	if rl.Prune(5) {
		t.Error("Prune(5) with 3 entries should not clear")
	}
	if rl.cache.size() != 3 {
		t.Errorf("size = %d, want 3", rl.cache.size())
	}
	if !rl.Prune(2) {
		t.Error("Prune(2) with 3 entries should clear")
	}
	if rl.cache.size() != 0 {
		t.Errorf("size after prune = %d, want 0", rl.cache.size())
	}
}
