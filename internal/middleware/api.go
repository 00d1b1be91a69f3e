// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/olegiv/muthawwif-go/internal/auth"
	"github.com/olegiv/muthawwif-go/internal/store"
	"github.com/olegiv/muthawwif-go/internal/util"
)

// WriteAPIError writes the JSON error envelope used by /api/v1.
func WriteAPIError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   message,
	})
}

// bearerToken extracts the token from an "Authorization: Bearer" header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// validateBearer resolves the bearer token into a Session. If required is
// true and validation fails, it writes an error response and reports true.
func validateBearer(w http.ResponseWriter, r *http.Request, issuer *auth.TokenIssuer, queries *store.Queries, required bool) (Session, bool) {
	fail := func(status int, msg string) (Session, bool) {
		if required {
			WriteAPIError(w, status, msg)
			return Session{}, true
		}
		return Session{}, false
	}

	if r.Header.Get("Authorization") == "" {
		return fail(http.StatusUnauthorized, "Missing Authorization header")
	}
	token, ok := bearerToken(r)
	if !ok {
		return fail(http.StatusUnauthorized, "Invalid Authorization header format. Use: Bearer <token>")
	}

	claims, err := issuer.Verify(token)
	if err != nil {
		return fail(http.StatusUnauthorized, "Invalid or expired token")
	}

	profile, err := queries.GetProfileByID(r.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail(http.StatusUnauthorized, "Invalid or expired token")
		}
		slog.Error("failed to load token profile", "error", err, "user_id", claims.Subject)
		if required {
			WriteAPIError(w, http.StatusInternalServerError, "Internal Server Error")
			return Session{}, true
		}
		return Session{}, false
	}
	if !profile.IsActive {
		return fail(http.StatusUnauthorized, "Account is deactivated")
	}

	return Session{Profile: &profile, Source: SourceBearer}, false
}

// BearerAuth creates middleware that requires a valid access token.
func BearerAuth(issuer *auth.TokenIssuer, queries *store.Queries) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, errorWritten := validateBearer(w, r, issuer, queries, true)
			if errorWritten {
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}

// OptionalBearerAuth attaches the token's profile when a valid token is
// sent and otherwise leaves the request untouched.
func OptionalBearerAuth(issuer *auth.TokenIssuer, queries *store.Queries) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, _ := validateBearer(w, r, issuer, queries, false)
			if !s.SignedIn() {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}

// limiterCache is a generic rate limiter cache with double-check locking.
type limiterCache[K comparable] struct {
	limiters map[K]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
}

func newLimiterCache[K comparable](rps float64, burst int) *limiterCache[K] {
	return &limiterCache[K]{
		limiters: make(map[K]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
	}
}

// get returns the rate limiter for a specific key, creating one if needed.
func (lc *limiterCache[K]) get(key K) *rate.Limiter {
	lc.mu.RLock()
	limiter, exists := lc.limiters[key]
	lc.mu.RUnlock()

	if exists {
		return limiter
	}

	lc.mu.Lock()
	defer lc.mu.Unlock()

	if limiter, exists = lc.limiters[key]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(lc.rate, lc.burst)
	lc.limiters[key] = limiter
	return limiter
}

// clearIfExceeds drops every limiter once the cache holds more than maxSize.
func (lc *limiterCache[K]) clearIfExceeds(maxSize int) bool {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	if len(lc.limiters) > maxSize {
		lc.limiters = make(map[K]*rate.Limiter)
		return true
	}
	return false
}

func (lc *limiterCache[K]) size() int {
	lc.mu.RLock()
	defer lc.mu.RUnlock()
	return len(lc.limiters)
}

// RateLimiter limits requests per client. Signed-in API callers are keyed
// by profile id, everyone else by IP address.
type RateLimiter struct {
	cache *limiterCache[string]
}

// NewRateLimiter creates a limiter allowing rps requests per second with
// the given burst.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{cache: newLimiterCache[string](rps, burst)}
}

func (rl *RateLimiter) key(r *http.Request) string {
	if id := SessionFrom(r.Context()).UserID(); id != "" {
		return "user:" + id
	}
	return "ip:" + util.ClientIP(r)
}

// Middleware returns the rate limiting middleware for API routes.
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.cache.get(rl.key(r)).Allow() {
				WriteAPIError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please slow down.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// HTMLMiddleware returns the rate limiting middleware for public form
// endpoints such as the contact form.
func (rl *RateLimiter) HTMLMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := rl.key(r)
			if !rl.cache.get(key).Allow() {
				slog.Warn("public rate limit exceeded", "key", key, "path", r.URL.Path)
				http.Error(w, "Too many requests. Please wait a moment and try again.", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Prune drops all limiters once more than maxSize clients are tracked.
func (rl *RateLimiter) Prune(maxSize int) bool {
	return rl.cache.clearIfExceeds(maxSize)
}
