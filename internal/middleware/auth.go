// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// authorization, and request context handling.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/muthawwif-go/internal/model"
	"github.com/olegiv/muthawwif-go/internal/service"
	"github.com/olegiv/muthawwif-go/internal/session"
	"github.com/olegiv/muthawwif-go/internal/store"
	"github.com/olegiv/muthawwif-go/internal/util"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys for request state.
const (
	ContextKeySession     ContextKey = "session"
	ContextKeyRequestPath ContextKey = "request_path"
)

// Session sources.
const (
	SourceCookie = "cookie"
	SourceBearer = "bearer"
)

// Session is the authentication state of one request. The zero value is an
// anonymous visitor.
type Session struct {
	Profile *model.Profile
	Source  string
}

// SignedIn reports whether a profile is attached.
func (s Session) SignedIn() bool {
	return s.Profile != nil
}

// UserID returns the profile id, or "" for anonymous visitors.
func (s Session) UserID() string {
	if s.Profile == nil {
		return ""
	}
	return s.Profile.ID
}

// IsAdmin reports whether the signed-in profile is an admin.
func (s Session) IsAdmin() bool {
	return s.Profile != nil && s.Profile.IsAdmin()
}

// IsOwner reports whether the signed-in profile is the site owner.
func (s Session) IsOwner() bool {
	return s.Profile != nil && s.Profile.IsOwner()
}

// CanManageContent reports whether the admin panel is available.
func (s Session) CanManageContent() bool {
	return s.Profile != nil && s.Profile.CanManageContent()
}

// CanManageUsers reports whether user administration is available.
func (s Session) CanManageUsers() bool {
	return s.Profile != nil && s.Profile.CanManageUsers()
}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ContextKeySession, s)
}

// SessionFrom returns the request's session, or an anonymous one.
func SessionFrom(ctx context.Context) Session {
	s, _ := ctx.Value(ContextKeySession).(Session)
	return s
}

// LoadUser creates middleware that resolves the session cookie into a
// Session in the request context. Stale sessions that point at a missing
// or deactivated profile are destroyed and the request continues anonymously.
func LoadUser(sm *scs.SessionManager, queries *store.Queries) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := sm.GetString(r.Context(), session.KeyUserID)
			if userID == "" {
				next.ServeHTTP(w, r)
				return
			}

			profile, err := queries.GetProfileByID(r.Context(), userID)
			if err != nil || !profile.IsActive {
				if err != nil && !errors.Is(err, store.ErrNotFound) {
					slog.Error("failed to load session profile", "error", err, "user_id", userID)
					next.ServeHTTP(w, r)
					return
				}
				_ = sm.Destroy(r.Context())
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithSession(r.Context(), Session{Profile: &profile, Source: SourceCookie})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser redirects anonymous visitors to the login page, remembering
// where they were going.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !SessionFrom(r.Context()).SignedIn() {
			http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireContentManager allows admins and the owner through.
// Denials are logged to the audit trail when events is non-nil.
func RequireContentManager(events *service.EventService) func(http.Handler) http.Handler {
	return requirePermission("content", Session.CanManageContent, events)
}

// RequireUserManager allows only admins through.
func RequireUserManager(events *service.EventService) func(http.Handler) http.Handler {
	return requirePermission("users", Session.CanManageUsers, events)
}

func requirePermission(area string, allowed func(Session) bool, events *service.EventService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := SessionFrom(r.Context())
			if !s.SignedIn() {
				http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
				return
			}

			if !allowed(s) {
				slog.Warn("access denied",
					"status", http.StatusForbidden,
					"method", r.Method,
					"path", r.URL.Path,
					"user_id", s.Profile.ID,
					"user_role", s.Profile.Role,
					"area", area,
				)
				if events != nil {
					_ = events.LogAuthEvent(r.Context(), model.EventLevelWarning, "Access denied: insufficient permissions",
						s.Profile.ID, util.ClientIP(r), map[string]any{
							"method":    r.Method,
							"path":      r.URL.Path,
							"user_role": s.Profile.Role,
							"area":      area,
						})
				}
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequestPath creates middleware that stores the request path in the context.
// The logging handler includes it in persisted records.
func RequestPath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ContextKeyRequestPath, r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestPath retrieves the request path from the context.
func GetRequestPath(ctx context.Context) string {
	path, _ := ctx.Value(ContextKeyRequestPath).(string)
	return path
}
