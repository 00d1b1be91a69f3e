// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"filippo.io/csrf/gorilla"
)

// CSRFOptions configures CSRF.
type CSRFOptions struct {
	// TrustedOrigins are host[:port] values allowed to post cross-origin.
	TrustedOrigins []string
	// OnFailure replaces the default 403 reply.
	OnFailure http.Handler
}

// TrustedOrigins returns the origins to trust: extra as given, plus the
// local dev server on port when isDev is set.
func TrustedOrigins(isDev bool, port int, extra []string) []string {
	var origins []string
	if isDev {
		p := strconv.Itoa(port)
		origins = append(origins, "localhost:"+p, "127.0.0.1:"+p)
	}
	for _, o := range extra {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// CSRF rejects cross-origin unsafe requests. Checks rely on Fetch metadata
// and the Origin header, so forms carry no token; key is accepted for
// gorilla/csrf compatibility only.
func CSRF(key []byte, opts CSRFOptions) func(http.Handler) http.Handler {
	onFailure := opts.OnFailure
	if onFailure == nil {
		onFailure = http.HandlerFunc(rejectCrossOrigin)
	}

	options := []csrf.Option{csrf.ErrorHandler(onFailure)}
	if len(opts.TrustedOrigins) > 0 {
		options = append(options, csrf.TrustedOrigins(opts.TrustedOrigins))
	}
	return csrf.Protect(key, options...)
}

func rejectCrossOrigin(w http.ResponseWriter, r *http.Request) {
	reason := "unknown"
	if err := csrf.FailureReason(r); err != nil {
		reason = err.Error()
	}
	slog.Warn("cross-origin request rejected",
		"reason", reason,
		"method", r.Method,
		"path", r.URL.Path,
		"origin", r.Header.Get("Origin"),
		"sec_fetch_site", r.Header.Get("Sec-Fetch-Site"),
	)
	http.Error(w, "Permintaan ditolak karena berasal dari situs lain", http.StatusForbidden)
}

// SkipCSRF exempts requests under the given path prefixes from CSRF. The
// bearer-token API is mounted this way.
func SkipCSRF(prefixes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, p := range prefixes {
				if strings.HasPrefix(r.URL.Path, p) {
					r = csrf.UnsafeSkipCheck(r)
					break
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
