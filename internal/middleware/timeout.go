// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

const timeoutMessage = "Permintaan melebihi batas waktu"

// Timeout cancels the request context after d. If the handler has not
// started its response by then, the client gets a 503 (JSON under /api/,
// plain text elsewhere) and later handler writes fail with
// http.ErrHandlerTimeout.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			gw := newGuardedWriter(w)
			finished := make(chan struct{})
			go func() {
				defer close(finished)
				next.ServeHTTP(gw, r.WithContext(ctx))
			}()

			select {
			case <-finished:
				gw.finish()
			case <-ctx.Done():
				if !gw.expire() {
					return
				}
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					slog.Warn("request timed out", "method", r.Method, "path", r.URL.Path, "after", d)
				}
				if strings.HasPrefix(r.URL.Path, "/api/") {
					WriteAPIError(w, http.StatusServiceUnavailable, timeoutMessage)
					return
				}
				http.Error(w, timeoutMessage, http.StatusServiceUnavailable)
			}
		})
	}
}

// guardedWriter keeps the handler's headers apart from the real writer
// until the response starts, so a timeout reply never races the handler.
type guardedWriter struct {
	w      http.ResponseWriter
	header http.Header

	mu      sync.Mutex
	started bool
	expired bool
}

func newGuardedWriter(w http.ResponseWriter) *guardedWriter {
	return &guardedWriter{w: w, header: make(http.Header)}
}

func (g *guardedWriter) Header() http.Header { return g.header }

func (g *guardedWriter) WriteHeader(code int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.expired || g.started {
		return
	}
	g.start(code)
}

func (g *guardedWriter) Write(b []byte) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.expired {
		return 0, http.ErrHandlerTimeout
	}
	if !g.started {
		g.start(http.StatusOK)
	}
	return g.w.Write(b)
}

// start copies buffered headers and sends the status. The caller holds mu.
func (g *guardedWriter) start(code int) {
	g.started = true
	dst := g.w.Header()
	for k, v := range g.header {
		dst[k] = v
	}
	g.w.WriteHeader(code)
}

// finish flushes headers of a handler that returned without writing.
func (g *guardedWriter) finish() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.started && !g.expired {
		dst := g.w.Header()
		for k, v := range g.header {
			dst[k] = v
		}
	}
}

// expire marks the writer dead and reports whether the response was still
// unstarted, meaning the caller must write the timeout reply.
func (g *guardedWriter) expire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.expired = true
	return !g.started
}
