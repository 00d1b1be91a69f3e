// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the JSON handlers mounted under /api/v1.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/olegiv/muthawwif-go/internal/auth"
	"github.com/olegiv/muthawwif-go/internal/cache"
	"github.com/olegiv/muthawwif-go/internal/handler"
	"github.com/olegiv/muthawwif-go/internal/listing"
	"github.com/olegiv/muthawwif-go/internal/middleware"
	"github.com/olegiv/muthawwif-go/internal/service"
	"github.com/olegiv/muthawwif-go/internal/store"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	db       *store.DB
	queries  *store.Queries
	accounts *service.AccountService
	issuer   *auth.TokenIssuer
	tracker  *listing.Tracker
	settings *cache.SettingsCache
	events   *service.EventService
}

// Config holds the API handler dependencies.
type Config struct {
	DB       *store.DB
	Accounts *service.AccountService
	Issuer   *auth.TokenIssuer
	Tracker  *listing.Tracker
	Settings *cache.SettingsCache
	Events   *service.EventService
}

// NewHandler creates a new API handler.
func NewHandler(cfg Config) *Handler {
	tracker := cfg.Tracker
	if tracker == nil {
		tracker = listing.NewTracker()
	}
	return &Handler{
		db:       cfg.DB,
		queries:  store.New(cfg.DB),
		accounts: cfg.Accounts,
		issuer:   cfg.Issuer,
		tracker:  tracker,
		settings: cfg.Settings,
		events:   cfg.Events,
	}
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set(handler.HeaderContentType, "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes {"success":true} merged with fields.
func WriteSuccess(w http.ResponseWriter, statusCode int, fields map[string]any) {
	if fields == nil {
		fields = make(map[string]any, 1)
	}
	fields["success"] = true
	WriteJSON(w, statusCode, fields)
}

// WriteError writes {"success":false,"error":message}.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	middleware.WriteAPIError(w, statusCode, message)
}

// WriteValidationError writes a 422 with per-field messages.
func WriteValidationError(w http.ResponseWriter, fields map[string]string) {
	WriteJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"success": false,
		"error":   "Validasi gagal",
		"fields":  fields,
	})
}

// WriteInternalError logs err and writes a generic 500.
func WriteInternalError(w http.ResponseWriter, logMsg string, err error, args ...any) {
	slog.Error(logMsg, append([]any{"error", err}, args...)...)
	WriteError(w, http.StatusInternalServerError, "Terjadi kesalahan pada server")
}

// decodeJSON reads a size-limited JSON body into dst. It writes a 400 and
// returns false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			WriteError(w, http.StatusRequestEntityTooLarge, "Permintaan terlalu besar")
			return false
		}
		WriteError(w, http.StatusBadRequest, "Format JSON tidak valid")
		return false
	}
	return true
}

// Status handles GET /api/v1.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, http.StatusOK, map[string]any{"status": "ok", "version": "v1"})
}
