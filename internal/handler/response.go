// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/olegiv/muthawwif-go/internal/render"
	"github.com/olegiv/muthawwif-go/internal/store"
)

// redirectWithFlash stores a flash message of the given kind and answers
// with 303 See Other so the browser follows up with a GET.
func redirectWithFlash(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, to, kind, message string) {
	renderer.SetFlash(r, message, kind)
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func flashError(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, to, message string) {
	redirectWithFlash(w, r, renderer, to, render.FlashError, message)
}

func flashSuccess(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, to, message string) {
	redirectWithFlash(w, r, renderer, to, render.FlashSuccess, message)
}

// parseFormOrRedirect reports whether the form parsed. On failure the
// client has already been sent back to `back`.
func parseFormOrRedirect(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, back string) bool {
	if err := r.ParseForm(); err != nil {
		flashError(w, r, renderer, back, "Data formulir tidak valid")
		return false
	}
	return true
}

// serverError logs msg with args and answers 500 without leaking details.
func serverError(w http.ResponseWriter, msg string, args ...any) {
	slog.Error(msg, args...)
	http.Error(w, "Terjadi kesalahan pada server", http.StatusInternalServerError)
}

// loadOrRedirect loads the record with id. When it is missing or the store
// fails, the client is sent back to `back` with a flash naming label and
// ok is false.
func loadOrRedirect[T any](
	w http.ResponseWriter,
	r *http.Request,
	renderer *render.Renderer,
	back, label string,
	id int64,
	load func(context.Context, int64) (T, error),
) (v T, ok bool) {
	v, err := load(r.Context(), id)
	switch {
	case err == nil:
		return v, true
	case errors.Is(err, store.ErrNotFound):
		flashError(w, r, renderer, back, label+" tidak ditemukan")
	default:
		slog.Error("failed to load record", "record", label, "id", id, "error", err)
		flashError(w, r, renderer, back, "Gagal memuat "+label)
	}
	var zero T
	return zero, false
}
