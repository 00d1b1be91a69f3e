// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"net/http"
)

// jsonEnvelope is the body of admin JSON responses.
type jsonEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// writeJSON encodes v before touching the response so an encoding failure
// can still become a clean 500. JSON from the admin and health endpoints is
// never cached.
func writeJSON(w http.ResponseWriter, code int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		serverError(w, "failed to encode json response", "error", err)
		return
	}

	h := w.Header()
	h.Set(HeaderContentType, "application/json; charset=utf-8")
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_, _ = w.Write(append(body, '\n'))
}

func writeJSONError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, jsonEnvelope{Error: message})
}

func writeJSONData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, jsonEnvelope{Success: true, Data: data})
}
