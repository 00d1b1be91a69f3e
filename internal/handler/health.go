// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/olegiv/muthawwif-go/internal/cache"
	"github.com/olegiv/muthawwif-go/internal/middleware"
	"github.com/olegiv/muthawwif-go/internal/store"
	"github.com/olegiv/muthawwif-go/internal/version"
)

// healthCheckTimeout bounds each dependency ping.
const healthCheckTimeout = 2 * time.Second

// HealthHandler handles health check requests.
type HealthHandler struct {
	db        *store.DB
	cache     cache.Cache
	version   version.Info
	startTime time.Time
}

// NewHealthHandler creates a new health handler. c may be nil.
func NewHealthHandler(db *store.DB, c cache.Cache, v version.Info) *HealthHandler {
	return &HealthHandler{
		db:        db,
		cache:     c,
		version:   v,
		startTime: time.Now(),
	}
}

// HealthStatusPublic is the minimal health response for anonymous callers.
type HealthStatusPublic struct {
	Status string `json:"status"`
}

// HealthStatus is the detailed response shown to admins.
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   string           `json:"version"`
	Checks    map[string]Check `json:"checks"`
	Cache     *cache.Stats     `json:"cache,omitempty"`
	System    *SystemInfo      `json:"system,omitempty"`
}

// Check represents a single health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// SystemInfo contains system-level information.
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutines"`
	NumCPU       int    `json:"num_cpus"`
	MemAlloc     string `json:"mem_alloc"`
	MemSys       string `json:"mem_sys"`
}

// Health handles GET /health. Anonymous callers only see the overall
// status; admins also get the individual checks.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	checks := h.runChecks(r.Context())

	overall := "healthy"
	for _, c := range checks {
		if c.Status != "healthy" {
			overall = "degraded"
		}
	}

	code := http.StatusOK
	if overall != "healthy" {
		code = http.StatusServiceUnavailable
	}

	if !middleware.SessionFrom(r.Context()).IsAdmin() {
		writeJSON(w, code, HealthStatusPublic{Status: overall})
		return
	}

	status := HealthStatus{
		Status:    overall,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   h.version.Version,
		Checks:    checks,
	}
	if sp, ok := h.cache.(cache.StatsProvider); ok {
		stats := sp.Stats()
		status.Cache = &stats
	}
	if r.URL.Query().Get("verbose") == "true" {
		status.System = systemInfo()
	}
	writeJSON(w, code, status)
}

// Liveness handles GET /health/live.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// Readiness handles GET /health/ready. It pings the database and the cache.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	for name, c := range h.runChecks(r.Context()) {
		if c.Status != "healthy" {
			resp := map[string]string{"status": "not_ready", "failed": name}
			if middleware.SessionFrom(r.Context()).IsAdmin() {
				resp["message"] = c.Message
			}
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *HealthHandler) runChecks(ctx context.Context) map[string]Check {
	checks := map[string]Check{
		"database": timedCheck(ctx, "Connected", h.db.PingContext),
	}
	if h.cache != nil {
		checks["cache"] = timedCheck(ctx, "Reachable", h.cache.Ping)
	}
	return checks
}

func timedCheck(ctx context.Context, okMessage string, ping func(context.Context) error) Check {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	start := time.Now()
	err := ping(ctx)
	latency := time.Since(start).String()

	if err != nil {
		return Check{Status: "unhealthy", Message: err.Error(), Latency: latency}
	}
	return Check{Status: "healthy", Message: okMessage, Latency: latency}
}

func systemInfo() *SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return &SystemInfo{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     formatBytes(m.Alloc),
		MemSys:       formatBytes(m.Sys),
	}
}

// formatBytes converts bytes to a human-readable string.
func formatBytes(bytes uint64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
