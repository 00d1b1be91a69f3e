// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cache holds the byte caches behind settings and analytics
// reports: an in-process store and a Redis store sharing one interface.
package cache

import (
	"context"
	"time"
)

// Cache is implemented by every backend. Values are opaque bytes so the
// in-memory and Redis backends are interchangeable.
type Cache interface {
	// Get returns ErrCacheMiss for absent or expired keys.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value for ttl. A zero ttl uses the backend default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error

	// Clear drops every entry owned by this cache.
	Clear(ctx context.Context) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	Close() error
}

// Stats is shown on the admin cache page and in detailed health output.
type Stats struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Sets      int64   `json:"sets"`
	Evictions int64   `json:"evictions"`
	Items     int     `json:"items"`
	HitRate   float64 `json:"hit_rate"`
	Size      int64   `json:"size"`
}

// StatsProvider is implemented by backends that count their traffic.
type StatsProvider interface {
	Stats() Stats
	ResetStats()
}

// PrefixDeleter is implemented by backends that can drop a key namespace
// such as "analytics:" without clearing everything else.
type PrefixDeleter interface {
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// Error is a sentinel cache error.
type Error string

func (e Error) Error() string { return string(e) }

const (
	// ErrCacheMiss is returned for absent or expired keys.
	ErrCacheMiss Error = "cache miss"

	// ErrCacheClosed is returned after Close.
	ErrCacheClosed Error = "cache closed"
)

// counters is the traffic accounting shared by both backends.
type counters struct {
	hits, misses, sets, evictions int64
}

func (c counters) stats(items int, size int64) Stats {
	s := Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Sets:      c.sets,
		Evictions: c.evictions,
		Items:     items,
		Size:      size,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total) * 100
	}
	return s
}
