// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"log/slog"
	"net/url"
	"time"
)

// Backend names the store behind a Cache.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendRedis  Backend = "redis"
)

// BackendOf reports which store c uses.
func BackendOf(c Cache) Backend {
	if _, ok := c.(*RedisCache); ok {
		return BackendRedis
	}
	return BackendMemory
}

// Config selects and sizes the application cache.
type Config struct {
	RedisURL        string // redis://[:password@]host:port/db; empty means memory
	Prefix          string
	DefaultTTL      time.Duration
	MaxSize         int // memory only, 0 = unbounded
	CleanupInterval time.Duration
}

// Open returns a Redis cache when cfg.RedisURL is set and answers a ping,
// and an in-memory cache otherwise. An unreachable Redis is logged, not fatal.
func Open(ctx context.Context, cfg Config) Cache {
	if cfg.RedisURL != "" {
		rc, err := NewRedisCache(ctx, RedisCacheOptions{
			URL:        cfg.RedisURL,
			Prefix:     cfg.Prefix,
			DefaultTTL: cfg.DefaultTTL,
		})
		if err == nil {
			slog.Info("cache backend ready", "backend", BackendRedis, "url", SanitizeRedisURL(cfg.RedisURL), "prefix", cfg.Prefix)
			return rc
		}
		slog.Warn("redis unavailable, using memory cache", "error", err)
	}

	slog.Info("cache backend ready", "backend", BackendMemory, "max_size", cfg.MaxSize)
	return NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      cfg.DefaultTTL,
		MaxSize:         cfg.MaxSize,
		CleanupInterval: cfg.CleanupInterval,
	})
}

// SanitizeRedisURL hides the password in a Redis URL so it can be logged.
func SanitizeRedisURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "[invalid URL]"
	}
	return u.Redacted()
}
