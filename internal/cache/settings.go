// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"time"

	"github.com/olegiv/muthawwif-go/internal/model"
	"github.com/olegiv/muthawwif-go/internal/store"
)

const settingsKeyPrefix = "settings:"

// SettingsCache provides cached access to site settings.
// Entries live for a long TTL and are invalidated whenever a setting is saved.
type SettingsCache struct {
	queries *store.Queries
	typed   *TypedCache[model.Settings]
}

// NewSettingsCache creates a settings cache on top of c.
func NewSettingsCache(c Cache, queries *store.Queries) *SettingsCache {
	return &SettingsCache{
		queries: queries,
		typed:   NewTypedCache[model.Settings](c, time.Hour),
	}
}

// Public returns every public setting.
func (s *SettingsCache) Public(ctx context.Context) (model.Settings, error) {
	return s.load(ctx, "public", true)
}

// All returns every setting, including private ones.
func (s *SettingsCache) All(ctx context.Context) (model.Settings, error) {
	return s.load(ctx, "all", false)
}

func (s *SettingsCache) load(ctx context.Context, variant string, publicOnly bool) (model.Settings, error) {
	return s.typed.Load(ctx, settingsKeyPrefix+variant, func(ctx context.Context) (model.Settings, error) {
		return s.queries.LoadSettings(ctx, publicOnly)
	})
}

// Invalidate drops every cached settings variant.
func (s *SettingsCache) Invalidate(ctx context.Context) error {
	return s.typed.Invalidate(ctx, settingsKeyPrefix)
}
