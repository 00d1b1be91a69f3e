// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/muthawwif-go/internal/model"
	"github.com/olegiv/muthawwif-go/internal/store"
)

func testQueries(t *testing.T) *store.Queries {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "settings-*.db")
	require.NoError(t, err)
	_ = f.Close()

	db, err := store.NewDB(f.Name())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db))

	return store.New(db)
}

func TestSettingsCache_InvalidateReloads(t *testing.T) {
	ctx := context.Background()
	queries := testQueries(t)
	mem := NewSimpleMemoryCache(time.Hour)
	defer func() { _ = mem.Close() }()

	require.NoError(t, queries.UpsertSetting(ctx, model.SettingSiteInfo, `{"site_name":"Lama"}`, true, time.Now()))
	require.NoError(t, queries.UpsertSetting(ctx, model.SettingPaymentSettings, `{"bank_name":"BSI"}`, false, time.Now()))

	sc := NewSettingsCache(mem, queries)

	public, err := sc.Public(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Lama", public.Get(model.SettingSiteInfo, "site_name"))
	assert.Empty(t, public.Get(model.SettingPaymentSettings, "bank_name"))

	all, err := sc.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, "BSI", all.Get(model.SettingPaymentSettings, "bank_name"))

	require.NoError(t, queries.UpsertSetting(ctx, model.SettingSiteInfo, `{"site_name":"Baru"}`, true, time.Now()))

	cached, err := sc.Public(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Lama", cached.Get(model.SettingSiteInfo, "site_name"), "served from cache before invalidation")

	require.NoError(t, sc.Invalidate(ctx))

	fresh, err := sc.Public(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Baru", fresh.Get(model.SettingSiteInfo, "site_name"))
}
