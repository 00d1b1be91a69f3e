// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/olegiv/muthawwif-go/internal/model"
)

var settingColumns = []string{"setting_key", "value", "is_public", "updated_at"}

func scanSetting(s scanner) (model.SiteSetting, error) {
	var st model.SiteSetting
	err := s.Scan(&st.Key, &st.Value, &st.IsPublic, &st.UpdatedAt)
	return st, err
}

// GetSetting returns one setting or ErrNotFound.
func (q *Queries) GetSetting(ctx context.Context, key string) (model.SiteSetting, error) {
	sqlStr, args := Select("site_settings", settingColumns...).Where(Eq("setting_key", key)).Build()
	st, err := scanSetting(q.db.queryRow(ctx, sqlStr, args...))
	return st, notFound(err)
}

// ListSettings returns settings, optionally only public ones or only the
// given keys.
func (q *Queries) ListSettings(ctx context.Context, publicOnly bool, keys ...string) ([]model.SiteSetting, error) {
	query := Select("site_settings", settingColumns...).OrderBy("setting_key", false)
	if publicOnly {
		query.Where(Eq("is_public", true))
	}
	if len(keys) > 0 {
		query.Where(In("setting_key", StringIDs(keys)...))
	}

	sqlStr, args := query.Build()
	rows, err := q.db.query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("listing settings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var settings []model.SiteSetting
	for rows.Next() {
		st, err := scanSetting(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning setting: %w", err)
		}
		settings = append(settings, st)
	}
	return settings, rows.Err()
}

// UpsertSetting inserts or replaces a setting value.
func (q *Queries) UpsertSetting(ctx context.Context, key, value string, isPublic bool, now time.Time) error {
	var query string
	switch q.db.Dialect {
	case DialectMySQL:
		query = `INSERT INTO site_settings (setting_key, value, is_public, updated_at) VALUES (?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE value = VALUES(value), is_public = VALUES(is_public), updated_at = VALUES(updated_at)`
	default:
		query = `INSERT INTO site_settings (setting_key, value, is_public, updated_at) VALUES (?, ?, ?, ?)
			ON CONFLICT (setting_key) DO UPDATE SET value = excluded.value, is_public = excluded.is_public, updated_at = excluded.updated_at`
	}

	if _, err := q.db.exec(ctx, query, key, value, isPublic, now.UTC()); err != nil {
		return fmt.Errorf("upserting setting %s: %w", key, err)
	}
	return nil
}

// LoadSettings decodes settings into a lookup.
func (q *Queries) LoadSettings(ctx context.Context, publicOnly bool, keys ...string) (model.Settings, error) {
	rows, err := q.ListSettings(ctx, publicOnly, keys...)
	if err != nil {
		return nil, err
	}
	out := make(model.Settings, len(rows))
	for _, st := range rows {
		out[st.Key] = st.Fields()
	}
	return out, nil
}
