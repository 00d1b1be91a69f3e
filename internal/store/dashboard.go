// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

// DashboardCounts holds the totals shown on the admin dashboard.
type DashboardCounts struct {
	Posts    int64
	Products int64
	Users    int64
	Revenue  int64
}

// GetDashboardCounts gathers the dashboard totals.
func (q *Queries) GetDashboardCounts(ctx context.Context) (DashboardCounts, error) {
	var c DashboardCounts
	var err error

	if c.Posts, err = q.db.Count(ctx, Select("posts")); err != nil {
		return c, err
	}
	if c.Products, err = q.db.Count(ctx, Select("products")); err != nil {
		return c, err
	}
	if c.Users, err = q.db.Count(ctx, Select("profiles")); err != nil {
		return c, err
	}
	if c.Revenue, err = q.SumCompletedRevenue(ctx); err != nil {
		return c, err
	}
	return c, nil
}

// ListRegistrationTimes returns profile creation times. A zero since
// returns all of them.
func (q *Queries) ListRegistrationTimes(ctx context.Context, since time.Time) ([]time.Time, error) {
	query := Select("profiles", "created_at")
	if !since.IsZero() {
		query.Where(Gte("created_at", since.UTC()))
	}

	sqlStr, args := query.Build()
	rows, err := q.db.query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
