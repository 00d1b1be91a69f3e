// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/olegiv/muthawwif-go/internal/model"
)

var testimonialColumns = []string{
	"id", "name", "role_title", "content", "rating", "avatar",
	"is_active", "is_featured", "sort_order", "created_at",
}

// ListTestimonials returns active testimonials by sort order.
// A limit of 0 returns all of them.
func (q *Queries) ListTestimonials(ctx context.Context, featuredOnly bool, limit int) ([]model.Testimonial, error) {
	query := Select("testimonials", testimonialColumns...).
		Where(Eq("is_active", true)).
		OrderBy("sort_order", false).
		OrderBy("id", false)
	if featuredOnly {
		query.Where(Eq("is_featured", true))
	}
	if limit > 0 {
		query.Limit(limit)
	}

	sqlStr, args := query.Build()
	rows, err := q.db.query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("listing testimonials: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Testimonial
	for rows.Next() {
		var t model.Testimonial
		if err := rows.Scan(&t.ID, &t.Name, &t.RoleTitle, &t.Content, &t.Rating, &t.Avatar,
			&t.IsActive, &t.IsFeatured, &t.SortOrder, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning testimonial: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CreateTestimonials inserts testimonials in one statement.
func (q *Queries) CreateTestimonials(ctx context.Context, items []model.Testimonial, now time.Time) (int64, error) {
	rows := make([][]any, len(items))
	for i, t := range items {
		rows[i] = []any{t.Name, t.RoleTitle, t.Content, t.Rating, t.Avatar,
			t.IsActive, t.IsFeatured, t.SortOrder, now.UTC()}
	}
	return q.db.InsertRows(ctx, "testimonials",
		[]string{"name", "role_title", "content", "rating", "avatar", "is_active", "is_featured", "sort_order", "created_at"},
		rows)
}
