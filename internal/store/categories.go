// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/olegiv/muthawwif-go/internal/model"
)

var categoryColumns = []string{
	"id", "name", "slug", "description", "color", "icon", "is_active", "created_at",
}

func scanCategory(s scanner) (model.Category, error) {
	var c model.Category
	err := s.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Color, &c.Icon, &c.IsActive, &c.CreatedAt)
	return c, err
}

// ListCategories returns categories ordered by name.
func (q *Queries) ListCategories(ctx context.Context, activeOnly bool) ([]model.Category, error) {
	query := Select("categories", categoryColumns...).OrderBy("name", false)
	if activeOnly {
		query.Where(Eq("is_active", true))
	}

	sqlStr, args := query.Build()
	rows, err := q.db.query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// GetCategoryByID returns one category or ErrNotFound.
func (q *Queries) GetCategoryByID(ctx context.Context, id int64) (model.Category, error) {
	sqlStr, args := Select("categories", categoryColumns...).Where(Eq("id", id)).Build()
	c, err := scanCategory(q.db.queryRow(ctx, sqlStr, args...))
	return c, notFound(err)
}

// CreateCategory inserts a category and returns its id.
func (q *Queries) CreateCategory(ctx context.Context, c model.Category) (int64, error) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	id, err := q.db.insertReturningID(ctx,
		`INSERT INTO categories (name, slug, description, color, icon, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.Slug, c.Description, c.Color, c.Icon, c.IsActive, c.CreatedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("creating category: %w", err)
	}
	return id, nil
}
