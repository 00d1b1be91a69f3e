// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/olegiv/muthawwif-go/internal/model"
)

var productColumns = []string{
	"pr.id", "pr.title", "pr.slug", "pr.description", "pr.price", "pr.original_price",
	"pr.product_type", "pr.category_id", "pr.thumbnail", "pr.is_active", "pr.is_featured",
	"pr.sold_count", "pr.rating_average", "pr.created_at", "pr.updated_at",
	"COALESCE(c.name, '')", "COALESCE(c.color, '')",
}

// ProductsQuery selects products aliased as "pr" with their category ("c").
func ProductsQuery() *Query {
	return Select("products pr", productColumns...).
		LeftJoin("categories c", "c.id = pr.category_id")
}

func scanProduct(s scanner) (model.Product, error) {
	var p model.Product
	err := s.Scan(&p.ID, &p.Title, &p.Slug, &p.Description, &p.Price, &p.OriginalPrice,
		&p.ProductType, &p.CategoryID, &p.Thumbnail, &p.IsActive, &p.IsFeatured,
		&p.SoldCount, &p.RatingAverage, &p.CreatedAt, &p.UpdatedAt,
		&p.CategoryName, &p.CategoryColor)
	return p, err
}

// ListProducts runs a query built from ProductsQuery.
func (q *Queries) ListProducts(ctx context.Context, query *Query) ([]model.Product, error) {
	sqlStr, args := query.Build()
	rows, err := q.db.query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// GetProductByID returns one product or ErrNotFound.
func (q *Queries) GetProductByID(ctx context.Context, id int64) (model.Product, error) {
	sqlStr, args := ProductsQuery().Where(Eq("pr.id", id)).Build()
	p, err := scanProduct(q.db.queryRow(ctx, sqlStr, args...))
	return p, notFound(err)
}

// GetActiveProductBySlug returns an active product for the public catalogue.
func (q *Queries) GetActiveProductBySlug(ctx context.Context, slug string) (model.Product, error) {
	sqlStr, args := ProductsQuery().
		Where(Eq("pr.slug", slug), Eq("pr.is_active", true)).
		Build()
	p, err := scanProduct(q.db.queryRow(ctx, sqlStr, args...))
	return p, notFound(err)
}

// ProductSlugExists reports whether another product already uses slug.
func (q *Queries) ProductSlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	n, err := q.db.Count(ctx, Select("products").Where(Eq("slug", slug), Neq("id", excludeID)))
	return n > 0, err
}

// ProductParams holds the editable product fields.
type ProductParams struct {
	Title         string
	Slug          string
	Description   string
	Price         int64
	OriginalPrice sql.NullInt64
	ProductType   string
	CategoryID    sql.NullInt64
	Thumbnail     string
	IsActive      bool
	IsFeatured    bool
}

// CreateProduct inserts a product and returns its id.
func (q *Queries) CreateProduct(ctx context.Context, arg ProductParams, now time.Time) (int64, error) {
	now = now.UTC()
	id, err := q.db.insertReturningID(ctx,
		`INSERT INTO products (title, slug, description, price, original_price, product_type,
		 category_id, thumbnail, is_active, is_featured, sold_count, rating_average, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0, ?, ?)`,
		arg.Title, arg.Slug, arg.Description, arg.Price, arg.OriginalPrice, arg.ProductType,
		arg.CategoryID, arg.Thumbnail, arg.IsActive, arg.IsFeatured, now, now)
	if err != nil {
		return 0, fmt.Errorf("creating product: %w", err)
	}
	return id, nil
}

// UpdateProduct rewrites the editable fields.
func (q *Queries) UpdateProduct(ctx context.Context, id int64, arg ProductParams, now time.Time) error {
	_, err := q.db.UpdateByIDs(ctx, "products", []any{id},
		Set("title", arg.Title),
		Set("slug", arg.Slug),
		Set("description", arg.Description),
		Set("price", arg.Price),
		Set("original_price", arg.OriginalPrice),
		Set("product_type", arg.ProductType),
		Set("category_id", arg.CategoryID),
		Set("thumbnail", arg.Thumbnail),
		Set("is_active", arg.IsActive),
		Set("is_featured", arg.IsFeatured),
		Set("updated_at", now.UTC()),
	)
	return err
}

// SetProductsActive activates or deactivates every listed product.
func (q *Queries) SetProductsActive(ctx context.Context, ids []int64, active bool, now time.Time) (int64, error) {
	return q.db.UpdateByIDs(ctx, "products", Int64IDs(ids),
		Set("is_active", active), Set("updated_at", now.UTC()))
}

// SetProductsFeatured features or unfeatures every listed product.
func (q *Queries) SetProductsFeatured(ctx context.Context, ids []int64, featured bool, now time.Time) (int64, error) {
	return q.db.UpdateByIDs(ctx, "products", Int64IDs(ids),
		Set("is_featured", featured), Set("updated_at", now.UTC()))
}

// DeleteProducts removes products by id.
func (q *Queries) DeleteProducts(ctx context.Context, ids []int64) (int64, error) {
	return q.db.DeleteByIDs(ctx, "products", Int64IDs(ids))
}

// AdjustSoldCount moves a product's sold count by delta, never below zero.
func (q *Queries) AdjustSoldCount(ctx context.Context, id, delta int64) error {
	_, err := q.db.exec(ctx,
		"UPDATE products SET sold_count = CASE WHEN sold_count + ? < 0 THEN 0 ELSE sold_count + ? END WHERE id = ?",
		delta, delta, id)
	if err != nil {
		return fmt.Errorf("adjusting sold count: %w", err)
	}
	return nil
}
