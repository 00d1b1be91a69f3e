// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/olegiv/muthawwif-go/internal/model"
)

var purchaseColumns = []string{
	"pu.id", "pu.user_id", "pu.product_id", "pu.amount", "pu.payment_status",
	"pu.payment_method", "pu.created_at", "pu.updated_at",
	"COALESCE(pr.title, '')", "COALESCE(pr.price, 0)",
	"COALESCE(u.full_name, '')", "COALESCE(u.email, '')",
}

// PurchasesQuery selects purchases aliased as "pu" with product ("pr") and
// buyer ("u") joined in.
func PurchasesQuery() *Query {
	return Select("purchases pu", purchaseColumns...).
		LeftJoin("products pr", "pr.id = pu.product_id").
		LeftJoin("profiles u", "u.id = pu.user_id")
}

func scanPurchase(s scanner) (model.Purchase, error) {
	var p model.Purchase
	err := s.Scan(&p.ID, &p.UserID, &p.ProductID, &p.Amount, &p.PaymentStatus,
		&p.PaymentMethod, &p.CreatedAt, &p.UpdatedAt,
		&p.ProductTitle, &p.ProductPrice, &p.UserName, &p.UserEmail)
	return p, err
}

// ListPurchases runs a query built from PurchasesQuery.
func (q *Queries) ListPurchases(ctx context.Context, query *Query) ([]model.Purchase, error) {
	sqlStr, args := query.Build()
	rows, err := q.db.query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("listing purchases: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var purchases []model.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning purchase: %w", err)
		}
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}

// ListCompletedPurchases returns completed purchases, newest first.
// A zero since returns all of them.
func (q *Queries) ListCompletedPurchases(ctx context.Context, since time.Time) ([]model.Purchase, error) {
	query := PurchasesQuery().
		Where(Eq("pu.payment_status", model.PaymentStatusCompleted)).
		OrderBy("pu.created_at", true)
	if !since.IsZero() {
		query.Where(Gte("pu.created_at", since.UTC()))
	}
	return q.ListPurchases(ctx, query)
}

// ListUserPurchases returns one profile's completed purchases, newest first.
func (q *Queries) ListUserPurchases(ctx context.Context, userID string) ([]model.Purchase, error) {
	return q.ListPurchases(ctx, PurchasesQuery().
		Where(Eq("pu.user_id", userID), Eq("pu.payment_status", model.PaymentStatusCompleted)).
		OrderBy("pu.created_at", true))
}

// GetPurchaseByID returns one purchase or ErrNotFound.
func (q *Queries) GetPurchaseByID(ctx context.Context, id int64) (model.Purchase, error) {
	sqlStr, args := PurchasesQuery().Where(Eq("pu.id", id)).Build()
	p, err := scanPurchase(q.db.queryRow(ctx, sqlStr, args...))
	return p, notFound(err)
}

// CreatePurchase records a pending purchase at the given amount.
func (q *Queries) CreatePurchase(ctx context.Context, userID string, productID, amount int64, method string, now time.Time) (int64, error) {
	now = now.UTC()
	id, err := q.db.insertReturningID(ctx,
		`INSERT INTO purchases (user_id, product_id, amount, payment_status, payment_method, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, productID, amount, model.PaymentStatusPending, method, now, now)
	if err != nil {
		return 0, fmt.Errorf("creating purchase: %w", err)
	}
	return id, nil
}

// UpdatePurchaseStatus changes the payment status.
func (q *Queries) UpdatePurchaseStatus(ctx context.Context, id int64, status string, now time.Time) error {
	n, err := q.db.UpdateByIDs(ctx, "purchases", []any{id},
		Set("payment_status", status), Set("updated_at", now.UTC()))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// HasCompletedPurchase reports whether a profile owns a product.
func (q *Queries) HasCompletedPurchase(ctx context.Context, userID string, productID int64) (bool, error) {
	n, err := q.db.Count(ctx, Select("purchases").Where(
		Eq("user_id", userID),
		Eq("product_id", productID),
		Eq("payment_status", model.PaymentStatusCompleted),
	))
	return n > 0, err
}

// ExpirePendingPurchases marks pending purchases created before cutoff as expired.
func (q *Queries) ExpirePendingPurchases(ctx context.Context, cutoff, now time.Time) (int64, error) {
	res, err := q.db.exec(ctx,
		"UPDATE purchases SET payment_status = ?, updated_at = ? WHERE payment_status = ? AND created_at < ?",
		model.PaymentStatusExpired, now.UTC(), model.PaymentStatusPending, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("expiring purchases: %w", err)
	}
	return res.RowsAffected()
}

// SumCompletedRevenue totals completed purchases, counting the product
// price when no amount was recorded.
func (q *Queries) SumCompletedRevenue(ctx context.Context) (int64, error) {
	var total int64
	err := q.db.queryRow(ctx,
		`SELECT COALESCE(SUM(COALESCE(pu.amount, pr.price, 0)), 0)
		 FROM purchases pu LEFT JOIN products pr ON pr.id = pu.product_id
		 WHERE pu.payment_status = ?`,
		model.PaymentStatusCompleted).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("summing revenue: %w", err)
	}
	return total, nil
}
