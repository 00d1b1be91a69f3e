// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// Product types.
const (
	ProductTypeDigital      = "digital"
	ProductTypeCourse       = "course"
	ProductTypeConsultation = "consultation"
	ProductTypeBundle       = "bundle"
)

// ValidProductTypes lists the accepted product types.
var ValidProductTypes = []string{ProductTypeDigital, ProductTypeCourse, ProductTypeConsultation, ProductTypeBundle}

// Product is a sellable item: guides, courses, consultation sessions or bundles.
// Prices are whole rupiah.
type Product struct {
	ID            int64         `json:"id"`
	Title         string        `json:"title"`
	Slug          string        `json:"slug"`
	Description   string        `json:"description"`
	Price         int64         `json:"price"`
	OriginalPrice sql.NullInt64 `json:"-"`
	ProductType   string        `json:"product_type"`
	CategoryID    sql.NullInt64 `json:"-"`
	Thumbnail     string        `json:"thumbnail"`
	IsActive      bool          `json:"is_active"`
	IsFeatured    bool          `json:"is_featured"`
	SoldCount     int64         `json:"sold_count"`
	RatingAverage float64       `json:"rating_average"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`

	CategoryName  string `json:"category_name,omitempty"`
	CategoryColor string `json:"category_color,omitempty"`
}

// HasDiscount reports whether an original price above the current price is set.
func (p *Product) HasDiscount() bool {
	return p.OriginalPrice.Valid && p.OriginalPrice.Int64 > p.Price
}

// Payment statuses.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusExpired   = "expired"
	PaymentStatusRefunded  = "refunded"
)

// ValidPaymentStatuses lists the accepted payment statuses.
var ValidPaymentStatuses = []string{
	PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed,
	PaymentStatusExpired, PaymentStatusRefunded,
}

// Purchase records a profile buying a product.
type Purchase struct {
	ID            int64         `json:"id"`
	UserID        string        `json:"user_id"`
	ProductID     int64         `json:"product_id"`
	Amount        sql.NullInt64 `json:"-"`
	PaymentStatus string        `json:"payment_status"`
	PaymentMethod string        `json:"payment_method"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`

	ProductTitle string `json:"product_title,omitempty"`
	ProductPrice int64  `json:"product_price,omitempty"`
	UserName     string `json:"user_name,omitempty"`
	UserEmail    string `json:"user_email,omitempty"`
}

// IsCompleted reports whether the purchase counts toward revenue.
func (p *Purchase) IsCompleted() bool {
	return p.PaymentStatus == PaymentStatusCompleted
}

// AmountOrZero returns the recorded amount, or 0 when none was recorded.
func (p *Purchase) AmountOrZero() int64 {
	if p.Amount.Valid {
		return p.Amount.Int64
	}
	return 0
}

// EffectiveAmount returns the recorded amount, falling back to the product price.
func (p *Purchase) EffectiveAmount() int64 {
	if p.Amount.Valid {
		return p.Amount.Int64
	}
	return p.ProductPrice
}
