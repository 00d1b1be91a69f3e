// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package analytics computes the revenue, sales and registration summary
// shown on the admin analytics page.
package analytics

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/olegiv/muthawwif-go/internal/model"
)

const (
	topProductsLimit     = 5
	recentPurchasesLimit = 10
	trendMonths          = 12

	unknownProductTitle = "Unknown Product"
)

// monthNames are Indonesian short month names.
var monthNames = [12]string{
	"Jan", "Feb", "Mar", "Apr", "Mei", "Jun",
	"Jul", "Agu", "Sep", "Okt", "Nov", "Des",
}

// Input is everything Aggregate needs. Purchases must already be limited
// to completed ones.
type Input struct {
	Purchases     []model.Purchase
	Registrations []time.Time

	// Rows created inside the selected trailing window.
	RangePurchases     []model.Purchase
	RangeRegistrations []time.Time

	RangeDays int
	Now       time.Time
}

// Metric is a total with calendar-month comparison.
type Metric struct {
	Total     int64   `json:"total"`
	ThisMonth int64   `json:"this_month"`
	LastMonth int64   `json:"last_month"`
	Growth    float64 `json:"growth"`
}

// ProductStat is a product's share of sales.
type ProductStat struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Sales   int64  `json:"sales"`
	Revenue int64  `json:"revenue"`
}

// MonthPoint is one month of the trend.
type MonthPoint struct {
	Label         string    `json:"label"`
	Start         time.Time `json:"start"`
	Revenue       int64     `json:"revenue"`
	Sales         int64     `json:"sales"`
	Registrations int64     `json:"registrations"`
}

// RecentPurchase is a purchase row as listed on the analytics page.
type RecentPurchase struct {
	ID           int64     `json:"id"`
	ProductTitle string    `json:"product_title"`
	UserName     string    `json:"user_name"`
	UserEmail    string    `json:"user_email"`
	Amount       int64     `json:"amount"`
	CreatedAt    time.Time `json:"created_at"`
}

// RangeSummary describes the trailing window selected on the page.
type RangeSummary struct {
	Days          int   `json:"days"`
	Revenue       int64 `json:"revenue"`
	Sales         int64 `json:"sales"`
	Registrations int64 `json:"registrations"`
}

// Report is the fixed-shape analytics summary.
type Report struct {
	Revenue Metric `json:"revenue"`
	Sales   Metric `json:"sales"`
	Users   Metric `json:"users"`

	TopProducts     []ProductStat    `json:"top_products"`
	RecentPurchases []RecentPurchase `json:"recent_purchases"`
	Monthly         []MonthPoint     `json:"monthly"`

	AverageOrderValue float64 `json:"average_order_value"`
	ConversionRate    float64 `json:"conversion_rate"`
	AvgMonthlyRevenue float64 `json:"avg_monthly_revenue"`
	AvgMonthlySales   float64 `json:"avg_monthly_sales"`

	Range       RangeSummary `json:"range"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// Aggregate computes a Report. It never fails: missing data yields zeros.
func Aggregate(in Input) Report {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	thisMonth := monthStart(now)
	lastMonth := thisMonth.AddDate(0, -1, 0)

	var r Report

	for i := range in.Purchases {
		p := &in.Purchases[i]
		amount := p.AmountOrZero()

		r.Revenue.Total += amount
		r.Sales.Total++

		switch {
		case !p.CreatedAt.Before(thisMonth):
			r.Revenue.ThisMonth += amount
			r.Sales.ThisMonth++
		case !p.CreatedAt.Before(lastMonth):
			r.Revenue.LastMonth += amount
			r.Sales.LastMonth++
		}
	}

	for _, at := range in.Registrations {
		r.Users.Total++
		switch {
		case !at.Before(thisMonth):
			r.Users.ThisMonth++
		case !at.Before(lastMonth):
			r.Users.LastMonth++
		}
	}

	r.Revenue.Growth = Growth(r.Revenue.ThisMonth, r.Revenue.LastMonth)
	r.Sales.Growth = Growth(r.Sales.ThisMonth, r.Sales.LastMonth)
	r.Users.Growth = Growth(r.Users.ThisMonth, r.Users.LastMonth)

	r.TopProducts = topProducts(in.Purchases)
	r.RecentPurchases = recentPurchases(in.Purchases)
	r.Monthly = monthlyTrend(in.Purchases, in.Registrations, thisMonth)

	r.AverageOrderValue = ratio(r.Revenue.Total, r.Sales.Total, 1)
	r.ConversionRate = ratio(r.Sales.Total, r.Users.Total, 100)

	var trendRevenue, trendSales int64
	for _, m := range r.Monthly {
		trendRevenue += m.Revenue
		trendSales += m.Sales
	}
	r.AvgMonthlyRevenue = float64(trendRevenue) / trendMonths
	r.AvgMonthlySales = float64(trendSales) / trendMonths

	r.Range = RangeSummary{
		Days:          in.RangeDays,
		Sales:         int64(len(in.RangePurchases)),
		Registrations: int64(len(in.RangeRegistrations)),
	}
	for i := range in.RangePurchases {
		r.Range.Revenue += in.RangePurchases[i].AmountOrZero()
	}

	r.GeneratedAt = now
	return r
}

// Growth returns the percentage change from last to this. It is 0 when
// last is 0.
func Growth(this, last int64) float64 {
	if last == 0 {
		return 0
	}
	return float64(this-last) / float64(last) * 100
}

// ratio returns num/den*scale, or 0 when den is 0.
func ratio(num, den int64, scale float64) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den) * scale
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// MonthLabel formats a month as e.g. "Agu 2025".
func MonthLabel(t time.Time) string {
	return fmt.Sprintf("%s %d", monthNames[t.Month()-1], t.Year())
}

func topProducts(purchases []model.Purchase) []ProductStat {
	byID := make(map[int64]*ProductStat)
	for i := range purchases {
		p := &purchases[i]
		stat, ok := byID[p.ProductID]
		if !ok {
			title := p.ProductTitle
			if title == "" {
				title = unknownProductTitle
			}
			stat = &ProductStat{ID: p.ProductID, Title: title}
			byID[p.ProductID] = stat
		}
		stat.Sales++
		stat.Revenue += p.AmountOrZero()
	}

	stats := make([]ProductStat, 0, len(byID))
	for _, s := range byID {
		stats = append(stats, *s)
	}
	slices.SortFunc(stats, func(a, b ProductStat) int {
		if c := cmp.Compare(b.Revenue, a.Revenue); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	if len(stats) > topProductsLimit {
		stats = stats[:topProductsLimit]
	}
	return stats
}

func recentPurchases(purchases []model.Purchase) []RecentPurchase {
	sorted := slices.Clone(purchases)
	slices.SortStableFunc(sorted, func(a, b model.Purchase) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if len(sorted) > recentPurchasesLimit {
		sorted = sorted[:recentPurchasesLimit]
	}

	recent := make([]RecentPurchase, len(sorted))
	for i, p := range sorted {
		recent[i] = RecentPurchase{
			ID:           p.ID,
			ProductTitle: p.ProductTitle,
			UserName:     p.UserName,
			UserEmail:    p.UserEmail,
			Amount:       p.AmountOrZero(),
			CreatedAt:    p.CreatedAt,
		}
	}
	return recent
}

// monthlyTrend buckets rows into the twelve months ending with thisMonth,
// oldest first. Each bucket is the half-open interval [start, next start).
func monthlyTrend(purchases []model.Purchase, registrations []time.Time, thisMonth time.Time) []MonthPoint {
	points := make([]MonthPoint, trendMonths)
	for i := range points {
		start := thisMonth.AddDate(0, i-(trendMonths-1), 0)
		points[i] = MonthPoint{Label: MonthLabel(start), Start: start}
	}
	first := points[0].Start
	end := thisMonth.AddDate(0, 1, 0)

	bucket := func(t time.Time) int {
		if t.Before(first) || !t.Before(end) {
			return -1
		}
		t = t.In(thisMonth.Location())
		return (t.Year()-first.Year())*12 + int(t.Month()) - int(first.Month())
	}

	for i := range purchases {
		if b := bucket(purchases[i].CreatedAt); b >= 0 {
			points[b].Revenue += purchases[i].AmountOrZero()
			points[b].Sales++
		}
	}
	for _, at := range registrations {
		if b := bucket(at); b >= 0 {
			points[b].Registrations++
		}
	}
	return points
}

// IsEmpty reports whether the report was built from no rows at all.
func (r *Report) IsEmpty() bool {
	return r.Sales.Total == 0 && r.Users.Total == 0
}
