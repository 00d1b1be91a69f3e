// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/olegiv/muthawwif-go/internal/cache"
	"github.com/olegiv/muthawwif-go/internal/model"
	"github.com/olegiv/muthawwif-go/internal/result"
)

// DefaultRangeDays is used when no or an unknown range is requested.
const DefaultRangeDays = 30

// RangeOptions are the selectable trailing windows, in days.
var RangeOptions = []int{7, 30, 90, 365}

// ParseRange parses a range query value, falling back to DefaultRangeDays.
func ParseRange(s string) int {
	days, err := strconv.Atoi(s)
	if err != nil {
		return DefaultRangeDays
	}
	for _, opt := range RangeOptions {
		if days == opt {
			return days
		}
	}
	return DefaultRangeDays
}

// Source loads the rows a report is built from.
type Source interface {
	ListCompletedPurchases(ctx context.Context, since time.Time) ([]model.Purchase, error)
	ListRegistrationTimes(ctx context.Context, since time.Time) ([]time.Time, error)
}

const cacheKeyPrefix = "analytics:"

// Service builds reports from a Source and caches successful ones.
type Service struct {
	source Source
	cache  *cache.TypedCache[Report]
	logger *slog.Logger
	now    func() time.Time

	// epoch advances on every Invalidate. A report built across an
	// advance is returned but not kept.
	epoch atomic.Uint64
}

// NewService creates a Service. A nil cache disables caching.
func NewService(source Source, c cache.Cache, ttl time.Duration, logger *slog.Logger) *Service {
	s := &Service{
		source: source,
		logger: logger,
		now:    time.Now,
	}
	if c != nil {
		s.cache = cache.NewTypedCache[Report](c, ttl)
	}
	return s
}

// Report returns the analytics report for a trailing window.
// Store failures come back as an error Result, never as zeroed metrics.
func (s *Service) Report(ctx context.Context, rangeDays int) result.Result[Report] {
	key := cacheKeyPrefix + strconv.Itoa(rangeDays)
	if s.cache != nil {
		if r, ok := s.cache.Get(ctx, key); ok {
			return result.Success(r)
		}
	}

	epoch := s.epoch.Load()
	report, err := s.build(ctx, rangeDays)
	if err != nil {
		s.logger.Error("failed to build analytics report", "range", rangeDays, "error", err)
		return result.Error[Report](err)
	}

	if report.IsEmpty() {
		return result.Empty(report)
	}

	if s.cache != nil {
		s.store(ctx, key, report, epoch)
	}
	return result.Success(report)
}

// store caches report unless an Invalidate happened since its build began.
// The epoch is checked again after Set because Invalidate may have cleared
// the cache between the first check and the write.
func (s *Service) store(ctx context.Context, key string, report Report, epoch uint64) {
	if s.epoch.Load() != epoch {
		return
	}
	if err := s.cache.Set(ctx, key, report); err != nil {
		s.logger.Warn("failed to cache analytics report", "error", err)
		return
	}
	if s.epoch.Load() != epoch {
		_ = s.cache.Delete(ctx, key)
	}
}

func (s *Service) build(ctx context.Context, rangeDays int) (Report, error) {
	now := s.now()
	rangeStart := now.Add(-time.Duration(rangeDays) * 24 * time.Hour)

	all, err := s.source.ListCompletedPurchases(ctx, time.Time{})
	if err != nil {
		return Report{}, fmt.Errorf("loading purchases: %w", err)
	}
	registrations, err := s.source.ListRegistrationTimes(ctx, time.Time{})
	if err != nil {
		return Report{}, fmt.Errorf("loading registrations: %w", err)
	}
	rangePurchases, err := s.source.ListCompletedPurchases(ctx, rangeStart)
	if err != nil {
		return Report{}, fmt.Errorf("loading purchases in range: %w", err)
	}
	rangeRegistrations, err := s.source.ListRegistrationTimes(ctx, rangeStart)
	if err != nil {
		return Report{}, fmt.Errorf("loading registrations in range: %w", err)
	}

	return Aggregate(Input{
		Purchases:          all,
		Registrations:      registrations,
		RangePurchases:     rangePurchases,
		RangeRegistrations: rangeRegistrations,
		RangeDays:          rangeDays,
		Now:                now,
	}), nil
}

// Invalidate drops every cached report.
func (s *Service) Invalidate(ctx context.Context) {
	s.epoch.Add(1)
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, cacheKeyPrefix); err != nil {
		s.logger.Warn("failed to invalidate analytics cache", "error", err)
	}
}

// Warm precomputes the report for every range option.
func (s *Service) Warm(ctx context.Context) error {
	for _, days := range RangeOptions {
		if r := s.Report(ctx, days); r.IsError() {
			return r.Err()
		}
	}
	return nil
}
