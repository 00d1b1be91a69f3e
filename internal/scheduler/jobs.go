// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/olegiv/muthawwif-go/internal/analytics"
	"github.com/olegiv/muthawwif-go/internal/listing"
	"github.com/olegiv/muthawwif-go/internal/middleware"
	"github.com/olegiv/muthawwif-go/internal/service"
	"github.com/olegiv/muthawwif-go/internal/store"
)

// Names of the built-in jobs.
const (
	JobExpirePurchases = "expire_purchases"
	JobWarmAnalytics   = "warm_analytics"
	JobPruneEvents     = "prune_events"
	JobPruneMemory     = "prune_memory"
)

const (
	trackerMaxIdle    = 30 * time.Minute
	rateLimiterMaxIPs = 10000
)

// Deps are the collaborators the built-in jobs act on. Nil members skip
// the corresponding work.
type Deps struct {
	Queries            *store.Queries
	Events             *service.EventService
	Analytics          *analytics.Service
	Tracker            *listing.Tracker
	Limiter            *middleware.RateLimiter
	LoginProtection    *middleware.LoginProtection
	PendingPurchaseTTL time.Duration
	EventRetention     time.Duration
	Logger             *slog.Logger
}

// CoreJobs returns the built-in maintenance jobs.
func CoreJobs(d Deps) []Job {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return []Job{
		{
			Name:        JobExpirePurchases,
			Description: "Mark pending purchases older than the payment window as expired",
			Schedule:    "0 * * * *",
			Run: func(ctx context.Context) error {
				if d.Queries == nil || d.PendingPurchaseTTL <= 0 {
					return nil
				}
				now := time.Now()
				n, err := d.Queries.ExpirePendingPurchases(ctx, now.Add(-d.PendingPurchaseTTL), now)
				if err != nil {
					return err
				}
				if n > 0 {
					logger.Info("expired pending purchases", "count", n)
					if d.Analytics != nil {
						d.Analytics.Invalidate(ctx)
					}
				}
				return nil
			},
		},
		{
			Name:        JobWarmAnalytics,
			Description: "Precompute the default analytics report",
			Schedule:    "*/15 * * * *",
			Run: func(ctx context.Context) error {
				if d.Analytics == nil {
					return nil
				}
				return d.Analytics.Warm(ctx)
			},
		},
		{
			Name:        JobPruneEvents,
			Description: "Delete event log entries past the retention period",
			Schedule:    "30 3 * * *",
			Run: func(ctx context.Context) error {
				if d.Events == nil || d.EventRetention <= 0 {
					return nil
				}
				n, err := d.Events.DeleteOldEvents(ctx, d.EventRetention)
				if err != nil {
					return err
				}
				if n > 0 {
					logger.Info("pruned old events", "count", n)
				}
				return nil
			},
		},
		{
			Name:        JobPruneMemory,
			Description: "Drop idle listing trackers and rate limiter entries",
			Schedule:    "*/10 * * * *",
			Timeout:     time.Minute,
			Run: func(ctx context.Context) error {
				var trackers, logins int
				if d.Tracker != nil {
					trackers = d.Tracker.Prune(trackerMaxIdle)
				}
				if d.Limiter != nil && d.Limiter.Prune(rateLimiterMaxIPs) {
					logger.Info("rate limiter state reset")
				}
				if d.LoginProtection != nil {
					logins = d.LoginProtection.Cleanup()
				}
				logger.Debug("pruned in-memory state", "trackers", trackers, "login_entries", logins)
				return ctx.Err()
			},
		},
	}
}

// RegisterCoreJobs registers every built-in job on s.
func RegisterCoreJobs(s *Scheduler, d Deps) error {
	var errs []error
	for _, job := range CoreJobs(d) {
		if err := s.Registry().Register(job); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
