// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the periodic maintenance jobs: expiring unpaid
// purchases, warming the analytics cache and pruning logs and in-memory
// limiter state.
package scheduler

import (
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/muthawwif-go/internal/store"
)

// Scheduler owns the cron instance and its job registry.
type Scheduler struct {
	cron     *cron.Cron
	registry *Registry
	logger   *slog.Logger
}

// New creates a scheduler. Panicking jobs are recovered and a job still
// running when its next tick arrives is skipped. queries may be nil.
func New(queries *store.Queries, logger *slog.Logger) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelWarn))
	c := cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
	return &Scheduler{
		cron:     c,
		registry: NewRegistry(queries, c, logger),
		logger:   logger,
	}
}

// Registry returns the job registry.
func (s *Scheduler) Registry() *Registry {
	return s.registry
}

// Start begins running registered jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}
