// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/muthawwif-go/internal/store"
)

// DefaultJobTimeout bounds a job run when the job sets no timeout.
const DefaultJobTimeout = 5 * time.Minute

// ErrJobNotFound is returned for an unknown job name.
var ErrJobNotFound = errors.New("job not found")

// Job is a unit of periodic maintenance work.
type Job struct {
	Name        string
	Description string
	Schedule    string // default cron expression
	Timeout     time.Duration
	Run         func(ctx context.Context) error
}

// registeredJob holds a job with its cron entry.
type registeredJob struct {
	job      Job
	schedule string // effective schedule (override or default)
	entryID  cron.EntryID
}

// JobInfo is the public view of a registered job.
type JobInfo struct {
	Name            string
	Description     string
	DefaultSchedule string
	Schedule        string // effective schedule
	IsOverridden    bool
	LastRun         time.Time
	NextRun         time.Time
}

// Registry tracks the scheduled jobs and their schedule overrides.
type Registry struct {
	queries *store.Queries
	cron    *cron.Cron
	logger  *slog.Logger
	mu      sync.RWMutex
	jobs    map[string]*registeredJob
}

// NewRegistry creates a registry that schedules jobs on c. A nil queries
// disables schedule overrides.
func NewRegistry(queries *store.Queries, c *cron.Cron, logger *slog.Logger) *Registry {
	return &Registry{
		queries: queries,
		cron:    c,
		logger:  logger,
		jobs:    make(map[string]*registeredJob),
	}
}

// ValidateSchedule checks a standard five-field cron expression or a
// descriptor such as "@hourly".
func ValidateSchedule(expr string) error {
	if _, err := cron.ParseStandard(expr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return nil
}

// effectiveSchedule returns the stored override if one exists and is
// valid, otherwise the default.
func (r *Registry) effectiveSchedule(name, defaultSchedule string) string {
	if r.queries == nil {
		return defaultSchedule
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	override, err := r.queries.GetSchedulerOverride(ctx, name)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			r.logger.Warn("failed to load schedule override", "error", err, "job", name)
		}
		return defaultSchedule
	}
	if ValidateSchedule(override) != nil {
		r.logger.Warn("ignoring invalid schedule override", "job", name, "schedule", override)
		return defaultSchedule
	}
	return override
}

// Register adds a job to the cron instance on its effective schedule.
func (r *Registry) Register(job Job) error {
	if job.Run == nil {
		return fmt.Errorf("job %s has no run function", job.Name)
	}
	if job.Timeout <= 0 {
		job.Timeout = DefaultJobTimeout
	}
	if err := ValidateSchedule(job.Schedule); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[job.Name]; exists {
		return fmt.Errorf("job %s already registered", job.Name)
	}

	schedule := r.effectiveSchedule(job.Name, job.Schedule)
	entryID, err := r.cron.AddFunc(schedule, r.wrap(job))
	if err != nil {
		return fmt.Errorf("scheduling %s: %w", job.Name, err)
	}

	r.jobs[job.Name] = &registeredJob{job: job, schedule: schedule, entryID: entryID}
	r.logger.Debug("registered scheduled job", "name", job.Name, "schedule", schedule)
	return nil
}

// wrap turns a job into a cron func with its own timeout.
func (r *Registry) wrap(job Job) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), job.Timeout)
		defer cancel()
		r.execute(ctx, job)
	}
}

func (r *Registry) execute(ctx context.Context, job Job) error {
	start := time.Now()
	err := job.Run(ctx)
	if err != nil {
		r.logger.Error("scheduled job failed", "job", job.Name, "error", err, "duration", time.Since(start))
		return err
	}
	r.logger.Debug("scheduled job finished", "job", job.Name, "duration", time.Since(start))
	return nil
}

// List returns all registered jobs sorted by name.
func (r *Registry) List() []JobInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]JobInfo, 0, len(r.jobs))
	for _, rj := range r.jobs {
		entry := r.cron.Entry(rj.entryID)
		out = append(out, JobInfo{
			Name:            rj.job.Name,
			Description:     rj.job.Description,
			DefaultSchedule: rj.job.Schedule,
			Schedule:        rj.schedule,
			IsOverridden:    rj.schedule != rj.job.Schedule,
			LastRun:         entry.Prev,
			NextRun:         entry.Next,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// TriggerNow runs a job immediately on the caller's goroutine, bounded by
// the job's timeout and ctx.
func (r *Registry) TriggerNow(ctx context.Context, name string) error {
	r.mu.RLock()
	rj, ok := r.jobs[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}

	r.logger.Info("manually triggering job", "name", name)
	ctx, cancel := context.WithTimeout(ctx, rj.job.Timeout)
	defer cancel()
	return r.execute(ctx, rj.job)
}

// UpdateSchedule moves a job to a new schedule and persists the override.
func (r *Registry) UpdateSchedule(ctx context.Context, name, schedule string) error {
	if err := ValidateSchedule(schedule); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rj, ok := r.jobs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	if err := r.reschedule(rj, schedule); err != nil {
		return err
	}

	if r.queries != nil {
		if err := r.queries.UpsertSchedulerOverride(ctx, name, schedule, time.Now()); err != nil {
			r.logger.Error("failed to persist schedule override", "error", err, "name", name)
		}
	}

	r.logger.Info("updated job schedule", "name", name, "schedule", schedule)
	return nil
}

// ResetSchedule removes the override and restores the default schedule.
func (r *Registry) ResetSchedule(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rj, ok := r.jobs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	if rj.schedule == rj.job.Schedule {
		return nil // Already at default
	}
	if err := r.reschedule(rj, rj.job.Schedule); err != nil {
		return err
	}

	if r.queries != nil {
		if err := r.queries.DeleteSchedulerOverride(ctx, name); err != nil {
			r.logger.Error("failed to remove schedule override", "error", err, "name", name)
		}
	}

	r.logger.Info("reset job schedule to default", "name", name, "schedule", rj.job.Schedule)
	return nil
}

// reschedule swaps the cron entry of rj. The caller holds r.mu.
func (r *Registry) reschedule(rj *registeredJob, schedule string) error {
	r.cron.Remove(rj.entryID)
	entryID, err := r.cron.AddFunc(schedule, r.wrap(rj.job))
	if err != nil {
		// Re-add with old schedule on failure
		fallbackID, fallbackErr := r.cron.AddFunc(rj.schedule, r.wrap(rj.job))
		if fallbackErr != nil {
			return fmt.Errorf("critical: failed to restore schedule after update failure: %w (original: %w)", fallbackErr, err)
		}
		rj.entryID = fallbackID
		return fmt.Errorf("failed to apply new schedule: %w", err)
	}
	rj.entryID = entryID
	rj.schedule = schedule
	return nil
}
