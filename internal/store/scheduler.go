// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"time"
)

// GetSchedulerOverride returns the stored cron expression for a job, or
// ErrNotFound when the job runs on its default schedule.
func (q *Queries) GetSchedulerOverride(ctx context.Context, name string) (string, error) {
	var schedule string
	err := q.db.queryRow(ctx,
		"SELECT override_schedule FROM scheduler_overrides WHERE name = ?", name).Scan(&schedule)
	return schedule, notFound(err)
}

// UpsertSchedulerOverride stores a cron expression for a job.
func (q *Queries) UpsertSchedulerOverride(ctx context.Context, name, schedule string, now time.Time) error {
	var query string
	switch q.db.Dialect {
	case DialectMySQL:
		query = `INSERT INTO scheduler_overrides (name, override_schedule, updated_at) VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE override_schedule = VALUES(override_schedule), updated_at = VALUES(updated_at)`
	default:
		query = `INSERT INTO scheduler_overrides (name, override_schedule, updated_at) VALUES (?, ?, ?)
			ON CONFLICT (name) DO UPDATE SET override_schedule = excluded.override_schedule, updated_at = excluded.updated_at`
	}
	if _, err := q.db.exec(ctx, query, name, schedule, now.UTC()); err != nil {
		return fmt.Errorf("saving schedule override for %s: %w", name, err)
	}
	return nil
}

// DeleteSchedulerOverride restores a job's default schedule.
func (q *Queries) DeleteSchedulerOverride(ctx context.Context, name string) error {
	if _, err := q.db.exec(ctx, "DELETE FROM scheduler_overrides WHERE name = ?", name); err != nil {
		return fmt.Errorf("deleting schedule override for %s: %w", name, err)
	}
	return nil
}
