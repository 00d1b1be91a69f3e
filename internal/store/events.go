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

// CreateEventParams holds the fields of an audit log entry.
type CreateEventParams struct {
	Level     string
	Category  string
	Message   string
	UserID    sql.NullString
	Metadata  string
	IPAddress string
	CreatedAt time.Time
}

// CreateEvent appends an entry to the audit log.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) error {
	if arg.Metadata == "" {
		arg.Metadata = "{}"
	}
	_, err := q.db.exec(ctx,
		`INSERT INTO events (level, category, message, user_id, metadata, ip_address, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		arg.Level, arg.Category, arg.Message, arg.UserID, arg.Metadata, arg.IPAddress, arg.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("creating event: %w", err)
	}
	return nil
}

var eventColumns = []string{
	"e.id", "e.level", "e.category", "e.message", "e.user_id", "e.metadata",
	"e.ip_address", "e.created_at",
	"COALESCE(u.full_name, '')", "COALESCE(u.email, '')",
}

// EventsQuery selects events aliased as "e" with the acting profile ("u")
// joined in.
func EventsQuery() *Query {
	return Select("events e", eventColumns...).
		LeftJoin("profiles u", "u.id = e.user_id")
}

// ListEvents runs a query built from EventsQuery.
func (q *Queries) ListEvents(ctx context.Context, query *Query) ([]model.Event, error) {
	sqlStr, args := query.Build()
	rows, err := q.db.query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.UserID,
			&e.Metadata, &e.IPAddress, &e.CreatedAt, &e.UserName, &e.UserEmail); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ListRecentEvents returns the newest events.
func (q *Queries) ListRecentEvents(ctx context.Context, limit int) ([]model.Event, error) {
	return q.ListEvents(ctx, EventsQuery().
		OrderBy("e.created_at", true).
		OrderBy("e.id", true).
		Limit(limit))
}

// DeleteEventsBefore prunes audit entries older than cutoff.
func (q *Queries) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.exec(ctx, "DELETE FROM events WHERE created_at < ?", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("pruning events: %w", err)
	}
	return res.RowsAffected()
}
