// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/olegiv/muthawwif-go/internal/model"
)

var consultationColumns = []string{
	"id", "name", "email", "phone", "consultation_type", "preferred_date",
	"message", "user_id", "status", "created_at",
}

// ConsultationsQuery selects consultation requests.
func ConsultationsQuery() *Query {
	return Select("consultations", consultationColumns...)
}

// ListConsultations runs a query built from ConsultationsQuery.
func (q *Queries) ListConsultations(ctx context.Context, query *Query) ([]model.Consultation, error) {
	sqlStr, args := query.Build()
	rows, err := q.db.query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("listing consultations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Consultation
	for rows.Next() {
		var c model.Consultation
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.ConsultationType, &c.PreferredDate,
			&c.Message, &c.UserID, &c.Status, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning consultation: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateConsultation stores a contact form submission.
func (q *Queries) CreateConsultation(ctx context.Context, c model.Consultation, now time.Time) (int64, error) {
	if c.ConsultationType == "" {
		c.ConsultationType = model.ConsultationTypeGeneral
	}
	if c.Status == "" {
		c.Status = model.ConsultationStatusNew
	}
	id, err := q.db.insertReturningID(ctx,
		`INSERT INTO consultations (name, email, phone, consultation_type, preferred_date, message, user_id, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.Email, c.Phone, c.ConsultationType, c.PreferredDate, c.Message, c.UserID, c.Status, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("creating consultation: %w", err)
	}
	return id, nil
}

// UpdateConsultationStatus changes a consultation's status.
func (q *Queries) UpdateConsultationStatus(ctx context.Context, id int64, status string) error {
	n, err := q.db.UpdateByIDs(ctx, "consultations", []any{id}, Set("status", status))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
