// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service holds the application services shared by the HTML and
// JSON handlers: the audit trail and account management.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/olegiv/muthawwif-go/internal/auth"
	"github.com/olegiv/muthawwif-go/internal/model"
	"github.com/olegiv/muthawwif-go/internal/store"
)

// EventService provides event logging functionality.
type EventService struct {
	queries *store.Queries
	now     func() time.Time
}

// NewEventService creates a new EventService.
func NewEventService(queries *store.Queries) *EventService {
	return &EventService{
		queries: queries,
		now:     time.Now,
	}
}

// LogEvent creates a new event log entry. An empty userID is stored as NULL.
func (s *EventService) LogEvent(ctx context.Context, level, category, message, userID, ipAddress string, metadata map[string]any) error {
	metadataJSON := "{}"
	if metadata != nil {
		if b, err := json.Marshal(metadata); err == nil {
			metadataJSON = string(b)
		}
	}

	err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     level,
		Category:  category,
		Message:   message,
		UserID:    sql.NullString{String: userID, Valid: userID != ""},
		Metadata:  metadataJSON,
		IPAddress: ipAddress,
		CreatedAt: s.now(),
	})
	if err != nil {
		slog.Error("failed to log event", "error", err, "category", category)
		return err
	}
	return nil
}

// LogInfo logs an info-level event.
func (s *EventService) LogInfo(ctx context.Context, category, message, userID, ipAddress string, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelInfo, category, message, userID, ipAddress, metadata)
}

// LogWarning logs a warning-level event.
func (s *EventService) LogWarning(ctx context.Context, category, message, userID, ipAddress string, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelWarning, category, message, userID, ipAddress, metadata)
}

// LogAuthEvent logs an authentication-related event.
func (s *EventService) LogAuthEvent(ctx context.Context, level, message, userID, ipAddress string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategoryAuth, message, userID, ipAddress, metadata)
}

// LogContentEvent logs a post or product change.
func (s *EventService) LogContentEvent(ctx context.Context, message, userID, ipAddress string, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelInfo, model.EventCategoryContent, message, userID, ipAddress, metadata)
}

// LogUserEvent logs a change to another profile.
func (s *EventService) LogUserEvent(ctx context.Context, message, userID, ipAddress string, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelInfo, model.EventCategoryUser, message, userID, ipAddress, metadata)
}

// LogSettingsEvent logs a site settings change.
func (s *EventService) LogSettingsEvent(ctx context.Context, message, userID, ipAddress string, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelInfo, model.EventCategorySettings, message, userID, ipAddress, metadata)
}

// LogPurchaseEvent logs a payment status change.
func (s *EventService) LogPurchaseEvent(ctx context.Context, message, userID, ipAddress string, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelInfo, model.EventCategoryPurchase, message, userID, ipAddress, metadata)
}

// LogSchedulerEvent logs a manual change to a scheduled job.
func (s *EventService) LogSchedulerEvent(ctx context.Context, message, userID, ipAddress string, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelInfo, model.EventCategoryScheduler, message, userID, ipAddress, metadata)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *EventService) DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	return s.queries.DeleteEventsBefore(ctx, s.now().Add(-olderThan))
}

// RecordSessionEvents writes every event received from events into the
// audit log until the channel is closed.
func (s *EventService) RecordSessionEvents(ctx context.Context, events <-chan auth.SessionEvent) {
	for ev := range events {
		msg := sessionEventMessages[ev.Kind]
		if msg == "" {
			msg = string(ev.Kind)
		}
		_ = s.LogAuthEvent(context.WithoutCancel(ctx), model.EventLevelInfo, msg, ev.ProfileID, ev.IP, nil)
	}
}

var sessionEventMessages = map[auth.SessionEventKind]string{
	auth.SignedIn:  "User signed in",
	auth.SignedOut: "User signed out",
	auth.SignedUp:  "User signed up",
}
