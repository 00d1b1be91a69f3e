// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a slog handler that copies warnings and errors
// into the audit event log.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/olegiv/muthawwif-go/internal/middleware"
	"github.com/olegiv/muthawwif-go/internal/model"
	"github.com/olegiv/muthawwif-go/internal/store"
)

// ParseLevel maps a configured level name to a slog.Level. Unknown names
// fall back to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// EventLogHandler is a slog.Handler that wraps another handler and also writes
// WARN and ERROR level logs to the events table.
type EventLogHandler struct {
	inner   slog.Handler
	queries *store.Queries
	level   slog.Level // minimum level persisted
	attrs   []slog.Attr
}

// NewEventLogHandler creates a new EventLogHandler that wraps the given handler.
func NewEventLogHandler(inner slog.Handler, db *store.DB) *EventLogHandler {
	return NewEventLogHandlerWithLevel(inner, db, slog.LevelWarn)
}

// NewEventLogHandlerWithLevel creates a new EventLogHandler with a custom minimum level.
func NewEventLogHandlerWithLevel(inner slog.Handler, db *store.DB, level slog.Level) *EventLogHandler {
	return &EventLogHandler{
		inner:   inner,
		queries: store.New(db),
		level:   level,
	}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level) || level >= h.level
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.inner.Enabled(ctx, r.Level) {
		if err := h.inner.Handle(ctx, r); err != nil {
			return err
		}
	}

	if r.Level >= h.level {
		h.writeToEventLog(ctx, r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &EventLogHandler{
		inner:   h.inner.WithAttrs(attrs),
		queries: h.queries,
		level:   h.level,
		attrs:   append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

// WithGroup implements slog.Handler.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	return &EventLogHandler{
		inner:   h.inner.WithGroup(name),
		queries: h.queries,
		level:   h.level,
		attrs:   h.attrs,
	}
}

// writeToEventLog persists a record. Failures are dropped: logging them
// would recurse into this handler.
func (h *EventLogHandler) writeToEventLog(ctx context.Context, r slog.Record) {
	fields := make(map[string]any, r.NumAttrs()+len(h.attrs)+1)
	for _, a := range h.attrs {
		fields[a.Key] = a.Value.Resolve().Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		fields[a.Key] = a.Value.Resolve().Any()
		return true
	})
	if path := middleware.GetRequestPath(ctx); path != "" {
		if _, ok := fields["path"]; !ok {
			fields["path"] = path
		}
	}

	category := extractCategory(r.Message, fields)
	delete(fields, "category")

	var userID sql.NullString
	if id, ok := fields["user_id"].(string); ok && id != "" {
		userID = sql.NullString{String: id, Valid: true}
	}
	ip, _ := fields["ip"].(string)

	_ = h.queries.CreateEvent(context.WithoutCancel(ctx), store.CreateEventParams{
		Level:     slogLevelToEventLevel(r.Level),
		Category:  category,
		Message:   r.Message,
		UserID:    userID,
		Metadata:  marshalMetadata(fields),
		IPAddress: ip,
		CreatedAt: r.Time,
	})
}

// slogLevelToEventLevel converts a slog.Level to an event level.
func slogLevelToEventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.EventLevelError
	case level >= slog.LevelWarn:
		return model.EventLevelWarning
	default:
		return model.EventLevelInfo
	}
}

// extractCategory prefers an explicit "category" attribute and otherwise
// infers one from the message.
func extractCategory(message string, fields map[string]any) string {
	if c, ok := fields["category"].(string); ok && c != "" {
		return c
	}

	msg := strings.ToLower(message)
	switch {
	case containsAny(msg, "auth", "login", "logout", "access denied", "token", "csrf"):
		return model.EventCategoryAuth
	case containsAny(msg, "purchase", "order", "payment"):
		return model.EventCategoryPurchase
	case containsAny(msg, "post", "product", "content", "category", "consultation"):
		return model.EventCategoryContent
	case strings.Contains(msg, "user") || strings.Contains(msg, "profile"):
		return model.EventCategoryUser
	case strings.Contains(msg, "setting"):
		return model.EventCategorySettings
	case strings.Contains(msg, "cache"):
		return model.EventCategoryCache
	default:
		return model.EventCategorySystem
	}
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// marshalMetadata encodes fields as a JSON object. Values that cannot be
// encoded (errors, channels) are stored by their string form.
func marshalMetadata(fields map[string]any) string {
	if len(fields) == 0 {
		return "{}"
	}
	for k, v := range fields {
		switch val := v.(type) {
		case error:
			fields[k] = val.Error()
		case string, bool, int64, uint64, float64, nil:
		default:
			if _, err := json.Marshal(val); err != nil {
				fields[k] = slog.AnyValue(val).String()
			}
		}
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return "{}"
	}
	return string(b)
}
