// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// Event levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories
const (
	EventCategoryAuth      = "auth"
	EventCategoryContent   = "content"
	EventCategoryUser      = "user"
	EventCategorySettings  = "settings"
	EventCategoryPurchase  = "purchase"
	EventCategorySystem    = "system"
	EventCategoryCache     = "cache"
	EventCategoryScheduler = "scheduler"
)

// Event represents an audit log entry.
type Event struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	UserID    sql.NullString
	Metadata  string // JSON string
	IPAddress string
	CreatedAt time.Time

	UserName  string
	UserEmail string
}

// ValidEventLevels lists the event levels in display order.
var ValidEventLevels = []string{EventLevelInfo, EventLevelWarning, EventLevelError}

// EventCategories lists the event categories in display order.
var EventCategories = []string{
	EventCategoryAuth, EventCategoryContent, EventCategoryUser, EventCategorySettings,
	EventCategoryPurchase, EventCategorySystem, EventCategoryCache, EventCategoryScheduler,
}
