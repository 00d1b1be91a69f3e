// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session configures the scs session manager for the active database.
package session

import (
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"

	"github.com/olegiv/muthawwif-go/internal/store"
)

// Session keys shared by middleware and handlers.
const (
	KeyUserID    = "user_id"
	KeyFlash     = "flash"
	KeyFlashType = "flash_type"
)

// Lifetime is how long a session survives without renewal.
const Lifetime = 24 * time.Hour

// cookieName is used in development where the __Host- prefix cannot be
// satisfied over plain HTTP.
const cookieName = "mtw_session"

// New creates a session manager. SQLite databases keep sessions in the
// sessions table; MySQL and PostgreSQL deployments use an in-process store.
func New(db *store.DB, isDev bool) *scs.SessionManager {
	sm := scs.New()

	if db != nil && db.Dialect == store.DialectSQLite {
		sm.Store = sqlite3store.New(db.DB)
	} else {
		sm.Store = memstore.New()
	}

	sm.Lifetime = Lifetime
	sm.Cookie.Name = cookieName
	sm.Cookie.Path = "/"
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = !isDev
	if !isDev {
		sm.Cookie.Name = "__Host-" + cookieName
	}

	return sm
}
