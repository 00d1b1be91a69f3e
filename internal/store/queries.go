// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

// Queries groups the typed repository methods over a DB.
type Queries struct {
	db *DB
}

// New creates Queries for db.
func New(db *DB) *Queries {
	return &Queries{db: db}
}

// DB returns the underlying database handle.
func (q *Queries) DB() *DB {
	return q.db
}

type scanner interface {
	Scan(dest ...any) error
}
