// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers for the muthawwif project.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/olegiv/muthawwif-go/internal/auth"
	"github.com/olegiv/muthawwif-go/internal/model"
	"github.com/olegiv/muthawwif-go/internal/store"
)

// TestPassword is the plain-text password of profiles made by CreateProfile.
const TestPassword = "testpassword123"

// TestLogger creates a test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// TestLoggerSilent creates a logger that discards everything.
func TestLoggerSilent() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestDB creates a temporary SQLite database with all migrations applied.
// The database is closed when the test ends.
func TestDB(t *testing.T) *store.DB {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "muthawwif-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := store.NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := store.Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	return db
}

// CreateProfile inserts an active profile with TestPassword.
func CreateProfile(t *testing.T, db *store.DB, email, role string) model.Profile {
	t.Helper()

	hash, err := auth.HashPassword(TestPassword)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	p, err := store.New(db).CreateProfile(context.Background(), store.CreateProfileParams{
		Email:        email,
		FullName:     "Test " + role,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}
	return p
}

// CreateCategory inserts an active category.
func CreateCategory(t *testing.T, db *store.DB, name, slug string) int64 {
	t.Helper()

	id, err := store.New(db).CreateCategory(context.Background(), model.Category{
		Name:      name,
		Slug:      slug,
		IsActive:  true,
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	return id
}

// CreateProduct inserts an active digital product priced in rupiah.
func CreateProduct(t *testing.T, db *store.DB, title, slug string, price int64) int64 {
	t.Helper()

	id, err := store.New(db).CreateProduct(context.Background(), store.ProductParams{
		Title:       title,
		Slug:        slug,
		Description: "Deskripsi " + title,
		Price:       price,
		ProductType: model.ProductTypeDigital,
		IsActive:    true,
	}, time.Now())
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	return id
}
