// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/muthawwif-go/internal/auth"
	"github.com/olegiv/muthawwif-go/internal/model"
)

// Default site administrator credentials
const (
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "changeme1234"
	DefaultAdminName     = "Administrator"
)

// SeedOptions overrides the seeded administrator account.
type SeedOptions struct {
	AdminEmail    string
	AdminPassword string
}

// Seed creates initial data in the database. It is a no-op once the
// administrator account exists.
func Seed(ctx context.Context, db *DB, opts SeedOptions) error {
	queries := New(db)

	if opts.AdminEmail == "" {
		opts.AdminEmail = DefaultAdminEmail
	}
	if opts.AdminPassword == "" {
		opts.AdminPassword = DefaultAdminPassword
	}

	// Check if admin user already exists
	_, err := queries.GetProfileByEmail(ctx, opts.AdminEmail)
	if err == nil {
		slog.Info("admin user already exists, skipping seed")
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("checking for admin user: %w", err)
	}

	passwordHash, err := auth.HashPassword(opts.AdminPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now()
	admin, err := queries.CreateProfile(ctx, CreateProfileParams{
		Email:        opts.AdminEmail,
		FullName:     DefaultAdminName,
		PasswordHash: passwordHash,
		Role:         model.RoleAdmin,
		IsActive:     true,
		CreatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	slog.Info("created default admin user", "id", admin.ID, "email", admin.Email)

	if err := seedCategories(ctx, queries, now); err != nil {
		return err
	}
	if err := seedSettings(ctx, queries, now); err != nil {
		return err
	}
	if _, err := queries.CreateTestimonials(ctx, defaultTestimonials, now); err != nil {
		return fmt.Errorf("seeding testimonials: %w", err)
	}

	return nil
}

var defaultCategories = []model.Category{
	{Name: "Panduan Umrah", Slug: "panduan-umrah", Color: "#10b981", Icon: "book", IsActive: true},
	{Name: "Panduan Haji", Slug: "panduan-haji", Color: "#0ea5e9", Icon: "kaaba", IsActive: true},
	{Name: "Doa & Dzikir", Slug: "doa-dzikir", Color: "#f59e0b", Icon: "hands", IsActive: true},
	{Name: "Tips Perjalanan", Slug: "tips-perjalanan", Color: "#8b5cf6", Icon: "plane", IsActive: true},
}

func seedCategories(ctx context.Context, queries *Queries, now time.Time) error {
	for _, c := range defaultCategories {
		c.CreatedAt = now
		if _, err := queries.CreateCategory(ctx, c); err != nil {
			return fmt.Errorf("seeding category %s: %w", c.Slug, err)
		}
	}
	return nil
}

var defaultSettings = map[string]map[string]string{
	model.SettingSiteInfo: {
		"site_name":   "Muthawwif",
		"tagline":     "Pembimbing Ibadah Haji & Umrah",
		"description": "Bimbingan manasik, panduan digital dan konsultasi perjalanan ibadah.",
	},
	model.SettingContactInfo: {
		"email":        "info@example.com",
		"office_hours": "Senin - Jumat, 09.00 - 17.00 WIB",
	},
	model.SettingSocialMedia:     {},
	model.SettingPaymentSettings: {},
	model.SettingSEOSettings: {
		"meta_title": "Muthawwif - Pembimbing Haji & Umrah",
	},
}

func seedSettings(ctx context.Context, queries *Queries, now time.Time) error {
	for _, key := range model.SettingKeys {
		value, err := json.Marshal(defaultSettings[key])
		if err != nil {
			return fmt.Errorf("encoding setting %s: %w", key, err)
		}
		if err := queries.UpsertSetting(ctx, key, string(value), model.IsPublicSetting(key), now); err != nil {
			return err
		}
	}
	return nil
}

var defaultTestimonials = []model.Testimonial{
	{
		Name:       "Hj. Siti Aminah",
		RoleTitle:  "Jamaah Umrah 2024",
		Content:    "Bimbingannya sabar dan jelas, ibadah terasa lebih khusyuk.",
		Rating:     5,
		IsActive:   true,
		IsFeatured: true,
		SortOrder:  1,
	},
	{
		Name:       "Bapak Ahmad Fauzi",
		RoleTitle:  "Jamaah Haji 2023",
		Content:    "Panduan manasiknya sangat membantu sejak sebelum berangkat.",
		Rating:     5,
		IsActive:   true,
		IsFeatured: true,
		SortOrder:  2,
	},
}
