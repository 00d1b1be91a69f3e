// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/muthawwif-go/internal/model"
)

var profileColumns = []string{
	"p.id", "p.email", "p.full_name", "p.password_hash", "p.role",
	"p.is_active", "p.created_at", "p.updated_at", "p.last_login_at",
}

// ProfilesQuery selects profiles aliased as "p".
func ProfilesQuery() *Query {
	return Select("profiles p", profileColumns...)
}

func scanProfile(s scanner) (model.Profile, error) {
	var p model.Profile
	err := s.Scan(&p.ID, &p.Email, &p.FullName, &p.PasswordHash, &p.Role,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt, &p.LastLoginAt)
	return p, err
}

// ListProfiles runs a query built from ProfilesQuery.
func (q *Queries) ListProfiles(ctx context.Context, query *Query) ([]model.Profile, error) {
	sqlStr, args := query.Build()
	rows, err := q.db.query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var profiles []model.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// GetProfileByID returns one profile or ErrNotFound.
func (q *Queries) GetProfileByID(ctx context.Context, id string) (model.Profile, error) {
	sqlStr, args := ProfilesQuery().Where(Eq("p.id", id)).Build()
	p, err := scanProfile(q.db.queryRow(ctx, sqlStr, args...))
	return p, notFound(err)
}

// GetProfileByEmail looks a profile up by its normalized email.
func (q *Queries) GetProfileByEmail(ctx context.Context, email string) (model.Profile, error) {
	sqlStr, args := ProfilesQuery().Where(Eq("p.email", NormalizeEmail(email))).Build()
	p, err := scanProfile(q.db.queryRow(ctx, sqlStr, args...))
	return p, notFound(err)
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateProfileParams holds the fields for a new profile.
type CreateProfileParams struct {
	Email        string
	FullName     string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
}

// CreateProfile inserts a profile with a fresh UUID.
func (q *Queries) CreateProfile(ctx context.Context, arg CreateProfileParams) (model.Profile, error) {
	if arg.Role == "" {
		arg.Role = model.RoleUser
	}
	p := model.Profile{
		ID:           uuid.NewString(),
		Email:        NormalizeEmail(arg.Email),
		FullName:     strings.TrimSpace(arg.FullName),
		PasswordHash: arg.PasswordHash,
		Role:         arg.Role,
		IsActive:     arg.IsActive,
		CreatedAt:    arg.CreatedAt.UTC(),
		UpdatedAt:    arg.CreatedAt.UTC(),
	}

	_, err := q.db.exec(ctx,
		`INSERT INTO profiles (id, email, full_name, password_hash, role, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Email, p.FullName, p.PasswordHash, p.Role, p.IsActive, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return model.Profile{}, fmt.Errorf("creating profile: %w", err)
	}
	return p, nil
}

// UpdateProfileName changes the display name.
func (q *Queries) UpdateProfileName(ctx context.Context, id, fullName string, now time.Time) error {
	_, err := q.db.UpdateByIDs(ctx, "profiles", []any{id},
		Set("full_name", strings.TrimSpace(fullName)), Set("updated_at", now.UTC()))
	return err
}

// UpdateProfilePassword stores a new password hash.
func (q *Queries) UpdateProfilePassword(ctx context.Context, id, hash string, now time.Time) error {
	_, err := q.db.UpdateByIDs(ctx, "profiles", []any{id},
		Set("password_hash", hash), Set("updated_at", now.UTC()))
	return err
}

// SetProfilesRole assigns role to every listed profile.
func (q *Queries) SetProfilesRole(ctx context.Context, ids []string, role string, now time.Time) (int64, error) {
	return q.db.UpdateByIDs(ctx, "profiles", StringIDs(ids),
		Set("role", role), Set("updated_at", now.UTC()))
}

// SetProfilesActive activates or deactivates every listed profile.
func (q *Queries) SetProfilesActive(ctx context.Context, ids []string, active bool, now time.Time) (int64, error) {
	return q.db.UpdateByIDs(ctx, "profiles", StringIDs(ids),
		Set("is_active", active), Set("updated_at", now.UTC()))
}

// TouchLastLogin records a successful sign-in.
func (q *Queries) TouchLastLogin(ctx context.Context, id string, now time.Time) error {
	_, err := q.db.UpdateByIDs(ctx, "profiles", []any{id}, Set("last_login_at", now.UTC()))
	return err
}
