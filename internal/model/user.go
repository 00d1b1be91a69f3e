// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain models and types used throughout the application
// including profiles, posts, products, purchases and site settings.
package model

import (
	"database/sql"
	"time"
)

// Profile roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
	RoleOwner = "owner"
)

// ValidRoles lists all assignable profile roles.
var ValidRoles = []string{RoleUser, RoleAdmin, RoleOwner}

// IsValidRole reports whether role is one of ValidRoles.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Profile represents a registered site account.
type Profile struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	FullName     string       `json:"full_name"`
	PasswordHash string       `json:"-"` // Never expose in JSON
	Role         string       `json:"role"`
	IsActive     bool         `json:"is_active"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	LastLoginAt  sql.NullTime `json:"-"`
}

// IsAdmin returns true if the profile has the admin role.
func (p *Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// IsOwner returns true if the profile has the owner role.
func (p *Profile) IsOwner() bool {
	return p.Role == RoleOwner
}

// CanManageContent reports whether the profile may edit posts, products and settings.
func (p *Profile) CanManageContent() bool {
	return p.IsAdmin() || p.IsOwner()
}

// CanManageUsers reports whether the profile may change other profiles.
// Only admins can; owners manage content but not accounts.
func (p *Profile) CanManageUsers() bool {
	return p.IsAdmin()
}

// DisplayName returns the full name, falling back to the email.
func (p *Profile) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	return p.Email
}
