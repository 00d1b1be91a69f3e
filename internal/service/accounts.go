// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/olegiv/muthawwif-go/internal/auth"
	"github.com/olegiv/muthawwif-go/internal/model"
	"github.com/olegiv/muthawwif-go/internal/store"
)

// Account errors.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("account is deactivated")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrNameRequired       = errors.New("full name is required")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWrongPassword      = errors.New("current password is incorrect")
)

// LockedError is returned while an account is locked out.
type LockedError struct {
	Remaining time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account locked for %s", e.Remaining)
}

// CredentialsError is a failed sign-in. RemainingAttempts is how many tries
// are left before lockout, or -1 without login protection.
type CredentialsError struct {
	RemainingAttempts int
}

func (e *CredentialsError) Error() string { return ErrInvalidCredentials.Error() }

// Is makes errors.Is(err, ErrInvalidCredentials) match.
func (e *CredentialsError) Is(target error) bool { return target == ErrInvalidCredentials }

// LoginGuard tracks failed sign-ins per email.
// middleware.LoginProtection implements it.
type LoginGuard interface {
	Locked(email string) (time.Duration, bool)
	RecordFailure(email string) (time.Duration, bool)
	Reset(email string)
	AttemptsLeft(email string) int
}

// AccountService signs profiles in and out, registers them and updates
// their details. Every presence change is published on the broker.
type AccountService struct {
	queries *store.Queries
	events  *EventService
	guard   LoginGuard
	broker  *auth.Broker
	now     func() time.Time
}

// NewAccountService creates an AccountService. guard and broker may be nil.
func NewAccountService(queries *store.Queries, events *EventService, guard LoginGuard, broker *auth.Broker) *AccountService {
	return &AccountService{
		queries: queries,
		events:  events,
		guard:   guard,
		broker:  broker,
		now:     time.Now,
	}
}

// SignIn checks credentials and returns the profile. It does not touch the
// HTTP session; the caller stores the profile id or issues a token.
func (s *AccountService) SignIn(ctx context.Context, email, password, ip string) (model.Profile, error) {
	email = store.NormalizeEmail(email)

	if s.guard != nil {
		if remaining, locked := s.guard.Locked(email); locked {
			_ = s.events.LogAuthEvent(ctx, model.EventLevelWarning, "Login attempt on locked account", "", ip, map[string]any{"email": email})
			return model.Profile{}, &LockedError{Remaining: remaining}
		}
	}

	profile, err := s.queries.GetProfileByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return model.Profile{}, fmt.Errorf("loading profile: %w", err)
		}
		slog.Debug("login attempt for non-existent user", "email", email)
		_ = s.events.LogAuthEvent(ctx, model.EventLevelWarning, "Login failed: user not found", "", ip, map[string]any{"email": email})
		// Unknown emails count too so lockout does not reveal which exist.
		return model.Profile{}, s.failedAttempt(ctx, email, "", ip)
	}

	valid, err := auth.CheckPassword(password, profile.PasswordHash)
	if err != nil {
		slog.Error("password check error", "error", err, "user_id", profile.ID)
	}
	if !valid {
		_ = s.events.LogAuthEvent(ctx, model.EventLevelWarning, "Login failed: invalid password", profile.ID, ip, map[string]any{"email": email})
		return model.Profile{}, s.failedAttempt(ctx, email, profile.ID, ip)
	}

	if !profile.IsActive {
		_ = s.events.LogAuthEvent(ctx, model.EventLevelWarning, "Login failed: account deactivated", profile.ID, ip, map[string]any{"email": email})
		return model.Profile{}, ErrAccountInactive
	}

	if s.guard != nil {
		s.guard.Reset(email)
	}

	if auth.NeedsRehash(profile.PasswordHash) {
		if newHash, err := auth.HashPassword(password); err == nil {
			if err := s.queries.UpdateProfilePassword(ctx, profile.ID, newHash, s.now()); err != nil {
				slog.Error("failed to re-hash password", "error", err, "user_id", profile.ID)
			} else {
				slog.Info("password re-hashed with updated parameters", "user_id", profile.ID)
			}
		}
	}

	if err := s.queries.TouchLastLogin(ctx, profile.ID, s.now()); err != nil {
		slog.Error("failed to update last login time", "error", err, "user_id", profile.ID)
	}

	s.publish(auth.SignedIn, profile.ID, ip)
	return profile, nil
}

func (s *AccountService) failedAttempt(ctx context.Context, email, profileID, ip string) error {
	if s.guard == nil {
		return &CredentialsError{RemainingAttempts: -1}
	}
	if lockDuration, locked := s.guard.RecordFailure(email); locked {
		_ = s.events.LogAuthEvent(ctx, model.EventLevelWarning, "Account locked due to failed attempts", profileID, ip,
			map[string]any{"email": email, "duration": lockDuration.String()})
		return &LockedError{Remaining: lockDuration}
	}
	return &CredentialsError{RemainingAttempts: s.guard.AttemptsLeft(email)}
}

// SignUpParams holds a registration request.
type SignUpParams struct {
	FullName string
	Email    string
	Password string
}

// Validate checks a registration request without touching the database.
func (p SignUpParams) Validate() error {
	if strings.TrimSpace(p.FullName) == "" {
		return ErrNameRequired
	}
	email := store.NormalizeEmail(p.Email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	return auth.ValidatePassword(p.Password)
}

// SignUp registers an active profile with role "user".
func (s *AccountService) SignUp(ctx context.Context, p SignUpParams, ip string) (model.Profile, error) {
	if err := p.Validate(); err != nil {
		return model.Profile{}, err
	}

	if _, err := s.queries.GetProfileByEmail(ctx, p.Email); err == nil {
		return model.Profile{}, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return model.Profile{}, fmt.Errorf("checking email: %w", err)
	}

	hash, err := auth.HashPassword(p.Password)
	if err != nil {
		return model.Profile{}, fmt.Errorf("hashing password: %w", err)
	}

	profile, err := s.queries.CreateProfile(ctx, store.CreateProfileParams{
		Email:        p.Email,
		FullName:     p.FullName,
		PasswordHash: hash,
		Role:         model.RoleUser,
		IsActive:     true,
		CreatedAt:    s.now(),
	})
	if err != nil {
		return model.Profile{}, err
	}

	slog.Info("user registered", "user_id", profile.ID, "email", profile.Email)
	s.publish(auth.SignedUp, profile.ID, ip)
	return profile, nil
}

// SignOut publishes the sign-out of profileID. An empty id is ignored.
func (s *AccountService) SignOut(profileID, ip string) {
	if profileID == "" {
		return
	}
	s.publish(auth.SignedOut, profileID, ip)
}

// ProfileUpdate changes a profile's name and, when NewPassword is set, its
// password. Changing the password requires the current one.
type ProfileUpdate struct {
	FullName        string
	CurrentPassword string
	NewPassword     string
}

// UpdateProfile applies u to the profile.
func (s *AccountService) UpdateProfile(ctx context.Context, profile model.Profile, u ProfileUpdate, ip string) error {
	name := strings.TrimSpace(u.FullName)
	if name == "" {
		return ErrNameRequired
	}

	if u.NewPassword != "" {
		if err := auth.ValidatePassword(u.NewPassword); err != nil {
			return err
		}
		valid, err := auth.CheckPassword(u.CurrentPassword, profile.PasswordHash)
		if err != nil || !valid {
			return ErrWrongPassword
		}
	}

	now := s.now()
	if name != profile.FullName {
		if err := s.queries.UpdateProfileName(ctx, profile.ID, name, now); err != nil {
			return fmt.Errorf("updating name: %w", err)
		}
	}

	if u.NewPassword != "" {
		hash, err := auth.HashPassword(u.NewPassword)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}
		if err := s.queries.UpdateProfilePassword(ctx, profile.ID, hash, now); err != nil {
			return fmt.Errorf("updating password: %w", err)
		}
		_ = s.events.LogUserEvent(ctx, "Password changed", profile.ID, ip, nil)
	}
	return nil
}

func (s *AccountService) publish(kind auth.SessionEventKind, profileID, ip string) {
	if s.broker == nil {
		return
	}
	s.broker.Publish(auth.SessionEvent{Kind: kind, ProfileID: profileID, IP: ip, At: s.now()})
}
