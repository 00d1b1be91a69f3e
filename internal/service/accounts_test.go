// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/olegiv/muthawwif-go/internal/auth"
	"github.com/olegiv/muthawwif-go/internal/model"
	"github.com/olegiv/muthawwif-go/internal/store"
	"github.com/olegiv/muthawwif-go/internal/testutil"
)

// fakeGuard locks an email after limit failures.
type fakeGuard struct {
	limit     int
	failures  map[string]int
	successes int
}

func newFakeGuard(limit int) *fakeGuard {
	return &fakeGuard{limit: limit, failures: make(map[string]int)}
}

func (g *fakeGuard) Locked(email string) (time.Duration, bool) {
	if g.failures[email] >= g.limit {
		return 15 * time.Minute, true
	}
	return 0, false
}

func (g *fakeGuard) RecordFailure(email string) (time.Duration, bool) {
	g.failures[email]++
	return g.Locked(email)
}

func (g *fakeGuard) Reset(email string) {
	delete(g.failures, email)
	g.successes++
}

func (g *fakeGuard) AttemptsLeft(email string) int {
	return g.limit - g.failures[email]
}

func newTestAccounts(t *testing.T, guard LoginGuard) (*AccountService, *store.Queries, *auth.Broker) {
	t.Helper()
	queries := store.New(testutil.TestDB(t))
	broker := auth.NewBroker(8)
	return NewAccountService(queries, NewEventService(queries), guard, broker), queries, broker
}

func TestSignIn(t *testing.T) {
	accounts, queries, broker := newTestAccounts(t, newFakeGuard(5))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := broker.Subscribe(ctx)

	profile := testutil.CreateProfile(t, queries.DB(), "jamaah@example.com", model.RoleUser)

	got, err := accounts.SignIn(ctx, "  JAMAAH@example.com ", testutil.TestPassword, "10.0.0.1")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if got.ID != profile.ID {
		t.Errorf("profile id = %s, want %s", got.ID, profile.ID)
	}

	select {
	case ev := <-events:
		if ev.Kind != auth.SignedIn || ev.ProfileID != profile.ID || ev.IP != "10.0.0.1" {
			t.Errorf("event = %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no signed_in event published")
	}

	reloaded, err := queries.GetProfileByID(ctx, profile.ID)
	if err != nil {
		t.Fatalf("GetProfileByID: %v", err)
	}
	if !reloaded.LastLoginAt.Valid {
		t.Error("last_login_at not recorded")
	}
}

func TestSignIn_Failures(t *testing.T) {
	guard := newFakeGuard(2)
	accounts, queries, _ := newTestAccounts(t, guard)
	ctx := context.Background()
	testutil.CreateProfile(t, queries.DB(), "jamaah@example.com", model.RoleUser)

	_, err := accounts.SignIn(ctx, "jamaah@example.com", "wrong-password", "")
	var credErr *CredentialsError
	if !errors.As(err, &credErr) {
		t.Fatalf("err = %v, want CredentialsError", err)
	}
	if credErr.RemainingAttempts != 1 {
		t.Errorf("remaining = %d, want 1", credErr.RemainingAttempts)
	}
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Error("CredentialsError should match ErrInvalidCredentials")
	}

	_, err = accounts.SignIn(ctx, "jamaah@example.com", "wrong-password", "")
	var lockErr *LockedError
	if !errors.As(err, &lockErr) {
		t.Fatalf("err = %v, want LockedError", err)
	}

	// Locked even with the right password.
	_, err = accounts.SignIn(ctx, "jamaah@example.com", testutil.TestPassword, "")
	if !errors.As(err, &lockErr) {
		t.Fatalf("err = %v, want LockedError while locked", err)
	}
}

func TestSignIn_UnknownEmailCountsAsFailure(t *testing.T) {
	guard := newFakeGuard(5)
	accounts, _, _ := newTestAccounts(t, guard)

	_, err := accounts.SignIn(context.Background(), "nobody@example.com", "whatever1", "")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	if guard.failures["nobody@example.com"] != 1 {
		t.Errorf("failures = %d, want 1", guard.failures["nobody@example.com"])
	}
}

func TestSignIn_Inactive(t *testing.T) {
	accounts, queries, _ := newTestAccounts(t, nil)
	ctx := context.Background()
	profile := testutil.CreateProfile(t, queries.DB(), "jamaah@example.com", model.RoleUser)
	if _, err := queries.SetProfilesActive(ctx, []string{profile.ID}, false, time.Now()); err != nil {
		t.Fatalf("SetProfilesActive: %v", err)
	}

	if _, err := accounts.SignIn(ctx, "jamaah@example.com", testutil.TestPassword, ""); !errors.Is(err, ErrAccountInactive) {
		t.Errorf("err = %v, want ErrAccountInactive", err)
	}
}

func TestSignUp(t *testing.T) {
	accounts, queries, broker := newTestAccounts(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := broker.Subscribe(ctx)

	profile, err := accounts.SignUp(ctx, SignUpParams{
		FullName: "Siti Aminah",
		Email:    "Siti@Example.com",
		Password: "bismillah123",
	}, "")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if profile.Role != model.RoleUser || !profile.IsActive {
		t.Errorf("profile = %+v, want active user", profile)
	}
	if profile.Email != "siti@example.com" {
		t.Errorf("email = %q, want normalized", profile.Email)
	}
	if ev := <-events; ev.Kind != auth.SignedUp {
		t.Errorf("event kind = %s, want signed_up", ev.Kind)
	}

	if _, err := accounts.SignIn(ctx, "siti@example.com", "bismillah123", ""); err != nil {
		t.Errorf("SignIn after SignUp: %v", err)
	}

	_, err = accounts.SignUp(ctx, SignUpParams{FullName: "Other", Email: "siti@example.com", Password: "bismillah123"}, "")
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate err = %v, want ErrEmailTaken", err)
	}
	if n, _ := queries.DB().Count(ctx, store.Select("profiles")); n != 1 {
		t.Errorf("profiles = %d, want 1", n)
	}
}

func TestSignUpParams_Validate(t *testing.T) {
	tests := []struct {
		name string
		p    SignUpParams
		want error
	}{
		{"valid", SignUpParams{"Ahmad", "ahmad@example.com", "12345678"}, nil},
		{"missing name", SignUpParams{" ", "ahmad@example.com", "12345678"}, ErrNameRequired},
		{"bad email", SignUpParams{"Ahmad", "ahmad", "12345678"}, ErrInvalidEmail},
		{"short password", SignUpParams{"Ahmad", "ahmad@example.com", "1234567"}, auth.ErrPasswordTooShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.p.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestUpdateProfile(t *testing.T) {
	accounts, queries, _ := newTestAccounts(t, nil)
	ctx := context.Background()
	profile := testutil.CreateProfile(t, queries.DB(), "jamaah@example.com", model.RoleUser)

	err := accounts.UpdateProfile(ctx, profile, ProfileUpdate{
		FullName:        "Ahmad Fauzi",
		CurrentPassword: "wrong",
		NewPassword:     "newpassword1",
	}, "")
	if !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("err = %v, want ErrWrongPassword", err)
	}

	err = accounts.UpdateProfile(ctx, profile, ProfileUpdate{
		FullName:        "Ahmad Fauzi",
		CurrentPassword: testutil.TestPassword,
		NewPassword:     "newpassword1",
	}, "")
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}

	reloaded, _ := queries.GetProfileByID(ctx, profile.ID)
	if reloaded.FullName != "Ahmad Fauzi" {
		t.Errorf("full_name = %q", reloaded.FullName)
	}
	if ok, _ := auth.CheckPassword("newpassword1", reloaded.PasswordHash); !ok {
		t.Error("new password not stored")
	}

	if err := accounts.UpdateProfile(ctx, reloaded, ProfileUpdate{FullName: ""}, ""); !errors.Is(err, ErrNameRequired) {
		t.Errorf("err = %v, want ErrNameRequired", err)
	}
}
