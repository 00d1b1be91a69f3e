// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const jamaahEmail = "jamaah@example.com"

// newTestLoginProtection returns a LoginProtection with a generous IP limit
// and a clock the test can move.
func newTestLoginProtection(maxFailures int, lockout, window time.Duration) (*LoginProtection, *time.Time) {
	lp := NewLoginProtection(LoginPolicy{
		IPRate:      100,
		IPBurst:     100,
		MaxFailures: maxFailures,
		Lockout:     lockout,
		Window:      window,
	})
	now := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)
	lp.now = func() time.Time { return now }
	return lp, &now
}

func TestLoginPolicy_Defaults(t *testing.T) {
	got := LoginPolicy{MaxFailures: 3}.withDefaults()
	want := DefaultLoginPolicy()
	want.MaxFailures = 3
	if got != want {
		t.Errorf("withDefaults() = %+v, want %+v", got, want)
	}
}

func TestLoginPolicy_LockoutAfter(t *testing.T) {
	p := LoginPolicy{Lockout: 15 * time.Minute}
	tests := []struct {
		lockouts int
		want     time.Duration
	}{
		{0, 15 * time.Minute},
		{1, 30 * time.Minute},
		{3, 2 * time.Hour},
		{6, 16 * time.Hour},
		{7, maxLockout},
		{40, maxLockout},
	}
	for _, tt := range tests {
		if got := p.lockoutAfter(tt.lockouts); got != tt.want {
			t.Errorf("lockoutAfter(%d) = %v, want %v", tt.lockouts, got, tt.want)
		}
	}
	if got := (LoginPolicy{Lockout: 48 * time.Hour}).lockoutAfter(0); got != maxLockout {
		t.Errorf("first lockout above the cap = %v, want %v", got, maxLockout)
	}
}

func TestLoginProtection_LocksAfterMaxFailures(t *testing.T) {
	lp, now := newTestLoginProtection(3, 10*time.Minute, time.Hour)

	for i := range 2 {
		if _, locked := lp.RecordFailure(jamaahEmail); locked {
			t.Fatalf("failure %d locked the account", i+1)
		}
	}
	if left := lp.AttemptsLeft(jamaahEmail); left != 1 {
		t.Errorf("AttemptsLeft = %d, want 1", left)
	}

	d, locked := lp.RecordFailure(jamaahEmail)
	if !locked || d != 10*time.Minute {
		t.Fatalf("third failure = (%v, %v), want (10m, true)", d, locked)
	}

	*now = now.Add(4 * time.Minute)
	if left, locked := lp.Locked(jamaahEmail); !locked || left != 6*time.Minute {
		t.Errorf("Locked = (%v, %v), want (6m, true)", left, locked)
	}
	if _, locked := lp.Locked("other@example.com"); locked {
		t.Error("other accounts must not be locked")
	}

	*now = now.Add(6 * time.Minute)
	if _, locked := lp.Locked(jamaahEmail); locked {
		t.Error("lock should end exactly when the lockout elapses")
	}
}

func TestLoginProtection_RepeatLockoutsDouble(t *testing.T) {
	lp, now := newTestLoginProtection(2, 5*time.Minute, time.Hour)

	for _, want := range []time.Duration{5 * time.Minute, 10 * time.Minute, 20 * time.Minute} {
		lp.RecordFailure(jamaahEmail)
		d, locked := lp.RecordFailure(jamaahEmail)
		if !locked || d != want {
			t.Fatalf("lockout = (%v, %v), want (%v, true)", d, locked, want)
		}
		*now = now.Add(d)
	}
}

func TestLoginProtection_WindowExpiry(t *testing.T) {
	lp, now := newTestLoginProtection(3, time.Minute, 10*time.Minute)

	lp.RecordFailure(jamaahEmail)
	lp.RecordFailure(jamaahEmail)

	*now = now.Add(11 * time.Minute)
	if left := lp.AttemptsLeft(jamaahEmail); left != 3 {
		t.Errorf("AttemptsLeft after window = %d, want 3", left)
	}
	if _, locked := lp.RecordFailure(jamaahEmail); locked {
		t.Error("failure in a fresh window should not lock")
	}
	if left := lp.AttemptsLeft(jamaahEmail); left != 2 {
		t.Errorf("AttemptsLeft = %d, want 2", left)
	}
}

func TestLoginProtection_Reset(t *testing.T) {
	lp, _ := newTestLoginProtection(2, time.Hour, time.Hour)

	lp.RecordFailure(jamaahEmail)
	lp.RecordFailure(jamaahEmail)
	if _, locked := lp.Locked(jamaahEmail); !locked {
		t.Fatal("account should be locked")
	}

	lp.Reset(jamaahEmail)
	if _, locked := lp.Locked(jamaahEmail); locked {
		t.Error("Reset should unlock")
	}
	if left := lp.AttemptsLeft(jamaahEmail); left != 2 {
		t.Errorf("AttemptsLeft after Reset = %d, want 2", left)
	}
}

func TestLoginProtection_Cleanup(t *testing.T) {
	lp, now := newTestLoginProtection(2, 30*time.Minute, 10*time.Minute)

	lp.RecordFailure("stale@example.com")
	lp.RecordFailure(jamaahEmail)
	lp.RecordFailure(jamaahEmail) // locked for 30m

	*now = now.Add(15 * time.Minute)
	lp.RecordFailure("fresh@example.com")

	if removed := lp.Cleanup(); removed != 1 {
		t.Errorf("Cleanup removed %d, want 1 (only the stale record)", removed)
	}
	if _, locked := lp.Locked(jamaahEmail); !locked {
		t.Error("locked account was dropped while its lockout runs")
	}
	if left := lp.AttemptsLeft("fresh@example.com"); left != 1 {
		t.Errorf("fresh record was dropped: AttemptsLeft = %d", left)
	}
}

func TestLoginProtection_Middleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	lp := NewLoginProtection(LoginPolicy{IPRate: 0.25, IPBurst: 1})
	h := lp.Middleware()(ok)

	send := func(method, addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/login", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	if rr := send(http.MethodPost, "203.0.113.7:5000"); rr.Code != http.StatusOK {
		t.Fatalf("first POST = %d, want 200", rr.Code)
	}
	rr := send(http.MethodPost, "203.0.113.7:5001")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second POST = %d, want 429", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got != "4" {
		t.Errorf("Retry-After = %q, want 4", got)
	}

	if rr := send(http.MethodGet, "203.0.113.7:5002"); rr.Code != http.StatusOK {
		t.Errorf("GET should bypass the limiter, got %d", rr.Code)
	}
	if rr := send(http.MethodPost, "198.51.100.2:5000"); rr.Code != http.StatusOK {
		t.Errorf("another IP should have its own bucket, got %d", rr.Code)
	}
}
