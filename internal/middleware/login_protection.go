// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/olegiv/muthawwif-go/internal/util"
)

// maxLockout caps the doubling lockout.
const maxLockout = 24 * time.Hour

// maxTrackedIPs is the limiter count above which Cleanup starts over.
const maxTrackedIPs = 10000

// LoginPolicy configures LoginProtection. Zero fields take the defaults.
type LoginPolicy struct {
	IPRate      float64 // sign-in POSTs per second per IP
	IPBurst     int
	MaxFailures int           // failures within Window that lock an email
	Lockout     time.Duration // first lockout, doubled on each repeat
	Window      time.Duration
}

// DefaultLoginPolicy allows one sign-in every two seconds per IP with a
// burst of five, and locks an email for 15 minutes after five failures
// within 15 minutes.
func DefaultLoginPolicy() LoginPolicy {
	return LoginPolicy{
		IPRate:      0.5,
		IPBurst:     5,
		MaxFailures: 5,
		Lockout:     15 * time.Minute,
		Window:      15 * time.Minute,
	}
}

func (p LoginPolicy) withDefaults() LoginPolicy {
	d := DefaultLoginPolicy()
	if p.IPRate <= 0 {
		p.IPRate = d.IPRate
	}
	if p.IPBurst <= 0 {
		p.IPBurst = d.IPBurst
	}
	if p.MaxFailures <= 0 {
		p.MaxFailures = d.MaxFailures
	}
	if p.Lockout <= 0 {
		p.Lockout = d.Lockout
	}
	if p.Window <= 0 {
		p.Window = d.Window
	}
	return p
}

// lockoutAfter returns the lockout length for an email already locked n times.
func (p LoginPolicy) lockoutAfter(n int) time.Duration {
	d := p.Lockout
	for range n {
		d *= 2
		if d >= maxLockout {
			return maxLockout
		}
	}
	return min(d, maxLockout)
}

// LoginProtection throttles sign-in requests per IP and locks an email
// after repeated failures. It satisfies service.LoginGuard.
type LoginProtection struct {
	ips    *limiterCache[string]
	policy LoginPolicy

	mu       sync.Mutex
	accounts map[string]*failureRecord
	now      func() time.Time
}

type failureRecord struct {
	windowStart time.Time
	failures    int
	lockouts    int
	lockedUntil time.Time
}

// NewLoginProtection creates a LoginProtection for the given policy.
func NewLoginProtection(p LoginPolicy) *LoginProtection {
	p = p.withDefaults()
	return &LoginProtection{
		ips:      newLimiterCache[string](p.IPRate, p.IPBurst),
		policy:   p,
		accounts: make(map[string]*failureRecord),
		now:      time.Now,
	}
}

// Locked reports whether email is locked and for how much longer.
func (lp *LoginProtection) Locked(email string) (time.Duration, bool) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	rec := lp.accounts[email]
	if rec == nil {
		return 0, false
	}
	if left := rec.lockedUntil.Sub(lp.now()); left > 0 {
		return left, true
	}
	return 0, false
}

// RecordFailure counts a failed sign-in for email. When it completes a run
// of MaxFailures it locks the email and returns the lockout length.
func (lp *LoginProtection) RecordFailure(email string) (time.Duration, bool) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	now := lp.now()
	rec := lp.accounts[email]
	if rec == nil {
		rec = &failureRecord{}
		lp.accounts[email] = rec
	}
	if rec.failures == 0 || now.Sub(rec.windowStart) > lp.policy.Window {
		rec.windowStart = now
		rec.failures = 0
	}
	rec.failures++

	if rec.failures < lp.policy.MaxFailures {
		slog.Debug("failed sign-in recorded", "email", email, "failures", rec.failures)
		return 0, false
	}

	d := lp.policy.lockoutAfter(rec.lockouts)
	rec.lockouts++
	rec.failures = 0
	rec.lockedUntil = now.Add(d)
	slog.Warn("account locked after failed sign-ins", "email", email, "lockouts", rec.lockouts, "duration", d)
	return d, true
}

// Reset forgets every failure and lockout for email.
func (lp *LoginProtection) Reset(email string) {
	lp.mu.Lock()
	delete(lp.accounts, email)
	lp.mu.Unlock()
}

// AttemptsLeft returns how many more failures email may have before it is locked.
func (lp *LoginProtection) AttemptsLeft(email string) int {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	rec := lp.accounts[email]
	if rec == nil || rec.failures == 0 || lp.now().Sub(rec.windowStart) > lp.policy.Window {
		return lp.policy.MaxFailures
	}
	return max(lp.policy.MaxFailures-rec.failures, 0)
}

// Cleanup drops records whose lockout and window have both passed, and all
// IP limiters once too many are tracked. It returns the records dropped.
func (lp *LoginProtection) Cleanup() int {
	if lp.ips.clearIfExceeds(maxTrackedIPs) {
		slog.Info("cleared sign-in IP limiters", "threshold", maxTrackedIPs)
	}

	lp.mu.Lock()
	defer lp.mu.Unlock()

	now := lp.now()
	removed := 0
	for email, rec := range lp.accounts {
		if !now.Before(rec.lockedUntil) && now.Sub(rec.windowStart) > lp.policy.Window {
			delete(lp.accounts, email)
			removed++
		}
	}
	return removed
}

// Middleware rate limits POSTs per client IP. Mount it on the sign-in route.
func (lp *LoginProtection) Middleware() func(http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(math.Ceil(1 / lp.policy.IPRate)))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			ip := util.ClientIP(r)
			if !lp.ips.get(ip).Allow() {
				slog.Warn("sign-in rate limit exceeded", "ip", ip, "path", r.URL.Path)
				w.Header().Set("Retry-After", retryAfter)
				http.Error(w, "Terlalu banyak percobaan masuk. Silakan tunggu sebentar lalu coba lagi.", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
