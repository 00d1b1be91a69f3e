// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package listing

import (
	"context"
	"sync"
	"time"
)

// MaxGenAhead is how far above the newest generation for a key a
// client-supplied generation may be. Larger values are ignored and the next
// generation is assigned instead, so the counter cannot be pushed to its
// limit.
const MaxGenAhead uint64 = 1 << 20

// Tracker hands out increasing generation numbers per client key so that
// a listing fetch superseded by a newer one is cancelled and its response
// can be recognised as stale.
type Tracker struct {
	mu      sync.Mutex
	entries map[string]*trackEntry
	now     func() time.Time
}

type trackEntry struct {
	gen      uint64
	cancel   context.CancelFunc
	lastSeen time.Time
}

// Ticket identifies one fetch.
type Ticket struct {
	tracker *Tracker
	key     string
	gen     uint64
	cancel  context.CancelFunc
	stale   bool
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{entries: make(map[string]*trackEntry), now: time.Now}
}

// Begin starts a fetch for key with the next server-side generation. The
// previous fetch for the same key, if still running, is cancelled.
func (t *Tracker) Begin(parent context.Context, key string) (context.Context, *Ticket) {
	return t.BeginAt(parent, key, 0)
}

// BeginAt starts a fetch with a client-supplied generation. A gen of 0, or
// one more than MaxGenAhead above the newest, takes the next one. A gen not
// above the newest already seen for key
// yields a ticket that is stale from the start, with a cancelled context.
func (t *Tracker) BeginAt(parent context.Context, key string, gen uint64) (context.Context, *Ticket) {
	ctx, cancel := context.WithCancel(parent)

	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[key]
	if !ok {
		e = &trackEntry{}
		t.entries[key] = e
	}
	e.lastSeen = t.now()

	if gen == 0 || (gen > e.gen && gen-e.gen > MaxGenAhead) {
		gen = e.gen + 1
	}
	if gen <= e.gen {
		cancel()
		return ctx, &Ticket{tracker: t, key: key, gen: gen, cancel: cancel, stale: true}
	}

	if e.cancel != nil {
		e.cancel()
	}
	e.gen = gen
	e.cancel = cancel

	return ctx, &Ticket{tracker: t, key: key, gen: gen, cancel: cancel}
}

// Latest returns the newest generation seen for key.
func (t *Tracker) Latest(key string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[key]; ok {
		return e.gen
	}
	return 0
}

// Prune forgets keys idle for longer than maxIdle and returns how many
// were removed.
func (t *Tracker) Prune(maxIdle time.Duration) int {
	cutoff := t.now().Add(-maxIdle)

	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for key, e := range t.entries {
		if e.lastSeen.Before(cutoff) {
			if e.cancel != nil {
				e.cancel()
			}
			delete(t.entries, key)
			n++
		}
	}
	return n
}

// Gen returns the ticket's generation.
func (tk *Ticket) Gen() uint64 { return tk.gen }

// Current reports whether no newer fetch has started for the same key.
func (tk *Ticket) Current() bool {
	if tk.stale {
		return false
	}
	tk.tracker.mu.Lock()
	defer tk.tracker.mu.Unlock()
	e, ok := tk.tracker.entries[tk.key]
	return ok && e.gen == tk.gen
}

// Done releases the ticket's context.
func (tk *Ticket) Done() {
	tk.tracker.mu.Lock()
	if e, ok := tk.tracker.entries[tk.key]; ok && e.gen == tk.gen && !tk.stale {
		e.cancel = nil
	}
	tk.tracker.mu.Unlock()
	tk.cancel()
}
