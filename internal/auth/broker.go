// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// SessionEventKind says what happened to a session.
type SessionEventKind string

// Session event kinds.
const (
	SignedIn  SessionEventKind = "signed_in"
	SignedOut SessionEventKind = "signed_out"
	SignedUp  SessionEventKind = "signed_up"
)

// SessionEvent reports a change in a profile's signed-in state.
type SessionEvent struct {
	Kind      SessionEventKind
	ProfileID string
	IP        string
	At        time.Time
}

// Broker fans session events out to subscribers. Publishing never blocks:
// a subscriber whose buffer is full misses the event.
type Broker struct {
	mu      sync.RWMutex
	subs    map[uint64]chan SessionEvent
	nextID  uint64
	dropped atomic.Int64
	buffer  int
}

// NewBroker creates a broker whose subscriber channels hold buffer events.
func NewBroker(buffer int) *Broker {
	if buffer <= 0 {
		buffer = 16
	}
	return &Broker{subs: make(map[uint64]chan SessionEvent), buffer: buffer}
}

// Subscribe returns a channel of events that is closed when ctx ends.
func (b *Broker) Subscribe(ctx context.Context) <-chan SessionEvent {
	ch := make(chan SessionEvent, b.buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, id)
		close(ch)
		b.mu.Unlock()
	}()

	return ch
}

// Publish delivers ev to every subscriber without blocking.
func (b *Broker) Publish(ev SessionEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.dropped.Add(1)
		}
	}
}

// Subscribers returns the number of active subscriptions.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped returns how many deliveries were skipped because a subscriber
// was full.
func (b *Broker) Dropped() int64 {
	return b.dropped.Load()
}
