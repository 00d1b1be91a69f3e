// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryCache keeps entries in a map guarded by a mutex. When MaxSize is
// reached, expired entries are dropped first and then the entry closest
// to expiry.
type MemoryCache struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	bytes      int64
	counters   counters
	defaultTTL time.Duration
	maxSize    int
	closed     bool
	stop       chan struct{}
	now        func() time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCacheOptions configures a MemoryCache.
type MemoryCacheOptions struct {
	DefaultTTL      time.Duration
	MaxSize         int           // 0 = unbounded
	CleanupInterval time.Duration // 0 = expire lazily only
}

// NewMemoryCache creates a memory cache and starts its janitor when a
// cleanup interval is set.
func NewMemoryCache(opts MemoryCacheOptions) *MemoryCache {
	c := &MemoryCache{
		entries:    make(map[string]memoryEntry),
		defaultTTL: opts.DefaultTTL,
		maxSize:    opts.MaxSize,
		stop:       make(chan struct{}),
		now:        time.Now,
	}
	if opts.CleanupInterval > 0 {
		go c.janitor(opts.CleanupInterval)
	}
	return c
}

// NewSimpleMemoryCache creates an unbounded cache with a one-minute janitor.
func NewSimpleMemoryCache(ttl time.Duration) *MemoryCache {
	return NewMemoryCache(MemoryCacheOptions{DefaultTTL: ttl, CleanupInterval: time.Minute})
}

// Get implements Cache. The returned slice is a copy.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrCacheClosed
	}
	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expiresAt) {
		if ok {
			c.remove(key)
		}
		c.counters.misses++
		return nil, ErrCacheMiss
	}
	c.counters.hits++
	return append([]byte(nil), e.value...), nil
}

// Set implements Cache. value is copied.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrCacheClosed
	}
	if _, exists := c.entries[key]; exists {
		c.remove(key)
	} else if c.maxSize > 0 && len(c.entries) >= c.maxSize {
		c.makeRoom()
	}

	c.entries[key] = memoryEntry{
		value:     append([]byte(nil), value...),
		expiresAt: c.now().Add(ttl),
	}
	c.bytes += int64(len(value))
	c.counters.sets++
	return nil
}

// Delete implements Cache.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrCacheClosed
	}
	c.remove(key)
	return nil
}

// DeleteByPrefix implements PrefixDeleter.
func (c *MemoryCache) DeleteByPrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrCacheClosed
	}
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			c.remove(key)
		}
	}
	return nil
}

// Clear implements Cache.
func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrCacheClosed
	}
	clear(c.entries)
	c.bytes = 0
	return nil
}

// Ping fails only after Close.
func (c *MemoryCache) Ping(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrCacheClosed
	}
	return nil
}

// Close stops the janitor. Later calls are no-ops.
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.stop)
	}
	return nil
}

// Stats implements StatsProvider.
func (c *MemoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counters.stats(len(c.entries), c.bytes)
}

// ResetStats implements StatsProvider.
func (c *MemoryCache) ResetStats() {
	c.mu.Lock()
	c.counters = counters{}
	c.mu.Unlock()
}

// remove deletes key and adjusts the byte count. The caller holds mu.
func (c *MemoryCache) remove(key string) {
	if e, ok := c.entries[key]; ok {
		c.bytes -= int64(len(e.value))
		delete(c.entries, key)
	}
}

// makeRoom frees one slot. The caller holds mu.
func (c *MemoryCache) makeRoom() {
	if c.purgeExpired() > 0 {
		return
	}

	var (
		victim string
		soon   time.Time
	)
	for key, e := range c.entries {
		if victim == "" || e.expiresAt.Before(soon) {
			victim, soon = key, e.expiresAt
		}
	}
	if victim != "" {
		c.remove(victim)
		c.counters.evictions++
	}
}

// purgeExpired drops expired entries and returns how many. The caller holds mu.
func (c *MemoryCache) purgeExpired() int {
	now := c.now()
	n := 0
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			c.remove(key)
			n++
		}
	}
	return n
}

func (c *MemoryCache) janitor(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			c.purgeExpired()
			c.mu.Unlock()
		case <-c.stop:
			return
		}
	}
}

var (
	_ Cache         = (*MemoryCache)(nil)
	_ StatsProvider = (*MemoryCache)(nil)
	_ PrefixDeleter = (*MemoryCache)(nil)
)
