// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// scanBatch is the COUNT hint for SCAN and the UNLINK batch size.
const scanBatch = 200

// RedisCache stores entries in Redis under a key prefix so several
// deployments can share one server.
type RedisCache struct {
	client     *redis.Client
	prefix     string
	defaultTTL time.Duration

	mu       sync.Mutex
	counters counters
	closed   bool
}

// RedisCacheOptions configures a RedisCache.
type RedisCacheOptions struct {
	URL         string // redis://[:password@]host:port/db
	Prefix      string
	DefaultTTL  time.Duration
	DialTimeout time.Duration
}

// NewRedisCache connects to Redis and pings it once.
func NewRedisCache(ctx context.Context, opts RedisCacheOptions) (*RedisCache, error) {
	if opts.URL == "" {
		return nil, errors.New("redis URL is required")
	}
	ropts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 5 * time.Second
	}
	ropts.DialTimeout = opts.DialTimeout
	ropts.ReadTimeout = 3 * time.Second
	ropts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(ropts)

	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", SanitizeRedisURL(opts.URL), err)
	}

	return &RedisCache{
		client:     client,
		prefix:     opts.Prefix,
		defaultTTL: opts.DefaultTTL,
	}, nil
}

func (c *RedisCache) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *RedisCache) count(f func(*counters)) {
	c.mu.Lock()
	f(&c.counters)
	c.mu.Unlock()
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	if c.isClosed() {
		return nil, ErrCacheClosed
	}
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		c.count(func(s *counters) { s.misses++ })
		return nil, ErrCacheMiss
	case err != nil:
		return nil, err
	}
	c.count(func(s *counters) { s.hits++ })
	return val, nil
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c.isClosed() {
		return ErrCacheClosed
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		return err
	}
	c.count(func(s *counters) { s.sets++ })
	return nil
}

// Delete implements Cache.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if c.isClosed() {
		return ErrCacheClosed
	}
	return c.client.Del(ctx, c.prefix+key).Err()
}

// DeleteByPrefix implements PrefixDeleter. prefix is relative to the
// cache's own prefix.
func (c *RedisCache) DeleteByPrefix(ctx context.Context, prefix string) error {
	if c.isClosed() {
		return ErrCacheClosed
	}
	return c.unlinkMatching(ctx, c.prefix+prefix+"*")
}

// Clear removes only keys under this cache's prefix.
func (c *RedisCache) Clear(ctx context.Context) error {
	if c.isClosed() {
		return ErrCacheClosed
	}
	return c.unlinkMatching(ctx, c.prefix+"*")
}

// Ping implements Cache.
func (c *RedisCache) Ping(ctx context.Context) error {
	if c.isClosed() {
		return ErrCacheClosed
	}
	return c.client.Ping(ctx).Err()
}

// Close closes the client once.
func (c *RedisCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.client.Close()
}

// Stats implements StatsProvider. Counters are local to this process;
// Items is counted with SCAN.
func (c *RedisCache) Stats() Stats {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	items := 0
	iter := c.client.Scan(ctx, 0, c.prefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		items++
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counters.stats(items, 0)
}

// ResetStats implements StatsProvider.
func (c *RedisCache) ResetStats() {
	c.mu.Lock()
	c.counters = counters{}
	c.mu.Unlock()
}

// unlinkMatching removes keys matching pattern in batches, using SCAN
// rather than KEYS so large keyspaces do not block the server.
func (c *RedisCache) unlinkMatching(ctx context.Context, pattern string) error {
	batch := make([]string, 0, scanBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := c.client.Unlink(ctx, batch...).Err()
		batch = batch[:0]
		return err
	}

	iter := c.client.Scan(ctx, 0, pattern, scanBatch).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return flush()
}

var (
	_ Cache         = (*RedisCache)(nil)
	_ StatsProvider = (*RedisCache)(nil)
	_ PrefixDeleter = (*RedisCache)(nil)
)
