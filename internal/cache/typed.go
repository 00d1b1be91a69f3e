// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

// TypedCache stores JSON-encoded values of one type on top of a Cache.
// Concurrent Load calls for the same missing key share one build.
type TypedCache[T any] struct {
	cache Cache
	ttl   time.Duration
	group singleflight.Group
}

// NewTypedCache creates a TypedCache whose entries live for ttl.
func NewTypedCache[T any](c Cache, ttl time.Duration) *TypedCache[T] {
	return &TypedCache[T]{cache: c, ttl: ttl}
}

// Get returns the cached value for key. Undecodable entries count as misses.
func (c *TypedCache[T]) Get(ctx context.Context, key string) (T, bool) {
	var v T
	data, err := c.cache.Get(ctx, key)
	if err != nil {
		return v, false
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, false
	}
	return v, true
}

// Set stores v under key.
func (c *TypedCache[T]) Set(ctx context.Context, key string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return c.cache.Set(ctx, key, data, c.ttl)
}

// Delete removes key.
func (c *TypedCache[T]) Delete(ctx context.Context, key string) error {
	return c.cache.Delete(ctx, key)
}

// loadTimeout bounds a shared build once it is detached from its caller.
const loadTimeout = 30 * time.Second

// Load returns the cached value for key, building and storing it on a miss.
// A build error is returned as is and nothing is stored. Failing to store a
// freshly built value is not an error.
//
// The build runs detached from ctx's cancellation, bounded by loadTimeout,
// so callers sharing it are not failed by whichever one started it. A
// cancelled ctx only stops this caller waiting.
func (c *TypedCache[T]) Load(ctx context.Context, key string, build func(context.Context) (T, error)) (T, error) {
	if v, ok := c.Get(ctx, key); ok {
		return v, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		v, err := build(bctx)
		if err != nil {
			return v, err
		}
		_ = c.Set(bctx, key, v)
		return v, nil
	})

	var zero T
	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Invalidate removes every key starting with prefix. Backends that cannot
// delete by prefix are cleared entirely.
func (c *TypedCache[T]) Invalidate(ctx context.Context, prefix string) error {
	if pd, ok := c.cache.(PrefixDeleter); ok {
		return pd.DeleteByPrefix(ctx, prefix)
	}
	return c.cache.Clear(ctx)
}
