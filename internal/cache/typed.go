// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/singleflight"
)

// TypedCache stores values of one type as JSON. Concurrent misses on the
// same key share a single fill, so an expiring page does not send a burst
// of identical requests to the backend.
type TypedCache[T any] struct {
	cache Cacher
	ttl   time.Duration
	fills singleflight.Group
}

// NewTypedCache wraps cache for values of type T.
func NewTypedCache[T any](cache Cacher, ttl time.Duration) *TypedCache[T] {
	return &TypedCache[T]{cache: cache, ttl: ttl}
}

// Get returns the cached value. Undecodable entries count as a miss.
func (c *TypedCache[T]) Get(ctx context.Context, key string) (T, bool) {
	var v T
	data, err := c.cache.Get(ctx, key)
	if err != nil || json.Unmarshal(data, &v) != nil {
		return v, false
	}
	return v, true
}

// Set stores value with the cache's TTL.
func (c *TypedCache[T]) Set(ctx context.Context, key string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.cache.Set(ctx, key, data, c.ttl)
}

// Delete removes key.
func (c *TypedCache[T]) Delete(ctx context.Context, key string) error {
	return c.cache.Delete(ctx, key)
}

// GetOrSet returns the cached value or fills it with fn. A failed fill is
// returned to every waiter and nothing is stored; a failed store still
// returns the fresh value.
func (c *TypedCache[T]) GetOrSet(ctx context.Context, key string, fn func() (T, error)) (T, error) {
	if v, ok := c.Get(ctx, key); ok {
		return v, nil
	}

	res, err, _ := c.fills.Do(key, func() (any, error) {
		v, err := fn()
		if err != nil {
			return v, err
		}
		_ = c.Set(ctx, key, v)
		return v, nil
	})
	v, _ := res.(T)
	return v, err
}
