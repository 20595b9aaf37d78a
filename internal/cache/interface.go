// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cache holds backend content for the public site so page views do
// not hit the API on every request. Values are opaque bytes; TypedCache adds
// JSON encoding and fill deduplication on top.
package cache

import (
	"context"
	"sync/atomic"
	"time"
)

// Cacher is implemented by the memory and Redis backends. Implementations
// are safe for concurrent use.
type Cacher interface {
	// Get returns ErrCacheMiss when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value. A zero ttl uses the cache default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// DeleteByPrefix removes every key starting with prefix.
	DeleteByPrefix(ctx context.Context, prefix string) error
	Clear(ctx context.Context) error
	Close() error
}

// Stats is reported on the health endpoint.
type Stats struct {
	Backend string  `json:"backend"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Sets    int64   `json:"sets"`
	Items   int     `json:"items,omitempty"`
	HitRate float64 `json:"hit_rate"`
}

// StatsProvider is implemented by caches that count their traffic.
type StatsProvider interface {
	Stats() Stats
}

// Error is a sentinel cache error.
type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrCacheMiss   Error = "cache miss"
	ErrCacheClosed Error = "cache closed"
)

// counters are the traffic counters shared by both backends.
type counters struct {
	hits, misses, sets atomic.Int64
}

func (c *counters) snapshot(backend string, items int) Stats {
	hits, misses := c.hits.Load(), c.misses.Load()
	s := Stats{Backend: backend, Hits: hits, Misses: misses, Sets: c.sets.Load(), Items: items}
	if total := hits + misses; total > 0 {
		s.HitRate = float64(hits) / float64(total) * 100
	}
	return s
}

// lifecycle tracks whether a cache has been closed.
type lifecycle struct{ closed atomic.Bool }

func (l *lifecycle) check() error {
	if l.closed.Load() {
		return ErrCacheClosed
	}
	return nil
}

// close reports whether this call was the one that closed the cache.
func (l *lifecycle) close() bool { return l.closed.CompareAndSwap(false, true) }
