// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryCache keeps content in process. It is the fallback when Redis is
// not configured, and the only cache a single-instance deployment needs.
type MemoryCache struct {
	lifecycle
	counters

	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	maxSize int
	stop    chan struct{}
	now     func() time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool { return !now.Before(e.expiresAt) }

// MemoryCacheOptions configures the memory cache.
type MemoryCacheOptions struct {
	DefaultTTL time.Duration
	// MaxSize caps the number of entries; zero means unbounded.
	MaxSize int
	// CleanupInterval enables a background sweep of expired entries.
	CleanupInterval time.Duration
}

// NewMemoryCache creates a memory cache. Close stops the sweeper.
func NewMemoryCache(opts MemoryCacheOptions) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     opts.DefaultTTL,
		maxSize: opts.MaxSize,
		stop:    make(chan struct{}),
		now:     time.Now,
	}
	if c.ttl <= 0 {
		c.ttl = 5 * time.Minute
	}
	if opts.CleanupInterval > 0 {
		go c.sweepEvery(opts.CleanupInterval)
	}
	return c
}

// Get returns a copy of the cached value.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	if err := c.check(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || e.expired(c.now()) {
		c.misses.Add(1)
		return nil, ErrCacheMiss
	}
	c.hits.Add(1)
	return append([]byte(nil), e.value...), nil
}

// Set stores a copy of value. When full, the entry closest to expiry makes
// room.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.check(); err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = c.ttl
	}
	now := c.now()
	e := memoryEntry{value: append([]byte(nil), value...), expiresAt: now.Add(ttl)}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists && c.maxSize > 0 && len(c.entries) >= c.maxSize {
		c.sweepLocked(now)
		if len(c.entries) >= c.maxSize {
			c.evictSoonestLocked()
		}
	}
	c.entries[key] = e
	c.sets.Add(1)
	return nil
}

func (c *MemoryCache) evictSoonestLocked() {
	victim, first := "", true
	var soonest time.Time
	for k, e := range c.entries {
		if first || e.expiresAt.Before(soonest) {
			victim, soonest, first = k, e.expiresAt, false
		}
	}
	delete(c.entries, victim)
}

func (c *MemoryCache) sweepLocked(now time.Time) {
	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
		}
	}
}

// Delete removes key.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	return c.deleteWhere(func(k string) bool { return k == key })
}

// DeleteByPrefix removes every key starting with prefix.
func (c *MemoryCache) DeleteByPrefix(_ context.Context, prefix string) error {
	return c.deleteWhere(func(k string) bool { return strings.HasPrefix(k, prefix) })
}

// Clear drops everything.
func (c *MemoryCache) Clear(context.Context) error {
	return c.deleteWhere(func(string) bool { return true })
}

func (c *MemoryCache) deleteWhere(match func(string) bool) error {
	if err := c.check(); err != nil {
		return err
	}
	c.mu.Lock()
	for k := range c.entries {
		if match(k) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
	return nil
}

// Close stops the sweeper. Further calls fail with ErrCacheClosed.
func (c *MemoryCache) Close() error {
	if c.close() {
		close(c.stop)
	}
	return nil
}

// Stats returns the traffic counters and the current entry count.
func (c *MemoryCache) Stats() Stats {
	c.mu.RLock()
	n := len(c.entries)
	c.mu.RUnlock()
	return c.snapshot("memory", n)
}

func (c *MemoryCache) sweepEvery(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			c.mu.Lock()
			c.sweepLocked(c.now())
			c.mu.Unlock()
		case <-c.stop:
			return
		}
	}
}

var (
	_ Cacher        = (*MemoryCache)(nil)
	_ StatsProvider = (*MemoryCache)(nil)
)
