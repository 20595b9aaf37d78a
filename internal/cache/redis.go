// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache shares cached content between several web instances, so an
// admin change invalidates the public pages on all of them at once.
type RedisCache struct {
	lifecycle
	counters

	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// RedisCacheOptions configures the Redis cache.
type RedisCacheOptions struct {
	URL         string
	Prefix      string
	DefaultTTL  time.Duration
	PoolSize    int
	DialTimeout time.Duration
	// IOTimeout bounds each read and write.
	IOTimeout time.Duration
}

// DefaultRedisCacheOptions returns the options used by New.
func DefaultRedisCacheOptions() RedisCacheOptions {
	return RedisCacheOptions{
		Prefix:      "tts:",
		DefaultTTL:  5 * time.Minute,
		PoolSize:    10,
		DialTimeout: 5 * time.Second,
		IOTimeout:   2 * time.Second,
	}
}

// scanBatch is the COUNT hint for SCAN during prefix invalidation.
const scanBatch = 200

// NewRedisCache connects and pings. An unreachable server is an error so
// the caller can fall back to memory.
func NewRedisCache(opts RedisCacheOptions) (*RedisCache, error) {
	if opts.URL == "" {
		return nil, errors.New("redis URL is required")
	}
	ro, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	if opts.PoolSize > 0 {
		ro.PoolSize = opts.PoolSize
	}
	if opts.DialTimeout > 0 {
		ro.DialTimeout = opts.DialTimeout
	}
	if opts.IOTimeout > 0 {
		ro.ReadTimeout, ro.WriteTimeout = opts.IOTimeout, opts.IOTimeout
	}

	rdb := redis.NewClient(ro)
	ctx, cancel := context.WithTimeout(context.Background(), ro.DialTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return &RedisCache{rdb: rdb, prefix: opts.Prefix, ttl: opts.DefaultTTL}, nil
}

func (c *RedisCache) key(k string) string { return c.prefix + k }

// Get retrieves a value.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	val, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		c.misses.Add(1)
		return nil, ErrCacheMiss
	case err != nil:
		return nil, err
	}
	c.hits.Add(1)
	return val, nil
}

// Set stores value with ttl, or the default TTL when zero.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.check(); err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = c.ttl
	}
	if err := c.rdb.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		return err
	}
	c.sets.Add(1)
	return nil
}

// Delete removes key.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.check(); err != nil {
		return err
	}
	return c.rdb.Unlink(ctx, c.key(key)).Err()
}

// DeleteByPrefix removes every key under prefix.
func (c *RedisCache) DeleteByPrefix(ctx context.Context, prefix string) error {
	if err := c.check(); err != nil {
		return err
	}
	return c.unlinkMatching(ctx, c.key(prefix)+"*")
}

// Clear removes every key this cache owns. Other keys in the database are
// left alone.
func (c *RedisCache) Clear(ctx context.Context) error {
	if err := c.check(); err != nil {
		return err
	}
	return c.unlinkMatching(ctx, c.prefix+"*")
}

// unlinkMatching walks the keyspace with SCAN and unlinks each batch in one
// pipeline. KEYS would block the server.
func (c *RedisCache) unlinkMatching(ctx context.Context, pattern string) error {
	iter := c.rdb.Scan(ctx, 0, pattern, scanBatch).Iterator()
	batch := make([]string, 0, scanBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		_, err := c.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
			p.Unlink(ctx, batch...)
			return nil
		})
		batch = batch[:0]
		return err
	}

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

// Ping checks the connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.check(); err != nil {
		return err
	}
	return c.rdb.Ping(ctx).Err()
}

// Close closes the connection pool.
func (c *RedisCache) Close() error {
	if c.close() {
		return c.rdb.Close()
	}
	return nil
}

// Stats returns this instance's counters. The shared key count is not
// tracked.
func (c *RedisCache) Stats() Stats {
	return c.snapshot("redis", 0)
}

var (
	_ Cacher        = (*RedisCache)(nil)
	_ StatsProvider = (*RedisCache)(nil)
)
