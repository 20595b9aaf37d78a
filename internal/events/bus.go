// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package events carries the unauthorized signal from the API client to the
// application shell. The client publishes; the shell subscribes once and
// decides how the session is torn down.
package events

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Unauthorized describes one backend response with status 401.
type Unauthorized struct {
	Method string
	Path   string
	Status int
	At     time.Time
}

// Handler reacts to an unauthorized response. It runs synchronously on the
// publishing goroutine with the request context of the failed call.
type Handler func(ctx context.Context, ev Unauthorized)

// Bus is a minimal synchronous publish/subscribe hub.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]Handler
	logger   *slog.Logger
}

// NewBus creates an empty bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		handlers: make(map[int]Handler),
		logger:   logger,
	}
}

// Subscribe registers h and returns a function that removes it.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = h
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers ev to every subscriber. A panicking handler is logged and
// does not stop delivery to the rest.
func (b *Bus) Publish(ctx context.Context, ev Unauthorized) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	b.logger.Warn("backend rejected credentials",
		"category", "auth",
		"method", ev.Method,
		"path", ev.Path,
		"status", ev.Status,
	)

	for _, h := range handlers {
		b.deliver(ctx, h, ev)
	}
}

func (b *Bus) deliver(ctx context.Context, h Handler, ev Unauthorized) {
	defer func() {
		if rec := recover(); rec != nil {
			b.logger.Error("unauthorized handler panicked", "panic", rec)
		}
	}()
	h(ctx, ev)
}

// Subscribers returns the number of registered handlers.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}
