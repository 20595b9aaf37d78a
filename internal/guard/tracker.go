// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package guard

import "sync"

// Ticket identifies one navigation's identity check.
type Ticket struct {
	key string
	gen uint64
}

type trackerEntry struct {
	latest   uint64
	inflight int
}

// Tracker hands out navigation tickets per session. Only the ticket issued
// last for a session is current; earlier ones become stale the moment a newer
// navigation begins.
type Tracker struct {
	mu      sync.Mutex
	entries map[string]*trackerEntry
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{entries: make(map[string]*trackerEntry)}
}

// Begin starts a navigation for the session key.
func (t *Tracker) Begin(key string) Ticket {
	if key == "" {
		return Ticket{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[key]
	if !ok {
		e = &trackerEntry{}
		t.entries[key] = e
	}
	e.latest++
	e.inflight++
	return Ticket{key: key, gen: e.latest}
}

// Resolve ends a navigation and reports whether it was still the newest one.
// Tickets for anonymous sessions are always current.
func (t *Tracker) Resolve(tk Ticket) bool {
	if tk.key == "" {
		return true
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[tk.key]
	if !ok {
		return false
	}
	current := e.latest == tk.gen
	e.inflight--
	if e.inflight <= 0 {
		delete(t.entries, tk.key)
	}
	return current
}

// Pending returns the number of sessions with checks in flight.
func (t *Tracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
