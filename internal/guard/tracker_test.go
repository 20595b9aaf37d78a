// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package guard

import "testing"

func TestTracker_NewestWins(t *testing.T) {
	tr := NewTracker()

	first := tr.Begin("s1")
	second := tr.Begin("s1")
	other := tr.Begin("s2")

	if !tr.Resolve(second) {
		t.Error("newest ticket should be current")
	}
	if tr.Resolve(first) {
		t.Error("older ticket should be stale")
	}
	if !tr.Resolve(other) {
		t.Error("tickets for other sessions are independent")
	}
	if tr.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0 after all tickets resolved", tr.Pending())
	}
}

func TestTracker_AnonymousAlwaysCurrent(t *testing.T) {
	tr := NewTracker()

	a := tr.Begin("")
	b := tr.Begin("")

	if !tr.Resolve(a) || !tr.Resolve(b) {
		t.Error("anonymous tickets should always be current")
	}
}

func TestTracker_NewNavigationAfterResolve(t *testing.T) {
	tr := NewTracker()

	tk := tr.Begin("s1")
	tr.Resolve(tk)

	next := tr.Begin("s1")
	if !tr.Resolve(next) {
		t.Error("a fresh navigation after the previous resolved should be current")
	}
}
