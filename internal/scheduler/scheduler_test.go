// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

type fakeWarmer struct {
	calls atomic.Int32
	err   error
	block chan struct{}
}

func (f *fakeWarmer) Warm(context.Context) error {
	f.calls.Add(1)
	if f.block != nil {
		<-f.block
	}
	return f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScheduler_RunNow(t *testing.T) {
	w := &fakeWarmer{err: errors.New("backend down")}
	s := New(w, time.Second, testLogger())

	s.RunNow()
	s.RunNow()

	if got := w.calls.Load(); got != 2 {
		t.Errorf("Warm calls = %d, want 2", got)
	}
	if s.Runs() != 2 {
		t.Errorf("Runs() = %d, want 2", s.Runs())
	}
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	s := New(&fakeWarmer{}, time.Second, testLogger())
	if err := s.Start("not a cron spec"); err == nil {
		t.Fatal("Start should reject an invalid schedule")
	}
}

func TestScheduler_EmptyScheduleDisables(t *testing.T) {
	s := New(&fakeWarmer{}, time.Second, testLogger())
	if err := s.Start(""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if n := len(s.cron.Entries()); n != 0 {
		t.Errorf("entries = %d, want 0", n)
	}
}

func TestScheduler_StartAndStop(t *testing.T) {
	s := New(&fakeWarmer{}, time.Second, testLogger())
	if err := s.Start("*/5 * * * *"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if n := len(s.cron.Entries()); n != 1 {
		t.Errorf("entries = %d, want 1", n)
	}
	s.Stop()
}

func TestScheduler_SkipsOverlappingRuns(t *testing.T) {
	w := &fakeWarmer{block: make(chan struct{})}
	s := New(w, time.Second, testLogger())

	done := make(chan struct{})
	go func() {
		s.RunNow()
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for w.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	s.RunNow()
	close(w.block)
	<-done

	if got := w.calls.Load(); got != 1 {
		t.Errorf("Warm calls = %d, want 1", got)
	}
}
