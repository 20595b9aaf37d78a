// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic background jobs.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// Warmer reloads cached content.
type Warmer interface {
	Warm(ctx context.Context) error
}

// Scheduler handles scheduled tasks like re-warming the content cache.
type Scheduler struct {
	cron    *cron.Cron
	warmer  Warmer
	timeout time.Duration
	logger  *slog.Logger
	running atomic.Bool
	runs    atomic.Int64
}

// New creates a new scheduler instance.
func New(warmer Warmer, timeout time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cron.DiscardLogger))),
		warmer:  warmer,
		timeout: timeout,
		logger:  logger,
	}
}

// Start registers the warm job on spec and starts the cron loop. An empty
// spec disables warming.
func (s *Scheduler) Start(spec string) error {
	if spec == "" {
		s.logger.Info("content cache warming disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(spec, s.warm); err != nil {
		return fmt.Errorf("invalid cache warm schedule %q: %w", spec, err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()), "schedule", spec)
	return nil
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// RunNow warms the cache immediately, e.g. at startup.
func (s *Scheduler) RunNow() {
	s.warm()
}

// Runs returns how many warm runs have completed.
func (s *Scheduler) Runs() int64 {
	return s.runs.Load()
}

// warm skips the run when the previous one is still in flight.
func (s *Scheduler) warm() {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Debug("cache warm already running, skipping")
		return
	}
	defer s.running.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	err := s.warmer.Warm(ctx)
	s.runs.Add(1)
	if err != nil {
		s.logger.Warn("content cache warm failed", "error", err, "duration", time.Since(start))
		return
	}
	s.logger.Debug("content cache warmed", "duration", time.Since(start))
}
