// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/taptosmile/taptosmile-web/internal/api"
	"github.com/taptosmile/taptosmile-web/internal/cache"
	"github.com/taptosmile/taptosmile-web/internal/version"
)

// Pinger checks that the backend answers.
type Pinger interface {
	Ping(ctx context.Context) api.Result
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	db        *sql.DB
	backend   Pinger
	version   version.Info
	startTime time.Time
	cache     cache.Cacher
}

// NewHealthHandler creates a new health handler. db may be nil when
// sessions are kept in memory.
func NewHealthHandler(db *sql.DB, backend Pinger, v version.Info) *HealthHandler {
	return &HealthHandler{
		db:        db,
		backend:   backend,
		version:   v,
		startTime: time.Now(),
	}
}

// WithCache adds the content cache to the report: its counters, and a
// connectivity check for caches that can be pinged.
func (h *HealthHandler) WithCache(c cache.Cacher) *HealthHandler {
	h.cache = c
	return h
}

// HealthStatus represents the overall health status.
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   string           `json:"version"`
	Checks    map[string]Check `json:"checks"`
	Cache     *cache.Stats     `json:"cache,omitempty"`
}

// Check represents a single health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Health handles GET /health. The session database failing makes the site
// unhealthy; an unreachable backend only degrades it since cached public
// pages still render.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]Check{
		"sessions": h.checkDatabase(r.Context()),
		"backend":  h.checkBackend(r.Context()),
	}
	if p, ok := h.cache.(interface{ Ping(context.Context) error }); ok {
		checks["cache"] = h.checkCache(r.Context(), p.Ping)
	}

	overall := "healthy"
	code := http.StatusOK
	switch {
	case checks["sessions"].Status != "healthy":
		overall = "unhealthy"
		code = http.StatusServiceUnavailable
	case checks["backend"].Status != "healthy", checks["cache"].Status == "unhealthy":
		overall = "degraded"
	}

	var stats *cache.Stats
	if sp, ok := h.cache.(cache.StatsProvider); ok {
		st := sp.Stats()
		stats = &st
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(HealthStatus{
		Status:    overall,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   h.version.String(),
		Checks:    checks,
		Cache:     stats,
	})
}

// Liveness handles GET /health/live - simple liveness check.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": "alive",
	})
}

// checkDatabase verifies session database connectivity.
func (h *HealthHandler) checkDatabase(ctx context.Context) Check {
	if h.db == nil {
		return Check{Status: "healthy", Message: "In-memory sessions"}
	}

	start := time.Now()
	err := h.db.PingContext(ctx)
	latency := time.Since(start)

	if err != nil {
		return Check{
			Status:  "unhealthy",
			Message: err.Error(),
			Latency: latency.String(),
		}
	}

	return Check{
		Status:  "healthy",
		Message: "Connected",
		Latency: latency.String(),
	}
}

// checkBackend treats any HTTP response as reachable.
func (h *HealthHandler) checkBackend(ctx context.Context) Check {
	start := time.Now()
	res := h.backend.Ping(ctx)
	latency := time.Since(start)

	if res.Kind == api.KindTransport {
		return Check{
			Status:  "unhealthy",
			Message: "Backend unreachable",
			Latency: latency.String(),
		}
	}
	return Check{
		Status:  "healthy",
		Message: "Reachable",
		Latency: latency.String(),
	}
}

// checkCache pings a shared cache. Losing it only slows page views.
func (h *HealthHandler) checkCache(ctx context.Context, ping func(context.Context) error) Check {
	start := time.Now()
	err := ping(ctx)
	latency := time.Since(start)
	if err != nil {
		return Check{Status: "unhealthy", Message: err.Error(), Latency: latency.String()}
	}
	return Check{Status: "healthy", Message: "Connected", Latency: latency.String()}
}
