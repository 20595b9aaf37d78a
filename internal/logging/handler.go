// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a slog handler that enriches records with
// request attributes carried in the context.
package logging

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// Log categories.
const (
	CategoryAuth    = "auth"
	CategoryAPI     = "api"
	CategoryCache   = "cache"
	CategoryContent = "content"
	CategorySystem  = "system"
)

type requestKey struct{}

type requestInfo struct {
	id     string
	method string
	path   string
}

// WithRequest stores the request id, method and path in ctx.
func WithRequest(ctx context.Context, id, method, path string) context.Context {
	return context.WithValue(ctx, requestKey{}, requestInfo{id: id, method: method, path: path})
}

// Middleware copies the chi request id, method and path into the request
// context for ContextHandler. It must run after middleware.RequestID.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithRequest(r.Context(), middleware.GetReqID(r.Context()), r.Method, r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ContextHandler is a slog.Handler that wraps another handler and adds
// request_id and path attributes when the logging context carries them.
// Records without a category get one inferred from the message.
type ContextHandler struct {
	inner slog.Handler
}

// NewContextHandler wraps inner.
func NewContextHandler(inner slog.Handler) *ContextHandler {
	return &ContextHandler{inner: inner}
}

// Enabled implements slog.Handler.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if info, ok := ctx.Value(requestKey{}).(requestInfo); ok {
		if info.id != "" {
			r.AddAttrs(slog.String("request_id", info.id))
		}
		r.AddAttrs(slog.String("path", info.path))
	}

	if r.Level >= slog.LevelWarn && !hasCategory(r) {
		r.AddAttrs(slog.String("category", inferCategory(r.Message)))
	}

	return h.inner.Handle(ctx, r)
}

// WithAttrs implements slog.Handler.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{inner: h.inner.WithAttrs(attrs)}
}

// WithGroup implements slog.Handler.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{inner: h.inner.WithGroup(name)}
}

func hasCategory(r slog.Record) bool {
	found := false
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "category" {
			found = true
			return false
		}
		return true
	})
	return found
}

// inferCategory guesses a category from common message patterns.
func inferCategory(msg string) string {
	msg = strings.ToLower(msg)
	switch {
	case strings.Contains(msg, "auth") || strings.Contains(msg, "login") ||
		strings.Contains(msg, "logout") || strings.Contains(msg, "session"):
		return CategoryAuth
	case strings.Contains(msg, "cache"):
		return CategoryCache
	case strings.Contains(msg, "api") || strings.Contains(msg, "backend"):
		return CategoryAPI
	case strings.Contains(msg, "content"):
		return CategoryContent
	default:
		return CategorySystem
	}
}

// ParseLevel maps a TTS_LOG_LEVEL value to a slog level. Unknown values
// fall back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
