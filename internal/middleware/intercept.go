// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
)

type interceptKey struct{}

// interceptState records whether a backend call in this request came back
// 401. Backend calls may run concurrently, so access is locked.
type interceptState struct {
	mu     sync.Mutex
	marked bool
}

func (s *interceptState) isMarked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.marked
}

// MarkUnauthorized flags the current request so InterceptUnauthorized
// replaces its response with a redirect to the login page. It is a no-op
// outside InterceptUnauthorized and safe to call more than once.
func MarkUnauthorized(ctx context.Context) {
	if s, ok := ctx.Value(interceptKey{}).(*interceptState); ok {
		s.mu.Lock()
		s.marked = true
		s.mu.Unlock()
	}
}

// IsUnauthorized reports whether MarkUnauthorized was called for ctx.
func IsUnauthorized(ctx context.Context) bool {
	s, ok := ctx.Value(interceptKey{}).(*interceptState)
	return ok && s.isMarked()
}

// InterceptUnauthorized redirects to loginPath when any backend call made
// while serving the request returned 401. Output the handler wrote after
// the 401 is discarded and a single 303 is sent instead. Requests already
// on loginPath, or on one of the exempt paths, are served normally.
func InterceptUnauthorized(loginPath string, exempt ...string) func(http.Handler) http.Handler {
	target := loginPath + "?expired=1"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == loginPath || slices.Contains(exempt, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			state := &interceptState{}
			iw := &interceptWriter{ResponseWriter: w, state: state}
			next.ServeHTTP(iw, r.WithContext(context.WithValue(r.Context(), interceptKey{}, state)))

			if !state.isMarked() {
				return
			}
			if iw.passedThrough {
				slog.WarnContext(r.Context(), "session lost after response started", "category", "auth")
				return
			}
			slog.InfoContext(r.Context(), "session lost, redirecting to login", "category", "auth")
			iw.redirect(r, target)
		})
	}
}

// interceptWriter withholds the handler's response once the request has
// been marked unauthorized.
type interceptWriter struct {
	http.ResponseWriter
	state         *interceptState
	passedThrough bool
	redirected    bool
}

func (iw *interceptWriter) suppress() bool {
	return !iw.passedThrough && iw.state.isMarked()
}

func (iw *interceptWriter) WriteHeader(code int) {
	if iw.suppress() {
		return
	}
	iw.passedThrough = true
	iw.ResponseWriter.WriteHeader(code)
}

func (iw *interceptWriter) Write(b []byte) (int, error) {
	if iw.suppress() {
		return len(b), nil
	}
	iw.passedThrough = true
	return iw.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (iw *interceptWriter) Unwrap() http.ResponseWriter {
	return iw.ResponseWriter
}

func (iw *interceptWriter) redirect(r *http.Request, target string) {
	if iw.redirected {
		return
	}
	iw.redirected = true

	h := iw.ResponseWriter.Header()
	for _, k := range []string{"Content-Type", "Content-Length", "Content-Disposition"} {
		h.Del(k)
	}
	if strings.EqualFold(r.Header.Get("HX-Request"), "true") {
		h.Set("HX-Redirect", target)
		iw.ResponseWriter.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(iw.ResponseWriter, r, target, http.StatusSeeOther)
}
