// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package guard protects admin routes. Every navigation re-verifies the stored
// token against the backend before guarded content renders.
package guard

import (
	"context"
	"log/slog"
	"net/http"
	"slices"

	"github.com/taptosmile/taptosmile-web/internal/api"
	"github.com/taptosmile/taptosmile-web/internal/session"
)

// State is the outcome of one identity check.
type State int

// Guard states.
const (
	StateChecking State = iota
	StateOK
	StateFail
)

func (s State) String() string {
	switch s {
	case StateChecking:
		return "checking"
	case StateOK:
		return "ok"
	case StateFail:
		return "fail"
	default:
		return "unknown"
	}
}

// IdentityChecker calls the backend identity endpoint.
type IdentityChecker interface {
	Me(ctx context.Context) api.Result
}

// Sessions is the part of the session store the guard needs.
type Sessions interface {
	ID(ctx context.Context) string
	Token(ctx context.Context) string
	MarkVerified(ctx context.Context, id session.Identity)
	Clear(ctx context.Context) error
}

type contextKey string

const identityKey contextKey = "admin_identity"

// Guard gates admin routes behind a live identity check.
type Guard struct {
	checker   IdentityChecker
	sessions  Sessions
	tracker   *Tracker
	loginPath string
	logger    *slog.Logger
}

// New creates a guard that redirects failures to loginPath.
func New(checker IdentityChecker, sessions Sessions, loginPath string, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{
		checker:   checker,
		sessions:  sessions,
		tracker:   NewTracker(),
		loginPath: loginPath,
		logger:    logger,
	}
}

// Tracker exposes the navigation tracker.
func (g *Guard) Tracker() *Tracker {
	return g.tracker
}

// Check runs one identity check without touching session state.
func (g *Guard) Check(ctx context.Context) (State, session.Identity, string) {
	if g.sessions.Token(ctx) == "" {
		return StateFail, session.Identity{}, "no token"
	}

	res := g.checker.Me(ctx)
	if !res.Success {
		return StateFail, session.Identity{}, res.Kind.String() + ": " + res.Message
	}

	id, err := api.DecodeIdentity(res)
	if err != nil {
		return StateFail, session.Identity{}, err.Error()
	}

	return StateOK, session.Identity{ID: id.ID, Email: id.Email, Name: id.Name, Role: id.Role}, ""
}

// Middleware verifies the session on every request it wraps.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		ticket := g.tracker.Begin(g.sessions.ID(ctx))
		state, identity, reason := g.Check(ctx)
		current := g.tracker.Resolve(ticket)

		if state == StateOK {
			if current {
				g.sessions.MarkVerified(ctx, identity)
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, identity)))
			return
		}

		if current {
			if err := g.sessions.Clear(ctx); err != nil {
				g.logger.Error("clearing session after failed check", "error", err)
			}
		}
		g.logger.Info("session check failed",
			"category", "auth",
			"path", r.URL.Path,
			"reason", reason,
			"stale", !current,
		)
		http.Redirect(w, r, g.loginPath, http.StatusSeeOther)
	})
}

// WithIdentity stores the verified identity in ctx.
func WithIdentity(ctx context.Context, id session.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the identity verified for this request.
func IdentityFrom(ctx context.Context) (session.Identity, bool) {
	id, ok := ctx.Value(identityKey).(session.Identity)
	return id, ok
}

// HasRole reports whether the verified identity holds one of roles.
// An empty role list admits everyone.
func HasRole(ctx context.Context, roles ...string) bool {
	if len(roles) == 0 {
		return true
	}
	id, ok := IdentityFrom(ctx)
	if !ok {
		return false
	}
	return slices.Contains(roles, id.Role)
}

// RequireRole responds 403 unless the verified identity holds one of roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !HasRole(r.Context(), roles...) {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
