// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session owns the admin session: the backend access token and the
// identity cached after a successful check. The token lives only here; the
// browser holds nothing but the HttpOnly session cookie.
package session

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
)

// Session keys.
const (
	KeyToken       = "admin_token"
	KeyLoggedIn    = "admin_logged_in"
	KeyRole        = "admin_role"
	KeyEmail       = "admin_email"
	KeyName        = "admin_name"
	KeyFlash       = "flash"
	KeyFlashType   = "flash_type"
	cookieNameProd = "__Host-tts_session"
	cookieNameDev  = "tts_session"
)

// Options configures the session manager.
type Options struct {
	Lifetime    time.Duration
	IdleTimeout time.Duration
	IsDev       bool
}

// New creates a session manager. A nil db keeps sessions in memory.
func New(db *sql.DB, opts Options) *scs.SessionManager {
	sm := scs.New()

	if db != nil {
		sm.Store = sqlite3store.New(db)
	} else {
		sm.Store = memstore.New()
	}

	sm.Lifetime = 24 * time.Hour
	if opts.Lifetime > 0 {
		sm.Lifetime = opts.Lifetime
	}
	sm.IdleTimeout = opts.IdleTimeout

	sm.Cookie.Name = cookieNameDev
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"
	sm.Cookie.Secure = !opts.IsDev // Secure cookies in production only
	if !opts.IsDev {
		sm.Cookie.Name = cookieNameProd
	}

	return sm
}

// Identity is the admin identity returned by the backend.
type Identity struct {
	ID    string
	Email string
	Name  string
	Role  string
}

// Store is the single accessor for session state. Every read and write of the
// token goes through it.
type Store struct {
	sm *scs.SessionManager
}

// NewStore wraps a session manager.
func NewStore(sm *scs.SessionManager) *Store {
	return &Store{sm: sm}
}

// Manager returns the underlying session manager for LoadAndSave wiring.
func (s *Store) Manager() *scs.SessionManager {
	return s.sm
}

// ID returns the opaque session id, or "" for a session not yet committed.
func (s *Store) ID(ctx context.Context) string {
	return s.sm.Token(ctx)
}

// Token returns the stored access token, or "" when absent.
func (s *Store) Token(ctx context.Context) string {
	return s.sm.GetString(ctx, KeyToken)
}

// Login stores a freshly issued token. The session id is renewed to prevent
// fixation, and any identity cached for a previous token is dropped.
func (s *Store) Login(ctx context.Context, token string) error {
	if err := s.sm.RenewToken(ctx); err != nil {
		return err
	}
	s.sm.Put(ctx, KeyToken, token)
	s.sm.Remove(ctx, KeyLoggedIn)
	s.sm.Remove(ctx, KeyRole)
	s.sm.Remove(ctx, KeyEmail)
	s.sm.Remove(ctx, KeyName)
	return nil
}

// MarkVerified caches the outcome of a successful identity check.
func (s *Store) MarkVerified(ctx context.Context, id Identity) {
	s.sm.Put(ctx, KeyLoggedIn, true)
	s.sm.Put(ctx, KeyRole, id.Role)
	s.sm.Put(ctx, KeyEmail, id.Email)
	s.sm.Put(ctx, KeyName, id.Name)
}

// LoggedIn reports whether the last identity check succeeded.
func (s *Store) LoggedIn(ctx context.Context) bool {
	return s.sm.GetBool(ctx, KeyLoggedIn)
}

// Role returns the cached admin role.
func (s *Store) Role(ctx context.Context) string {
	return s.sm.GetString(ctx, KeyRole)
}

// Email returns the cached admin email.
func (s *Store) Email(ctx context.Context) string {
	return s.sm.GetString(ctx, KeyEmail)
}

// Clear removes the token and every cached value.
func (s *Store) Clear(ctx context.Context) error {
	return s.sm.Destroy(ctx)
}

// SetFlash queues a one-shot message for the next rendered page.
func (s *Store) SetFlash(ctx context.Context, message, flashType string) {
	s.sm.Put(ctx, KeyFlash, message)
	s.sm.Put(ctx, KeyFlashType, flashType)
}

// PopFlash returns and clears the queued flash message.
func (s *Store) PopFlash(ctx context.Context) (message, flashType string) {
	message = s.sm.PopString(ctx, KeyFlash)
	if message == "" {
		return "", ""
	}
	flashType = s.sm.PopString(ctx, KeyFlashType)
	if flashType == "" {
		flashType = "info"
	}
	return message, flashType
}
