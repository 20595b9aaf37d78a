// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/taptosmile/taptosmile-web/internal/store"
)

func setupTestDB(t *testing.T) *Store {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := store.Migrate(context.Background(), db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return NewStore(New(db, Options{IsDev: true}))
}

// loadedContext returns a context carrying a fresh, empty session.
func loadedContext(t *testing.T, s *Store) context.Context {
	t.Helper()
	ctx, err := s.Manager().Load(context.Background(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return ctx
}

func TestNew_DevMode(t *testing.T) {
	sm := New(nil, Options{IsDev: true})

	if sm.Cookie.Secure {
		t.Error("expected Cookie.Secure = false in dev mode")
	}
	if sm.Cookie.Name != cookieNameDev {
		t.Errorf("Cookie.Name = %q, want %q", sm.Cookie.Name, cookieNameDev)
	}
	if sm.Store == nil {
		t.Error("expected in-memory store when db is nil")
	}
}

func TestNew_ProductionMode(t *testing.T) {
	sm := New(nil, Options{Lifetime: time.Hour, IdleTimeout: 10 * time.Minute})

	if !sm.Cookie.Secure {
		t.Error("expected Cookie.Secure = true in production mode")
	}
	if sm.Cookie.Name != cookieNameProd {
		t.Errorf("expected %s cookie name, got %q", cookieNameProd, sm.Cookie.Name)
	}
	if sm.Cookie.Path != "/" {
		t.Errorf("expected Cookie.Path = '/', got %q", sm.Cookie.Path)
	}
	if !sm.Cookie.HttpOnly {
		t.Error("expected Cookie.HttpOnly = true")
	}
	if sm.Cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("expected SameSite = Lax, got %v", sm.Cookie.SameSite)
	}
	if sm.Lifetime != time.Hour {
		t.Errorf("Lifetime = %v, want 1h", sm.Lifetime)
	}
	if sm.IdleTimeout != 10*time.Minute {
		t.Errorf("IdleTimeout = %v, want 10m", sm.IdleTimeout)
	}
}

func TestNew_DefaultLifetime(t *testing.T) {
	sm := New(nil, Options{IsDev: true})
	if sm.Lifetime != 24*time.Hour {
		t.Errorf("Lifetime = %v, want 24h", sm.Lifetime)
	}
}

func TestStore_LoginAndVerify(t *testing.T) {
	s := setupTestDB(t)
	ctx := loadedContext(t, s)

	if s.Token(ctx) != "" {
		t.Fatal("new session should have no token")
	}

	if err := s.Login(ctx, "tok-1"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got := s.Token(ctx); got != "tok-1" {
		t.Errorf("Token() = %q, want tok-1", got)
	}
	if s.LoggedIn(ctx) {
		t.Error("LoggedIn() should stay false until the identity is verified")
	}

	s.MarkVerified(ctx, Identity{Email: "a@b.org", Role: "admin"})
	if !s.LoggedIn(ctx) {
		t.Error("LoggedIn() = false after MarkVerified")
	}
	if s.Role(ctx) != "admin" {
		t.Errorf("Role() = %q, want admin", s.Role(ctx))
	}
	if s.Email(ctx) != "a@b.org" {
		t.Errorf("Email() = %q, want a@b.org", s.Email(ctx))
	}
}

func TestStore_LoginDropsPreviousIdentity(t *testing.T) {
	s := setupTestDB(t)
	ctx := loadedContext(t, s)

	_ = s.Login(ctx, "old")
	s.MarkVerified(ctx, Identity{Role: "superadmin"})

	if err := s.Login(ctx, "new"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if s.LoggedIn(ctx) {
		t.Error("LoggedIn() should be reset by a new login")
	}
	if s.Role(ctx) != "" {
		t.Errorf("Role() = %q, want empty", s.Role(ctx))
	}
}

func TestStore_Clear(t *testing.T) {
	s := setupTestDB(t)
	ctx := loadedContext(t, s)

	_ = s.Login(ctx, "tok")
	s.MarkVerified(ctx, Identity{Role: "editor"})

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if s.Token(ctx) != "" || s.LoggedIn(ctx) || s.Role(ctx) != "" {
		t.Error("Clear() should remove every session value")
	}
}

func TestStore_Flash(t *testing.T) {
	s := setupTestDB(t)
	ctx := loadedContext(t, s)

	if msg, _ := s.PopFlash(ctx); msg != "" {
		t.Fatalf("PopFlash() on empty session = %q", msg)
	}

	s.SetFlash(ctx, "Saved", "success")
	msg, typ := s.PopFlash(ctx)
	if msg != "Saved" || typ != "success" {
		t.Errorf("PopFlash() = (%q, %q), want (Saved, success)", msg, typ)
	}
	if msg, _ := s.PopFlash(ctx); msg != "" {
		t.Errorf("flash should be consumed, got %q", msg)
	}

	s.SetFlash(ctx, "Note", "")
	if _, typ := s.PopFlash(ctx); typ != "info" {
		t.Errorf("default flash type = %q, want info", typ)
	}
}
