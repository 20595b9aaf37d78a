// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/taptosmile/taptosmile-web/internal/api"
	"github.com/taptosmile/taptosmile-web/internal/events"
	"github.com/taptosmile/taptosmile-web/internal/middleware"
	"github.com/taptosmile/taptosmile-web/internal/render"
	"github.com/taptosmile/taptosmile-web/internal/session"
)

// AuthAPI is the backend surface used by the login pages.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) api.Result
	Logout(ctx context.Context) api.Result
	ForgotPassword(ctx context.Context, email string) api.Result
}

// AuthHandler handles authentication routes.
type AuthHandler struct {
	backend         AuthAPI
	sessions        *session.Store
	renderer        *render.Renderer
	loginProtection *middleware.LoginProtection
	logger          *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(backend AuthAPI, sessions *session.Store, renderer *render.Renderer, lp *middleware.LoginProtection, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		backend:         backend,
		sessions:        sessions,
		renderer:        renderer,
		loginProtection: lp,
		logger:          logger,
	}
}

// LoginData is the login page model.
type LoginData struct {
	Email  string
	Error  string
	Notice string
}

// ForgotPasswordData is the password reset page model.
type ForgotPasswordData struct {
	Email string
	Error string
	Sent  bool
}

// LoginForm renders the login page.
// A session holding a token goes straight to the dashboard; the guard
// re-verifies it there and clears it on failure.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.sessions.Token(ctx) != "" {
		http.Redirect(w, r, redirectAdmin, http.StatusSeeOther)
		return
	}

	data := LoginData{}
	if r.URL.Query().Get("expired") == "1" {
		data.Notice = "Your session has expired. Please sign in again."
	}
	h.renderLogin(w, r, http.StatusOK, data)
}

// Login handles the login form submission.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		h.renderLogin(w, r, http.StatusBadRequest, LoginData{Error: "Invalid form data"})
		return
	}

	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")
	data := LoginData{Email: email}

	if email == "" || password == "" {
		data.Error = "Email and password are required"
		h.renderLogin(w, r, http.StatusUnprocessableEntity, data)
		return
	}

	ctx := r.Context()

	if h.loginProtection != nil {
		if remaining := h.loginProtection.Lockout(email); remaining > 0 {
			h.logger.WarnContext(ctx, "login attempt on locked account", "email", email, "category", "auth")
			data.Error = fmt.Sprintf("Account temporarily locked. Try again in %s.", formatDuration(remaining))
			h.renderLogin(w, r, http.StatusTooManyRequests, data)
			return
		}
	}

	res := h.backend.Login(ctx, email, password)
	token, err := api.LoginToken(res)
	if err != nil {
		h.logger.WarnContext(ctx, "login failed",
			"email", email,
			"kind", res.Kind.String(),
			"status", res.Status,
			"category", "auth",
		)
		data.Error = h.loginFailureMessage(res, email)
		h.renderLogin(w, r, http.StatusOK, data)
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.Succeed(email)
	}

	if err := h.sessions.Login(ctx, token); err != nil {
		logAndInternalError(w, r, "session renewal error", "error", err)
		return
	}

	h.logger.InfoContext(ctx, "admin logged in", "email", email, "category", "auth")
	flashSuccess(w, r, h.renderer, redirectAdmin, "Welcome back!")
}

// loginFailureMessage records credential failures against the lockout
// counter and returns the text shown on the form.
func (h *AuthHandler) loginFailureMessage(res api.Result, email string) string {
	switch res.Kind {
	case api.KindUnauthorized, api.KindValidation:
	default:
		if res.Success {
			return "Login failed: the server sent an unexpected response"
		}
		return res.Message
	}

	if h.loginProtection != nil {
		lockedFor, left := h.loginProtection.Fail(email)
		if lockedFor > 0 {
			return fmt.Sprintf("Too many failed attempts. Account locked for %s.", formatDuration(lockedFor))
		}
		if left <= 3 {
			return fmt.Sprintf("%s. %d attempts remaining.", strings.TrimSuffix(res.Message, "."), left)
		}
	}
	return res.Message
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, status int, data LoginData) {
	renderPage(w, r, h.renderer, status, "auth/login", render.TemplateData{
		Title: "Admin Login",
		Data:  data,
	})
}

// Logout revokes the token at the backend and clears the session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.sessions.Token(ctx) != "" {
		if res := h.backend.Logout(ctx); !res.Success && res.Kind != api.KindUnauthorized {
			h.logger.WarnContext(ctx, "backend logout failed", "kind", res.Kind.String(), "category", "auth")
		}
	}

	if err := h.sessions.Clear(ctx); err != nil {
		h.logger.ErrorContext(ctx, "session destroy error", "error", err)
	}

	h.logger.InfoContext(ctx, "admin logged out", "category", "auth")
	flashAndRedirect(w, r, h.renderer, redirectLogin, "You have been logged out.", flashTypeInfo)
}

// ForgotPasswordForm renders the password reset request page.
func (h *AuthHandler) ForgotPasswordForm(w http.ResponseWriter, r *http.Request) {
	h.renderForgot(w, r, http.StatusOK, ForgotPasswordData{})
}

// ForgotPassword asks the backend to send a reset link. The confirmation is
// the same whether or not the account exists.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		h.renderForgot(w, r, http.StatusBadRequest, ForgotPasswordData{Error: "Invalid form data"})
		return
	}

	email := strings.TrimSpace(r.PostFormValue("email"))
	if _, err := mail.ParseAddress(email); err != nil {
		h.renderForgot(w, r, http.StatusUnprocessableEntity, ForgotPasswordData{
			Email: email,
			Error: "Enter a valid email address",
		})
		return
	}

	res := h.backend.ForgotPassword(r.Context(), email)
	if res.Kind == api.KindTransport || res.Status >= http.StatusInternalServerError {
		h.logger.WarnContext(r.Context(), "forgot password request failed", "kind", res.Kind.String(), "category", "auth")
		h.renderForgot(w, r, http.StatusOK, ForgotPasswordData{Email: email, Error: res.Message})
		return
	}

	h.logger.InfoContext(r.Context(), "password reset requested", "email", email, "category", "auth")
	h.renderForgot(w, r, http.StatusOK, ForgotPasswordData{Sent: true})
}

func (h *AuthHandler) renderForgot(w http.ResponseWriter, r *http.Request, status int, data ForgotPasswordData) {
	renderPage(w, r, h.renderer, status, "auth/forgot", render.TemplateData{
		Title: "Reset Password",
		Data:  data,
	})
}

// SessionExpiryHandler reacts to any backend 401: the session is cleared and
// the current request is flagged so InterceptUnauthorized sends the browser
// to the login page.
func SessionExpiryHandler(sessions *session.Store, logger *slog.Logger) events.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, ev events.Unauthorized) {
		if err := sessions.Clear(ctx); err != nil {
			logger.ErrorContext(ctx, "clearing session after 401", "error", err)
		}
		middleware.MarkUnauthorized(ctx)
		logger.InfoContext(ctx, "backend rejected session token",
			"method", ev.Method,
			"endpoint", ev.Path,
			"category", "auth",
		)
	}
}

// formatDuration formats a duration into a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", mins)
	}
	hours := int(d.Hours())
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}
