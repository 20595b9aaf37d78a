// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taptosmile/taptosmile-web/internal/guard"
	"github.com/taptosmile/taptosmile-web/internal/logging"
	"github.com/taptosmile/taptosmile-web/internal/middleware"
	"github.com/taptosmile/taptosmile-web/internal/render"
	"github.com/taptosmile/taptosmile-web/internal/session"
)

// RouterConfig wires handlers and middleware into one router.
type RouterConfig struct {
	Sessions        *session.Store
	Guard           *guard.Guard
	Renderer        *render.Renderer
	Auth            *AuthHandler
	Admin           *AdminHandler
	Frontend        *FrontendHandler
	Health          *HealthHandler
	SEO             *SEOHandler
	LoginProtection *middleware.LoginProtection
	FormLimiter     *middleware.FormRateLimiter
	// CSRF is optional; nil disables cross-origin request checks.
	CSRF     func(http.Handler) http.Handler
	Security middleware.SecurityHeadersConfig
	// Static serves /static/* when set.
	Static        fs.FS
	PublicTimeout time.Duration
}

// NewRouter builds the application router.
//
// Admin requests pass LoadAndSave, then InterceptUnauthorized, then the
// guard, so a 401 from any backend call ends in a single redirect to the
// login page after the cleared session is committed.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(logging.Middleware)
	r.Use(chimw.Recoverer)
	r.Use(chimw.GetHead)
	r.Use(middleware.SecurityHeaders(cfg.Security))
	r.Use(middleware.StripTrailingSlash)

	if cfg.Static != nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(cfg.Static))))
	}
	if cfg.SEO != nil {
		r.Get(RouteRobots, cfg.SEO.Robots)
		r.Get(RouteSitemap, cfg.SEO.Sitemap)
	}
	if cfg.Health != nil {
		r.Get(RouteHealth, cfg.Health.Health)
		r.Get(RouteHealth+"/live", cfg.Health.Liveness)
	}

	r.Group(func(r chi.Router) {
		r.Use(cfg.Sessions.Manager().LoadAndSave)
		if cfg.CSRF != nil {
			r.Use(cfg.CSRF)
		}

		r.Group(func(r chi.Router) {
			if cfg.PublicTimeout > 0 {
				r.Use(middleware.Timeout(cfg.PublicTimeout, Unavailable(cfg.Renderer)))
			}
			if cfg.FormLimiter != nil {
				r.Use(cfg.FormLimiter.Middleware)
			}
			registerFrontendRoutes(r, cfg.Frontend)
		})

		r.Route(RouteAdmin, func(r chi.Router) {
			r.Use(middleware.InterceptUnauthorized(redirectLogin, RouteAdmin+RouteLogout))

			r.Group(func(r chi.Router) {
				if cfg.LoginProtection != nil {
					r.Use(cfg.LoginProtection.Middleware)
				}
				r.Get(RouteLogin, cfg.Auth.LoginForm)
				r.Post(RouteLogin, cfg.Auth.Login)
				r.Get(RouteForgotPassword, cfg.Auth.ForgotPasswordForm)
				r.Post(RouteForgotPassword, cfg.Auth.ForgotPassword)
			})
			r.Post(RouteLogout, cfg.Auth.Logout)

			r.Group(func(r chi.Router) {
				r.Use(cfg.Guard.Middleware)
				registerAdminRoutes(r, cfg.Admin)
			})
		})

		r.NotFound(NotFound(cfg.Renderer))
	})

	return r
}

// registerFrontendRoutes registers the public site routes.
func registerFrontendRoutes(r chi.Router, h *FrontendHandler) {
	r.Get(RouteRoot, h.Home)
	r.Get(RouteAbout, h.About)
	r.Get(RoutePrograms, h.Programs)
	r.Get(RouteEvents, h.Events)
	r.Get(RoutePrivacy, h.Privacy)
	r.Get(RouteContact, h.ContactForm)
	r.Post(RouteContact, h.Contact)
	r.Get(RouteVolunteer, h.VolunteerForm)
	r.Post(RouteVolunteer, h.Volunteer)
	r.Get(RouteDonate, h.DonateForm)
	r.Post(RouteDonate, h.Donate)
}

// registerAdminRoutes registers the guarded dashboard routes.
func registerAdminRoutes(r chi.Router, h *AdminHandler) {
	r.Get(RouteRoot, h.Dashboard)
	r.Get(RouteSection, h.List)
	r.Post(RouteSection, h.Create)
	r.Get(RouteSectionNew, h.NewForm)
	r.Get(RouteSectionExport, h.Export)
	r.Post(RouteSectionID, h.Update)
	r.Get(RouteSectionEdit, h.EditForm)
	r.Post(RouteSectionStatus, h.UpdateStatus)
	r.Get(RouteSectionDelete, h.DeleteConfirm)
	r.Post(RouteSectionDelete, h.Delete)
}
