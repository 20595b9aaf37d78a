// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/taptosmile/taptosmile-web/internal/api"
	"github.com/taptosmile/taptosmile-web/internal/guard"
	"github.com/taptosmile/taptosmile-web/internal/overview"
	"github.com/taptosmile/taptosmile-web/internal/render"
	"github.com/taptosmile/taptosmile-web/internal/section"
	"github.com/taptosmile/taptosmile-web/internal/transfer"
)

// AdminAPI is the backend surface driven by the dashboard.
type AdminAPI interface {
	section.Ops
	section.StatusOps
}

// ContentInvalidator drops cached public content after a mutation.
type ContentInvalidator interface {
	Invalidate(ctx context.Context, res api.Resource)
}

// AdminHandler handles the dashboard overview and the section pages.
type AdminHandler struct {
	backend   AdminAPI
	uploader  section.Uploader
	content   ContentInvalidator
	renderer  *render.Renderer
	logger    *slog.Logger
	exporter  *transfer.Exporter
	maxUpload int64
}

// AdminConfig holds the AdminHandler dependencies. Uploader and Content may
// be nil.
type AdminConfig struct {
	Backend        AdminAPI
	Uploader       section.Uploader
	Content        ContentInvalidator
	Renderer       *render.Renderer
	Logger         *slog.Logger
	MaxUploadBytes int64
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(cfg AdminConfig) *AdminHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	return &AdminHandler{
		backend:   cfg.Backend,
		uploader:  cfg.Uploader,
		content:   cfg.Content,
		renderer:  cfg.Renderer,
		logger:    cfg.Logger,
		exporter:  transfer.NewExporter(),
		maxUpload: cfg.MaxUploadBytes,
	}
}

// OverviewData is the dashboard page model.
type OverviewData struct {
	overview.Overview
	TotalPledged string
}

// Dashboard renders the overview: headline stats and recent activity.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ov := overview.Load(r.Context(), h.backend, h.logger)

	data := h.adminData(r, "Dashboard", "")
	data.Data = OverviewData{
		Overview:     ov,
		TotalPledged: h.renderer.Formatter().Money(ov.Stats.TotalPledged),
	}
	renderPage(w, r, h.renderer, http.StatusOK, "admin/overview", data)
}

// adminData fills the layout fields shared by every dashboard page.
func (h *AdminHandler) adminData(r *http.Request, title, active string) render.TemplateData {
	id, _ := guard.IdentityFrom(r.Context())
	return render.TemplateData{
		Title:         title,
		Identity:      id,
		Sections:      section.VisibleTo(id.Role),
		ActiveSection: active,
	}
}

func (h *AdminHandler) invalidate(ctx context.Context, res api.Resource) {
	if h.content != nil {
		h.content.Invalidate(ctx, res)
	}
}
