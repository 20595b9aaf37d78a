// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/taptosmile/taptosmile-web/internal/seo"
	"github.com/taptosmile/taptosmile-web/internal/service"
)

// EventSource lists the events used to date the sitemap.
type EventSource interface {
	Events(ctx context.Context) ([]service.Event, error)
}

// SEOHandler serves robots.txt and sitemap.xml.
type SEOHandler struct {
	events  EventSource
	siteURL string
	noIndex bool
	logger  *slog.Logger
}

// NewSEOHandler creates a new SEOHandler. An empty siteURL falls back to the
// request host.
func NewSEOHandler(events EventSource, siteURL string, noIndex bool, logger *slog.Logger) *SEOHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SEOHandler{
		events:  events,
		siteURL: siteURL,
		noIndex: noIndex,
		logger:  logger,
	}
}

// Robots handles GET /robots.txt.
func (h *SEOHandler) Robots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write([]byte(seo.BuildRobots(seo.RobotsConfig{
		SiteURL:     h.baseURL(r),
		DisallowAll: h.noIndex,
	})))
}

// Sitemap handles GET /sitemap.xml.
func (h *SEOHandler) Sitemap(w http.ResponseWriter, r *http.Request) {
	b := seo.NewSitemapBuilder(h.baseURL(r))
	b.AddPage(seo.Page{Path: RouteRoot, ChangeFreq: seo.ChangeFreqDaily, Priority: "1.0"})
	b.AddPage(seo.Page{Path: RouteAbout, ChangeFreq: seo.ChangeFreqMonthly, Priority: "0.7"})
	b.AddPage(seo.Page{Path: RoutePrograms, ChangeFreq: seo.ChangeFreqWeekly, Priority: "0.8"})
	b.AddPage(seo.Page{Path: RouteEvents, ChangeFreq: seo.ChangeFreqWeekly, Priority: "0.8", UpdatedAt: h.latestEvent(r.Context())})
	b.AddPage(seo.Page{Path: RouteVolunteer, ChangeFreq: seo.ChangeFreqMonthly, Priority: "0.7"})
	b.AddPage(seo.Page{Path: RouteDonate, ChangeFreq: seo.ChangeFreqMonthly, Priority: "0.7"})
	b.AddPage(seo.Page{Path: RouteContact, ChangeFreq: seo.ChangeFreqYearly, Priority: "0.5"})
	b.AddPage(seo.Page{Path: RoutePrivacy, ChangeFreq: seo.ChangeFreqYearly, Priority: "0.3"})

	out, err := b.Build()
	if err != nil {
		logAndInternalError(w, r, "building sitemap", "error", err)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(out)
}

// latestEvent returns the newest event date, or zero when none is known.
func (h *SEOHandler) latestEvent(ctx context.Context) time.Time {
	events, err := h.events.Events(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "loading events for sitemap failed", "error", err, "category", "content")
		return time.Time{}
	}
	var latest time.Time
	for _, e := range events {
		if e.Date.After(latest) {
			latest = e.Date
		}
	}
	return latest
}

func (h *SEOHandler) baseURL(r *http.Request) string {
	if h.siteURL != "" {
		return h.siteURL
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
