// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service provides the cached public content layer.
package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"sort"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/sync/errgroup"

	"github.com/taptosmile/taptosmile-web/internal/api"
	"github.com/taptosmile/taptosmile-web/internal/cache"
)

// Lister fetches a resource collection from the backend.
type Lister interface {
	List(ctx context.Context, res api.Resource) api.Result
}

// Program is a program as shown on the public site.
type Program struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description template.HTML `json:"description"`
	Icon        string        `json:"icon"`
	CoverImage  string        `json:"cover_image"`
	Active      bool          `json:"is_active"`
}

// Project is a field project, linked to one or more programs.
type Project struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description template.HTML `json:"description"`
	Location    string        `json:"location"`
	ProgramIDs  []string      `json:"program_ids"`
	Images      []string      `json:"images"`
	StartDate   string        `json:"start_date"`
	EndDate     string        `json:"end_date"`
	Active      bool          `json:"is_active"`
}

// Event is a dated event.
type Event struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description template.HTML `json:"description"`
	Date        time.Time     `json:"event_date"`
	Location    string        `json:"location"`
	Upcoming    bool          `json:"is_upcoming"`
}

// ImpactStat is one headline figure, e.g. "Children served: 12,000+".
type ImpactStat struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Value string `json:"value"`
	Icon  string `json:"icon"`
}

// Home bundles everything the landing page shows.
type Home struct {
	Programs []Program
	Events   []Event
	Impact   []ImpactStat
}

// Cacheable lists the resources the content service caches.
var Cacheable = []api.Resource{api.Programs, api.Projects, api.Events, api.Impact}

// ContentService loads public content from the backend, renders Markdown
// descriptions and caches the result.
type ContentService struct {
	source   Lister
	programs *cache.TypedCache[[]Program]
	projects *cache.TypedCache[[]Project]
	events   *cache.TypedCache[[]Event]
	impact   *cache.TypedCache[[]ImpactStat]
	raw      cache.Cacher
	md       goldmark.Markdown
	policy   *bluemonday.Policy
	logger   *slog.Logger
	now      func() time.Time
}

// NewContentService creates a content service. source should be a client
// without admin credentials.
func NewContentService(source Lister, c cache.Cacher, ttl time.Duration, logger *slog.Logger) *ContentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContentService{
		source:   source,
		programs: cache.NewTypedCache[[]Program](c, ttl),
		projects: cache.NewTypedCache[[]Project](c, ttl),
		events:   cache.NewTypedCache[[]Event](c, ttl),
		impact:   cache.NewTypedCache[[]ImpactStat](c, ttl),
		raw:      c,
		md:       goldmark.New(goldmark.WithExtensions(extension.Linkify, extension.Strikethrough)),
		policy:   bluemonday.UGCPolicy(),
		logger:   logger,
		now:      time.Now,
	}
}

func cacheKey(res api.Resource) string {
	return "content:" + string(res)
}

// Programs returns the active programs.
func (s *ContentService) Programs(ctx context.Context) ([]Program, error) {
	return s.programs.GetOrSet(ctx, cacheKey(api.Programs), func() ([]Program, error) {
		records, err := s.fetch(ctx, api.Programs)
		if err != nil {
			return nil, err
		}
		out := make([]Program, 0, len(records))
		for _, r := range records {
			if !activeFlag(r, "is_active") {
				continue
			}
			out = append(out, Program{
				ID:          r.ID(),
				Title:       r.String("title"),
				Description: s.RenderMarkdown(r.String("description")),
				Icon:        r.String("icon"),
				CoverImage:  r.String("cover_image"),
				Active:      true,
			})
		}
		return out, nil
	})
}

// Projects returns the active projects.
func (s *ContentService) Projects(ctx context.Context) ([]Project, error) {
	return s.projects.GetOrSet(ctx, cacheKey(api.Projects), func() ([]Project, error) {
		records, err := s.fetch(ctx, api.Projects)
		if err != nil {
			return nil, err
		}
		out := make([]Project, 0, len(records))
		for _, r := range records {
			if !activeFlag(r, "is_active") {
				continue
			}
			out = append(out, Project{
				ID:          r.ID(),
				Title:       r.String("title"),
				Description: s.RenderMarkdown(r.String("description")),
				Location:    r.String("location"),
				ProgramIDs:  r.Strings("program_ids"),
				Images:      r.Strings("images"),
				StartDate:   r.String("start_date"),
				EndDate:     r.String("end_date"),
				Active:      true,
			})
		}
		return out, nil
	})
}

// Events returns all events, soonest first. Events flagged upcoming whose
// date has passed are reported as past.
func (s *ContentService) Events(ctx context.Context) ([]Event, error) {
	events, err := s.events.GetOrSet(ctx, cacheKey(api.Events), func() ([]Event, error) {
		records, err := s.fetch(ctx, api.Events)
		if err != nil {
			return nil, err
		}
		out := make([]Event, 0, len(records))
		for _, r := range records {
			date, _ := r.Time("event_date")
			out = append(out, Event{
				ID:          r.ID(),
				Title:       r.String("title"),
				Description: s.RenderMarkdown(r.String("description")),
				Date:        date,
				Location:    r.String("location"),
				Upcoming:    activeFlag(r, "is_upcoming"),
			})
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	today := s.now().Truncate(24 * time.Hour)
	for i := range events {
		if events[i].Upcoming && !events[i].Date.IsZero() && events[i].Date.Before(today) {
			events[i].Upcoming = false
		}
	}
	return events, nil
}

// UpcomingEvents returns at most limit upcoming events.
func (s *ContentService) UpcomingEvents(ctx context.Context, limit int) ([]Event, error) {
	events, err := s.Events(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Event, 0, limit)
	for _, e := range events {
		if !e.Upcoming {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Impact returns the headline impact figures.
func (s *ContentService) Impact(ctx context.Context) ([]ImpactStat, error) {
	return s.impact.GetOrSet(ctx, cacheKey(api.Impact), func() ([]ImpactStat, error) {
		records, err := s.fetch(ctx, api.Impact)
		if err != nil {
			return nil, err
		}
		out := make([]ImpactStat, 0, len(records))
		for _, r := range records {
			out = append(out, ImpactStat{
				ID:    r.ID(),
				Title: r.String("title"),
				Value: r.String("value"),
				Icon:  r.String("icon"),
			})
		}
		return out, nil
	})
}

// Home loads the landing page content concurrently. A failed part is left
// empty and logged; the page still renders.
func (s *ContentService) Home(ctx context.Context) Home {
	var home Home
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		programs, err := s.Programs(gctx)
		s.logFailure(api.Programs, err)
		home.Programs = programs
		return nil
	})
	g.Go(func() error {
		events, err := s.UpcomingEvents(gctx, 3)
		s.logFailure(api.Events, err)
		home.Events = events
		return nil
	})
	g.Go(func() error {
		impact, err := s.Impact(gctx)
		s.logFailure(api.Impact, err)
		home.Impact = impact
		return nil
	})

	_ = g.Wait()
	return home
}

// Invalidate drops the cached copy of res. Resources that are not cached
// are ignored.
func (s *ContentService) Invalidate(ctx context.Context, res api.Resource) {
	for _, c := range Cacheable {
		if c != res {
			continue
		}
		if err := s.raw.Delete(ctx, cacheKey(res)); err != nil {
			s.logger.Warn("invalidating content cache", "resource", string(res), "error", err)
		}
		return
	}
}

// Warm drops and reloads every cached resource. It returns the first error
// but always attempts every resource.
func (s *ContentService) Warm(ctx context.Context) error {
	var first error
	record := func(res api.Resource, err error) {
		if err != nil && first == nil {
			first = fmt.Errorf("warming %s: %w", res, err)
		}
	}

	for _, res := range Cacheable {
		s.Invalidate(ctx, res)
	}
	_, err := s.Programs(ctx)
	record(api.Programs, err)
	_, err = s.Projects(ctx)
	record(api.Projects, err)
	_, err = s.Events(ctx)
	record(api.Events, err)
	_, err = s.Impact(ctx)
	record(api.Impact, err)
	return first
}

// RenderMarkdown converts Markdown to sanitized HTML.
func (s *ContentService) RenderMarkdown(src string) template.HTML {
	if src == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(s.policy.SanitizeBytes(buf.Bytes())) // #nosec G203 -- sanitized by bluemonday
}

func (s *ContentService) fetch(ctx context.Context, res api.Resource) ([]api.Record, error) {
	result := s.source.List(ctx, res)
	if err := result.Err(); err != nil {
		return nil, err
	}
	return api.DecodeRecords(result)
}

func (s *ContentService) logFailure(res api.Resource, err error) {
	if err != nil {
		s.logger.Warn("loading public content", "resource", string(res), "error", err)
	}
}

// activeFlag treats a missing flag as true, matching the backend defaults.
func activeFlag(r api.Record, key string) bool {
	if _, ok := r[key]; !ok {
		return true
	}
	return r.Bool(key)
}
