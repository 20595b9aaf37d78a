// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package render parses the HTML templates and renders pages with the
// shared layout data.
package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/taptosmile/taptosmile-web/internal/overview"
	"github.com/taptosmile/taptosmile-web/internal/section"
	"github.com/taptosmile/taptosmile-web/internal/session"
)

// SiteName is shown in page titles and the header.
const SiteName = "TapToSmile"

// FlashStore supplies one-shot flash messages.
type FlashStore interface {
	SetFlash(ctx context.Context, message, flashType string)
	PopFlash(ctx context.Context) (message, flashType string)
}

// Renderer handles template rendering with caching.
type Renderer struct {
	templates map[string]*template.Template
	flash     FlashStore
	format    *overview.Formatter
	isDev     bool
}

// Config holds renderer configuration.
type Config struct {
	TemplatesFS fs.FS
	Flash       FlashStore
	Formatter   *overview.Formatter
	IsDev       bool
}

// layouts maps a template directory to the layout its pages are parsed with.
var layouts = map[string]string{
	"public": "layouts/public.html",
	"admin":  "layouts/admin.html",
	"auth":   "layouts/auth.html",
	"errors": "layouts/public.html",
}

// New creates a new Renderer with parsed templates.
func New(cfg Config) (*Renderer, error) {
	if cfg.Formatter == nil {
		cfg.Formatter = overview.NewFormatter("en-IN")
	}
	r := &Renderer{
		templates: make(map[string]*template.Template),
		flash:     cfg.Flash,
		format:    cfg.Formatter,
		isDev:     cfg.IsDev,
	}

	if err := r.parseTemplates(cfg.TemplatesFS); err != nil {
		return nil, err
	}

	return r, nil
}

// parseTemplates parses every page with the base layout, its directory's
// layout and all partials. Pages are named "dir/file" without extension.
func (r *Renderer) parseTemplates(templatesFS fs.FS) error {
	partials, err := templateFiles(templatesFS, "partials")
	if err != nil {
		return fmt.Errorf("getting partials: %w", err)
	}

	for dir, layout := range layouts {
		pages, err := templateFiles(templatesFS, dir)
		if err != nil {
			return fmt.Errorf("getting %s templates: %w", dir, err)
		}

		for _, page := range pages {
			name := dir + "/" + strings.TrimSuffix(path.Base(page), ".html")

			files := []string{"layouts/base.html", layout}
			files = append(files, partials...)
			files = append(files, page)

			tmpl, err := template.New("").Funcs(r.templateFuncs()).ParseFS(templatesFS, files...)
			if err != nil {
				return fmt.Errorf("parsing template %s: %w", name, err)
			}
			r.templates[name] = tmpl
		}
	}

	return nil
}

// templateFiles returns all .html files in a directory. A missing directory
// yields no files.
func templateFiles(templatesFS fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(templatesFS, dir)
	if err != nil {
		return nil, nil
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".html") {
			files = append(files, path.Join(dir, entry.Name()))
		}
	}
	return files, nil
}

// Has reports whether a template is registered.
func (r *Renderer) Has(name string) bool {
	_, ok := r.templates[name]
	return ok
}

// TemplateData holds data passed to templates.
type TemplateData struct {
	Title       string
	Description string
	Data        any
	Flash       string
	FlashType   string
	CurrentYear int
	SiteName    string
	Path        string

	// Admin layout
	Identity      session.Identity
	Sections      []section.Section
	ActiveSection string
}

// Render renders a page with status 200.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, name string, data TemplateData) error {
	return r.RenderStatus(w, req, http.StatusOK, name, data)
}

// RenderStatus renders a page into a buffer first, so a template error never
// produces a half-written response.
func (r *Renderer) RenderStatus(w http.ResponseWriter, req *http.Request, status int, name string, data TemplateData) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}

	data.CurrentYear = time.Now().Year()
	data.SiteName = SiteName
	data.Path = req.URL.Path

	if r.flash != nil && data.Flash == "" {
		if msg, kind := r.flash.PopFlash(req.Context()); msg != "" {
			data.Flash, data.FlashType = msg, kind
		}
	}

	buf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(buf, "base", data); err != nil {
		return fmt.Errorf("executing template %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.DebugContext(req.Context(), "writing response", "template", name, "error", err)
	}
	return nil
}

// SetFlash sets a flash message for the next rendered page.
func (r *Renderer) SetFlash(req *http.Request, message, flashType string) {
	if r.flash != nil {
		r.flash.SetFlash(req.Context(), message, flashType)
	}
}

// Formatter returns the locale formatter used by templates.
func (r *Renderer) Formatter() *overview.Formatter {
	return r.format
}
