// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package render

import (
	"fmt"
	"html/template"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/taptosmile/taptosmile-web/internal/api"
	"github.com/taptosmile/taptosmile-web/internal/overview"
	"github.com/taptosmile/taptosmile-web/internal/section"
)

const excerptLength = 80

// FormField is the context of the "field" partial.
type FormField struct {
	Field   section.Field
	Record  api.Record
	Options map[string][]section.Option
}

// templateFuncs returns custom template functions.
func (r *Renderer) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("Jan 2, 2006")
		},
		"formatDateTime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("Jan 2, 2006 3:04 PM")
		},
		"truncate": truncate,
		"lower":    strings.ToLower,
		"join":     strings.Join,
		"add": func(a, b int) int {
			return a + b
		},
		"money": func(v any) string {
			return r.format.Money(overview.ParseAmount(v))
		},
		"count": r.format.Count,
		"cell": func(rec api.Record, col section.Column) template.HTML {
			return formatCell(rec, col, r.format)
		},
		"statusClass": statusClass,
		"fieldValue":  section.FormValue,
		"isChecked":   section.IsChecked,
		"isSelected":  section.IsSelected,
		"optionsFor": func(all map[string][]section.Option, f section.Field) []section.Option {
			return all[f.Name]
		},
		"formField": func(f section.Field, rec api.Record, opts map[string][]section.Option) FormField {
			return FormField{Field: f, Record: rec, Options: opts}
		},
		"canSee": func(s section.Section, role string) bool {
			return s.VisibleTo(role)
		},
		"isActivePath": func(current, prefix string) bool {
			if prefix == "/" {
				return current == "/"
			}
			return current == prefix || strings.HasPrefix(current, prefix+"/")
		},
	}
}

// truncate shortens s to at most length runes.
func truncate(s string, length int) string {
	if utf8.RuneCountInString(s) <= length {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:length])) + "…"
}

// formatCell renders one list cell according to the column format.
func formatCell(rec api.Record, col section.Column, f *overview.Formatter) template.HTML {
	raw := rec.String(col.Key)

	switch col.Format {
	case section.FormatDate:
		if t, ok := rec.Time(col.Key); ok {
			return esc(t.Format("Jan 2, 2006"))
		}
		return esc(raw)
	case section.FormatMoney:
		return esc(f.Money(overview.ParseAmount(rec[col.Key])))
	case section.FormatBool:
		if rec.Bool(col.Key) {
			return `<span class="badge badge-yes">Yes</span>`
		}
		return `<span class="badge badge-no">No</span>`
	case section.FormatStatus:
		if raw == "" {
			return ""
		}
		return template.HTML(fmt.Sprintf(`<span class="badge %s">%s</span>`, statusClass(raw), template.HTMLEscapeString(raw))) // #nosec G203 -- escaped
	case section.FormatExcerpt:
		return esc(truncate(raw, excerptLength))
	case section.FormatImage:
		if !isImageURL(raw) {
			return ""
		}
		return template.HTML(fmt.Sprintf(`<img class="thumb" src="%s" alt="" loading="lazy">`, template.HTMLEscapeString(raw))) // #nosec G203 -- escaped
	default:
		return esc(raw)
	}
}

func esc(s string) template.HTML {
	return template.HTML(template.HTMLEscapeString(s)) // #nosec G203 -- escaped
}

func isImageURL(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://") ||
		(strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "//"))
}

// statusClass maps a workflow status to a badge CSS class.
func statusClass(status string) string {
	switch strings.ToLower(status) {
	case "new", "pending":
		return "badge-pending"
	case "contacted":
		return "badge-info"
	case "onboarded", "received", "active":
		return "badge-ok"
	case "rejected", "cancelled":
		return "badge-muted"
	default:
		return "badge-default"
	}
}
