// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package transfer exports dashboard section records as CSV or JSON.
package transfer

import (
	"fmt"
	"strings"
	"time"

	"github.com/taptosmile/taptosmile-web/internal/api"
)

// ExportVersion is the current version of the JSON export format.
const ExportVersion = "1.0"

// Format is an export file format.
type Format string

// Supported export formats.
const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat reads a format name. Empty defaults to CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatJSON {
		return "application/json; charset=utf-8"
	}
	return "text/csv; charset=utf-8"
}

// ExportData is the JSON export document.
type ExportData struct {
	Version    string       `json:"version"`
	ExportedAt time.Time    `json:"exported_at"`
	Section    string       `json:"section"`
	Count      int          `json:"count"`
	Records    []api.Record `json:"records"`
}

// Filename builds the download name of an export.
func Filename(sectionKey string, f Format, at time.Time) string {
	return fmt.Sprintf("taptosmile-%s-%s.%s", sectionKey, at.Format("20060102-150405"), f)
}
