// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/taptosmile/taptosmile-web/internal/api"
	"github.com/taptosmile/taptosmile-web/internal/section"
)

// sensitiveKeys are never written to an export.
var sensitiveKeys = []string{"password", "hashed_password"}

// Exporter writes section records to a file format.
type Exporter struct {
	now func() time.Time
}

// NewExporter creates a new Exporter.
func NewExporter() *Exporter {
	return &Exporter{now: time.Now}
}

// Export writes records of s to w in format f.
func (e *Exporter) Export(w io.Writer, s section.Section, records []api.Record, f Format) error {
	switch f {
	case FormatJSON:
		return e.exportJSON(w, s, records)
	case FormatCSV:
		return exportCSV(w, s, records)
	default:
		return fmt.Errorf("unsupported export format %q", f)
	}
}

func (e *Exporter) exportJSON(w io.Writer, s section.Section, records []api.Record) error {
	clean := make([]api.Record, 0, len(records))
	for _, rec := range records {
		out := make(api.Record, len(rec))
		for k, v := range rec {
			out[k] = v
		}
		for _, k := range sensitiveKeys {
			delete(out, k)
		}
		clean = append(clean, out)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{
		Version:    ExportVersion,
		ExportedAt: e.now().UTC(),
		Section:    s.Key,
		Count:      len(clean),
		Records:    clean,
	})
}

// exportCSV writes one row per record with the section's list columns
// followed by the record id.
func exportCSV(w io.Writer, s section.Section, records []api.Record) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(s.Columns)+1)
	header = append(header, "ID")
	for _, col := range s.Columns {
		header = append(header, col.Label)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, rec := range records {
		row := make([]string, 0, len(header))
		row = append(row, safeCell(rec.ID()))
		for _, col := range s.Columns {
			row = append(row, safeCell(rec.String(col.Key)))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// safeCell neutralizes values a spreadsheet would evaluate as a formula.
func safeCell(v string) string {
	if v == "" {
		return v
	}
	switch v[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + v
	}
	return v
}
