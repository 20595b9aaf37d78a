// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package section

import (
	"context"
	"fmt"

	"github.com/taptosmile/taptosmile-web/internal/api"
)

// Option is one choice of a multiselect.
type Option struct {
	Value string
	Label string
}

// LoadOptions fetches the choices of every multiselect field, keyed by field
// name.
func LoadOptions(ctx context.Context, ops Ops, fields []Field) (map[string][]Option, error) {
	out := make(map[string][]Option)
	for _, f := range fields {
		if f.Type != FieldMultiSelect || f.OptionsFrom == "" {
			continue
		}
		records, err := api.DecodeRecords(ops.List(ctx, f.OptionsFrom))
		if err != nil {
			return out, fmt.Errorf("loading %s options: %w", f.Label, err)
		}
		opts := make([]Option, 0, len(records))
		for _, rec := range records {
			label := rec.String("title")
			if label == "" {
				label = rec.String("name")
			}
			if label == "" {
				label = rec.ID()
			}
			opts = append(opts, Option{Value: rec.ID(), Label: label})
		}
		out[f.Name] = opts
	}
	return out, nil
}

// FormValue returns the text shown in a field's input for rec.
func FormValue(rec api.Record, f Field) string {
	if rec == nil || f.Type == FieldPassword {
		return ""
	}
	if f.Type == FieldDate {
		v := rec.String(f.Name)
		if len(v) >= 10 {
			return v[:10]
		}
		return v
	}
	return rec.String(f.Name)
}

// IsChecked reports whether a checkbox starts ticked. New records use the
// field default.
func IsChecked(rec api.Record, f Field) bool {
	if rec == nil {
		return f.DefaultChecked
	}
	return rec.Bool(f.Name)
}

// IsSelected reports whether value is among rec's values for f.
func IsSelected(rec api.Record, f Field, value string) bool {
	if rec == nil {
		return false
	}
	for _, v := range rec.Strings(f.Name) {
		if v == value {
			return true
		}
	}
	return false
}
