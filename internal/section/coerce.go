// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package section

import (
	"context"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/taptosmile/taptosmile-web/internal/api"
)

// Uploader stores an image and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, api.Result)
}

// Input is a submitted form.
type Input struct {
	Values url.Values
	Files  map[string][]*multipart.FileHeader
}

// ValidationError collects every problem found in one submission.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

func (e *ValidationError) add(format string, args ...any) {
	e.Messages = append(e.Messages, fmt.Sprintf(format, args...))
}

// Coerce turns a submitted form into a backend payload. Empty values are left
// out of the payload entirely; read-only fields are never sent.
func Coerce(ctx context.Context, fields []Field, in Input, up Uploader) (map[string]any, error) {
	payload := make(map[string]any, len(fields))
	verr := &ValidationError{}

	for _, f := range fields {
		if f.ReadOnly {
			continue
		}

		switch f.Type {
		case FieldCheckbox:
			payload[f.Name] = checked(in.Values.Get(f.Name))
			continue

		case FieldMultiSelect, FieldList:
			items := splitList(in.Values[f.Name])
			if len(items) > 0 {
				payload[f.Name] = items
			} else if f.Required {
				verr.add("%s is required", f.Label)
			}
			continue

		case FieldImage:
			value, err := coerceImage(ctx, f, in, up)
			if err != nil {
				verr.add("%s: %s", f.Label, err.Error())
				continue
			}
			if value != "" {
				payload[f.Name] = value
			} else if f.Required {
				verr.add("%s is required", f.Label)
			}
			continue
		}

		raw := in.Values.Get(f.Name)
		if f.Type != FieldPassword {
			raw = strings.TrimSpace(raw)
		}
		if raw == "" {
			if f.Required {
				verr.add("%s is required", f.Label)
			}
			continue
		}

		switch f.Type {
		case FieldNumber:
			n, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
			if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
				verr.add("%s must be a number", f.Label)
				continue
			}
			payload[f.Name] = n
		case FieldDate:
			if _, err := time.Parse(time.DateOnly, raw); err != nil {
				verr.add("%s must be a date (YYYY-MM-DD)", f.Label)
				continue
			}
			payload[f.Name] = raw
		case FieldSelect:
			if len(f.Options) > 0 && !slices.Contains(f.Options, raw) {
				verr.add("%s must be one of: %s", f.Label, strings.Join(f.Options, ", "))
				continue
			}
			payload[f.Name] = raw
		default:
			payload[f.Name] = raw
		}
	}

	if len(verr.Messages) > 0 {
		return nil, verr
	}
	return payload, nil
}

// coerceImage uploads a single selected file, or falls back to the URL
// typed into the text input.
func coerceImage(ctx context.Context, f Field, in Input, up Uploader) (string, error) {
	files := in.Files[f.FileInputName()]
	if len(files) == 0 || files[0] == nil || files[0].Size == 0 {
		return strings.TrimSpace(in.Values.Get(f.Name)), nil
	}
	if len(files) > 1 {
		return "", fmt.Errorf("select a single file")
	}
	if up == nil {
		return "", fmt.Errorf("uploads are not available")
	}

	fh := files[0]
	file, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("could not read the selected file")
	}
	defer func() { _ = file.Close() }()

	stored, res := up.Upload(ctx, fh.Filename, fh.Header.Get("Content-Type"), file)
	if !res.Success {
		return "", fmt.Errorf("upload failed: %s", res.Message)
	}
	return stored, nil
}

func checked(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes":
		return true
	default:
		return false
	}
}

// splitList accepts repeated values and comma separated values alike.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
