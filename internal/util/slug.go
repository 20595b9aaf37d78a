// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util provides slug generation for upload filenames.
package util

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mozillazg/go-unidecode"
)

var (
	// slugRegex matches non-alphanumeric characters (except hyphens)
	slugRegex = regexp.MustCompile(`[^a-z0-9-]+`)
	// multipleHyphens matches multiple consecutive hyphens
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

const maxSlugLength = 80

// Slugify converts a string to a lowercase ASCII slug. Non-Latin scripts are
// transliterated first, so "Über München" becomes "uber-munchen".
func Slugify(s string) string {
	result := strings.ToLower(unidecode.Unidecode(s))

	result = strings.ReplaceAll(result, " ", "-")
	result = slugRegex.ReplaceAllString(result, "-")
	result = multipleHyphens.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")

	if len(result) > maxSlugLength {
		result = strings.Trim(result[:maxSlugLength], "-")
	}
	return result
}

// UploadFilename builds a safe filename for an uploaded image from the name
// the browser sent and the extension of the encoded format.
func UploadFilename(original, ext string) string {
	base := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))

	slug := Slugify(base)
	if slug == "" {
		slug = "image"
	}

	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" {
		return slug
	}
	return slug + "." + ext
}
