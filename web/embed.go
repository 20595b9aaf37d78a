// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package web embeds the HTML templates and static assets.
package web

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed all:templates
var templates embed.FS

//go:embed all:static
var static embed.FS

// Templates returns the page templates rooted at the templates directory,
// so pages are addressed as "public/home.html".
func Templates() (fs.FS, error) {
	sub, err := fs.Sub(templates, "templates")
	if err != nil {
		return nil, fmt.Errorf("templates fs: %w", err)
	}
	return sub, nil
}

// Static returns the assets served under /static/.
func Static() (fs.FS, error) {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		return nil, fmt.Errorf("static fs: %w", err)
	}
	return sub, nil
}
