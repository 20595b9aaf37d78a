// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package seo

import (
	"strings"
	"testing"
)

func TestBuildRobotsDefault(t *testing.T) {
	content := BuildRobots(RobotsConfig{SiteURL: "https://taptosmile.org/"})

	if !strings.HasPrefix(content, "User-agent: *\n") {
		t.Errorf("BuildRobots() should start with the user-agent line, got %q", content)
	}
	for _, path := range []string{"/admin", "/health"} {
		if !strings.Contains(content, "Disallow: "+path+"\n") {
			t.Errorf("BuildRobots() should disallow %q", path)
		}
	}
	if !strings.Contains(content, "Allow: /\n") {
		t.Error("BuildRobots() should allow the rest of the site")
	}
	if !strings.Contains(content, "Sitemap: https://taptosmile.org/sitemap.xml\n") {
		t.Error("BuildRobots() should reference the sitemap")
	}
}

func TestBuildRobotsDisallowAll(t *testing.T) {
	content := BuildRobots(RobotsConfig{SiteURL: "https://staging.taptosmile.org", DisallowAll: true})

	if content != "User-agent: *\nDisallow: /\n" {
		t.Errorf("BuildRobots() = %q", content)
	}
}

func TestBuildRobotsExtraPaths(t *testing.T) {
	content := BuildRobots(RobotsConfig{DisallowPaths: []string{"/static/uploads"}})

	if !strings.Contains(content, "Disallow: /static/uploads\n") {
		t.Error("BuildRobots() should include extra disallow paths")
	}
	if strings.Contains(content, "Sitemap:") {
		t.Error("BuildRobots() without site URL should not reference a sitemap")
	}
}
