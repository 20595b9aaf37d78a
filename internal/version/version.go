// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package version provides build-time version information.
package version

import (
	"runtime/debug"
	"strings"
)

// Info contains build-time version information injected via ldflags.
type Info struct {
	Version   string // Semantic version from git tags (e.g., "v1.2.3")
	GitCommit string // Short git commit hash (e.g., "abc1234")
	BuildTime string // Build timestamp in RFC3339 format
}

// unset marks ldflags values that were not injected.
const unset = "unknown"

// Resolve fills missing fields from the VCS stamp the Go toolchain embeds
// into binaries built from a checkout.
func (i Info) Resolve() Info {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return i
	}
	return i.fromSettings(bi.Settings)
}

func (i Info) fromSettings(settings []debug.BuildSetting) Info {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if i.GitCommit == "" || i.GitCommit == unset {
				i.GitCommit = s.Value[:min(7, len(s.Value))]
			}
		case "vcs.time":
			if i.BuildTime == "" || i.BuildTime == unset {
				i.BuildTime = s.Value
			}
		}
	}
	return i
}

// String returns "v1.2.3 (abc1234)", or "dev" when nothing was injected.
func (i Info) String() string {
	v := i.Version
	if v == "" {
		v = "dev"
	}
	if i.GitCommit != "" && i.GitCommit != unset {
		v += " (" + i.GitCommit + ")"
	}
	return v
}

// UserAgent identifies the site to the backend, e.g. "taptosmile-web/1.2.3".
func (i Info) UserAgent() string {
	v := strings.TrimPrefix(i.Version, "v")
	if v == "" {
		v = "dev"
	}
	return "taptosmile-web/" + v
}
