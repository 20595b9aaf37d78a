// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// SecurityHeadersConfig holds the response headers applied to every page.
type SecurityHeadersConfig struct {
	// IsDevelopment disables HSTS and lets images load over plain http.
	IsDevelopment bool

	// ImageOrigins are extra img-src sources, typically the backend's
	// upload host for program and event covers.
	ImageOrigins []string

	// HSTSMaxAge in seconds; zero disables HSTS.
	HSTSMaxAge int

	FrameOptions   string
	ReferrerPolicy string

	// NoStorePrefixes are path prefixes whose responses must never be
	// cached by the browser or a shared proxy.
	NoStorePrefixes []string
}

// DefaultSecurityHeadersConfig returns the headers used in production, or
// their relaxed development variant.
func DefaultSecurityHeadersConfig(isDev bool) SecurityHeadersConfig {
	return SecurityHeadersConfig{
		IsDevelopment:   isDev,
		HSTSMaxAge:      31536000,
		FrameOptions:    "SAMEORIGIN",
		ReferrerPolicy:  "strict-origin-when-cross-origin",
		NoStorePrefixes: []string{"/admin"},
	}
}

// WithImageOrigin adds the origin of rawURL to img-src. Unparseable or
// relative URLs are ignored.
func (c SecurityHeadersConfig) WithImageOrigin(rawURL string) SecurityHeadersConfig {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return c
	}
	c.ImageOrigins = append(append([]string(nil), c.ImageOrigins...), u.Scheme+"://"+u.Host)
	return c
}

// ContentSecurityPolicy renders the CSP header value. Directives keep a
// fixed order so the header is stable across requests.
func (c SecurityHeadersConfig) ContentSecurityPolicy() string {
	img := []string{"'self'", "data:"}
	if c.IsDevelopment {
		img = append(img, "http:", "https:")
	}
	img = append(img, c.ImageOrigins...)

	directives := [][2]string{
		{"default-src", "'self'"},
		{"script-src", "'self'"},
		{"style-src", "'self' 'unsafe-inline'"},
		{"img-src", strings.Join(img, " ")},
		{"font-src", "'self' data:"},
		{"connect-src", "'self'"},
		{"object-src", "'none'"},
		{"base-uri", "'self'"},
		{"form-action", "'self'"},
		{"frame-ancestors", "'self'"},
	}

	parts := make([]string, 0, len(directives))
	for _, d := range directives {
		parts = append(parts, d[0]+" "+d[1])
	}
	return strings.Join(parts, "; ")
}

// permissionsPolicy denies every powerful feature; the site uses none.
const permissionsPolicy = "accelerometer=(), browsing-topics=(), camera=(), geolocation=(), " +
	"gyroscope=(), interest-cohort=(), magnetometer=(), microphone=(), payment=(), usb=()"

// SecurityHeaders returns a middleware that adds security headers to responses.
func SecurityHeaders(cfg SecurityHeadersConfig) func(http.Handler) http.Handler {
	csp := cfg.ContentSecurityPolicy()
	hsts := ""
	if !cfg.IsDevelopment && cfg.HSTSMaxAge > 0 {
		hsts = "max-age=" + strconv.Itoa(cfg.HSTSMaxAge) + "; includeSubDomains"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Content-Security-Policy", csp)
			if hsts != "" {
				h.Set("Strict-Transport-Security", hsts)
			}
			if cfg.FrameOptions != "" {
				h.Set("X-Frame-Options", cfg.FrameOptions)
			}
			if cfg.ReferrerPolicy != "" {
				h.Set("Referrer-Policy", cfg.ReferrerPolicy)
			}
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Permissions-Policy", permissionsPolicy)

			for _, prefix := range cfg.NoStorePrefixes {
				if r.URL.Path == prefix || strings.HasPrefix(r.URL.Path, prefix+"/") {
					h.Set("Cache-Control", "no-store, private")
					break
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
