// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for the TapToSmile site and
// admin back-office.
package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"filippo.io/csrf/gorilla"
)

// CSRFOptions configures cross-origin form protection. Checks rely on Fetch
// metadata and Origin headers, so no token field is rendered into forms.
type CSRFOptions struct {
	// AuthKey is the 32-byte session secret.
	AuthKey []byte
	// SiteURL is the public origin; its host is trusted when the site sits
	// behind a proxy that rewrites Host.
	SiteURL string
	// Port is the listen port, trusted on loopback hosts in development.
	Port  int
	IsDev bool
	// OnFailure replaces the plain 403 response.
	OnFailure http.Handler
}

// TrustedHosts returns the host[:port] values accepted as cross-origin
// sources. The csrf library compares against hosts, not full URLs.
func (o CSRFOptions) TrustedHosts() []string {
	var hosts []string
	if o.SiteURL != "" {
		if u, err := url.Parse(o.SiteURL); err == nil && u.Host != "" {
			hosts = append(hosts, u.Host)
		}
	}
	if o.IsDev && o.Port > 0 {
		p := strconv.Itoa(o.Port)
		hosts = append(hosts, "localhost:"+p, "127.0.0.1:"+p)
	}
	return hosts
}

// CSRF rejects state-changing requests that did not originate from the site.
func CSRF(o CSRFOptions) func(http.Handler) http.Handler {
	onFailure := o.OnFailure
	if onFailure == nil {
		onFailure = http.HandlerFunc(csrfFailed)
	}
	opts := []csrf.Option{csrf.ErrorHandler(onFailure)}
	if hosts := o.TrustedHosts(); len(hosts) > 0 {
		opts = append(opts, csrf.TrustedOrigins(hosts))
	}
	return csrf.Protect(o.AuthKey, opts...)
}

func csrfFailed(w http.ResponseWriter, r *http.Request) {
	reason := "unknown"
	if err := csrf.FailureReason(r); err != nil {
		reason = err.Error()
	}
	slog.WarnContext(r.Context(), "cross-origin form rejected",
		"reason", reason,
		"method", r.Method,
		"path", r.URL.Path,
		"origin", r.Header.Get("Origin"),
		"sec_fetch_site", r.Header.Get("Sec-Fetch-Site"),
	)
	http.Error(w, "This form could not be verified. Please reload the page and try again.", http.StatusForbidden)
}
