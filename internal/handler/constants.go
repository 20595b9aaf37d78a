// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the root path.
	RouteRoot = "/"
	// RouteAbout is the about page.
	RouteAbout = "/about"
	// RoutePrograms lists programs and projects.
	RoutePrograms = "/programs"
	// RouteEvents lists events.
	RouteEvents = "/events"
	// RouteContact is the contact form.
	RouteContact = "/contact"
	// RouteVolunteer is the volunteer application form.
	RouteVolunteer = "/volunteer"
	// RouteDonate is the pledge form.
	RouteDonate = "/donate"
	// RoutePrivacy is the privacy policy.
	RoutePrivacy = "/privacy-policy"
	// RouteHealth is the health check.
	RouteHealth = "/health"
	// RouteRobots is the crawler policy.
	RouteRobots = "/robots.txt"
	// RouteSitemap lists the public pages.
	RouteSitemap = "/sitemap.xml"

	// RouteAdmin is the admin dashboard root.
	RouteAdmin = "/admin"
	// RouteLogin is the login route, relative to RouteAdmin.
	RouteLogin = "/login"
	// RouteLogout is the logout route, relative to RouteAdmin.
	RouteLogout = "/logout"
	// RouteForgotPassword is the password reset request, relative to RouteAdmin.
	RouteForgotPassword = "/forgot-password"

	// RouteSection is a dashboard section list.
	RouteSection = "/{section}"
	// RouteSectionExport downloads a section's records.
	RouteSectionExport = "/{section}/export"
	// RouteSectionNew is the create form.
	RouteSectionNew = "/{section}/new"
	// RouteSectionID is a record update target.
	RouteSectionID = "/{section}/{id}"
	// RouteSectionEdit is the edit form.
	RouteSectionEdit = "/{section}/{id}/edit"
	// RouteSectionStatus moves a record's status.
	RouteSectionStatus = "/{section}/{id}/status"
	// RouteSectionDelete is the delete confirmation and action.
	RouteSectionDelete = "/{section}/{id}/delete"
)

// Redirect targets.
const (
	redirectAdmin = RouteAdmin
	redirectLogin = RouteAdmin + RouteLogin
)

// Flash message types.
const (
	flashTypeSuccess = "success"
	flashTypeError   = "error"
	flashTypeInfo    = "info"
)

// Form limits.
const (
	maxFormBytes = 1 << 20
)

// sectionPath builds an admin URL for a section, e.g. /admin/programs.
func sectionPath(key string, parts ...string) string {
	p := RouteAdmin + "/" + key
	for _, part := range parts {
		p += "/" + part
	}
	return p
}
