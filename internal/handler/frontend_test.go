// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicPagesRender(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/", "/about", "/programs", "/events", "/contact", "/volunteer", "/donate", "/privacy-policy"} {
		t.Run(path, func(t *testing.T) {
			status, _, body := app.get(t, path)
			assert.Equal(t, http.StatusOK, status)
			assert.Contains(t, body, "TapToSmile")
		})
	}
}

func TestEventsSplitUpcomingAndPast(t *testing.T) {
	app := newTestApp(t)
	future := time.Now().AddDate(0, 1, 0).Format(time.DateOnly)
	app.backend.seed("events",
		map[string]any{"_id": "e1", "title": "Winter Drive", "event_date": "2024-01-10", "is_upcoming": false},
		map[string]any{"_id": "e2", "title": "Spring Camp", "event_date": future, "is_upcoming": true},
	)

	status, _, body := app.get(t, "/events")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Winter Drive")
	assert.Contains(t, body, "Spring Camp")
}

func TestContactValidation(t *testing.T) {
	app := newTestApp(t)

	status, _, body := app.post(t, "/contact", url.Values{"name": {"Meera"}})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body, "Email is required")
	assert.Contains(t, body, "Meera", "form keeps the typed values")

	_, ok := app.backend.last(http.MethodPost, "/contact/")
	assert.False(t, ok)
}

func TestContactSubmission(t *testing.T) {
	app := newTestApp(t)

	status, location, _ := app.post(t, "/contact", url.Values{
		"name":    {"Meera"},
		"email":   {"meera@example.org"},
		"subject": {"Partnership"},
		"message": {"We would like to sponsor a camp."},
	})
	require.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, "/contact", location)

	req, ok := app.backend.last(http.MethodPost, "/contact/")
	require.True(t, ok)
	assert.Empty(t, req.Auth, "public submissions carry no token")
	assert.Equal(t, "Partnership", req.Body["subject"])

	_, _, body := app.get(t, location)
	assert.Contains(t, body, "Thank you for reaching out. We will get back to you soon.")
}

func TestVolunteerSubmissionOmitsEmptyFields(t *testing.T) {
	app := newTestApp(t)

	status, location, _ := app.post(t, "/volunteer", url.Values{
		"name":          {"Kiran"},
		"email":         {"kiran@example.org"},
		"phone":         {"9876543210"},
		"city":          {"  "},
		"interest_area": {"Food Logistics"},
	})
	require.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, "/volunteer", location)

	req, ok := app.backend.last(http.MethodPost, "/volunteers/")
	require.True(t, ok)
	assert.NotContains(t, req.Body, "city")
	assert.Equal(t, "Food Logistics", req.Body["interest_area"])

	status, _, body := app.post(t, "/volunteer", url.Values{
		"name":          {"Kiran"},
		"email":         {"kiran@example.org"},
		"phone":         {"9876543210"},
		"interest_area": {"Juggling"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body, "Interest Area must be one of")
}

func TestDonationUsesTierAmount(t *testing.T) {
	app := newTestApp(t)

	status, location, _ := app.post(t, "/donate", url.Values{
		"tier":        {"100"},
		"donor_name":  {"Anil"},
		"donor_email": {"anil@example.org"},
		"donor_phone": {"9876543210"},
	})
	require.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, "/donate", location)

	req, ok := app.backend.last(http.MethodPost, "/donations/")
	require.True(t, ok)
	assert.InDelta(t, 100.0, req.Body["amount"], 0.001)

	status, _, body := app.post(t, "/donate", url.Values{
		"amount":      {"0"},
		"donor_name":  {"Anil"},
		"donor_email": {"anil@example.org"},
		"donor_phone": {"9876543210"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body, "Please enter a valid amount")
}

func TestNotFoundPage(t *testing.T) {
	app := newTestApp(t)

	status, _, _ := app.get(t, "/no-such-page")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.client.Get(app.server.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var health HealthStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "healthy", health.Checks["backend"].Status)
	assert.Equal(t, "healthy", health.Checks["sessions"].Status)
	assert.NotContains(t, health.Checks, "cache", "the memory cache has nothing to ping")
	require.NotNil(t, health.Cache)
	assert.Equal(t, "memory", health.Cache.Backend)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{30 * time.Second, "30 seconds"},
		{15 * time.Minute, "15 minutes"},
		{time.Hour, "1 hour"},
		{3 * time.Hour, "3 hours"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.in), tt.in.String())
	}
}

func TestRobotsAndSitemap(t *testing.T) {
	app := newTestApp(t)
	app.backend.seed("events",
		map[string]any{"_id": "e1", "title": "Walkathon", "event_date": "2025-02-01"},
		map[string]any{"_id": "e2", "title": "Health Camp", "event_date": "2025-04-12"},
	)

	status, _, body := app.get(t, "/robots.txt")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Disallow: /admin\n")
	assert.Contains(t, body, "Sitemap: https://taptosmile.org/sitemap.xml")

	status, _, body = app.get(t, "/sitemap.xml")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "<loc>https://taptosmile.org</loc>")
	assert.Contains(t, body, "<loc>https://taptosmile.org/privacy-policy</loc>")
	assert.Contains(t, body, "<lastmod>2025-04-12</lastmod>")
	assert.NotContains(t, body, "/admin")
}
