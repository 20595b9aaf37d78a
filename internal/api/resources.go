// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// Resource names a backend collection.
type Resource string

// Backend collections.
const (
	Programs   Resource = "programs"
	Events     Resource = "events"
	Projects   Resource = "projects"
	Volunteers Resource = "volunteers"
	Donations  Resource = "donations"
	Messages   Resource = "contact"
	Impact     Resource = "impact"
	Admins     Resource = "admin"
)

func (r Resource) collection() string {
	return "/" + string(r) + "/"
}

func (r Resource) item(id string) string {
	return "/" + string(r) + "/" + url.PathEscape(id)
}

// Login exchanges credentials for a token. The backend expects an OAuth2
// password form with the email in "username".
func (c *Client) Login(ctx context.Context, email, password string) Result {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)
	return c.do(ctx, http.MethodPost, "/admin/login", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
}

// Logout tells the backend to revoke the current token.
func (c *Client) Logout(ctx context.Context) Result {
	return c.doJSON(ctx, http.MethodPost, "/admin/logout", nil)
}

// Me verifies the current token and returns the identity.
func (c *Client) Me(ctx context.Context) Result {
	return c.doJSON(ctx, http.MethodGet, "/admin/me", nil)
}

// ForgotPassword asks the backend to start a password reset.
func (c *Client) ForgotPassword(ctx context.Context, email string) Result {
	return c.doJSON(ctx, http.MethodPost, "/admin/forgot-password", map[string]string{"email": email})
}

// List fetches every record of a collection.
func (c *Client) List(ctx context.Context, res Resource) Result {
	return c.doJSON(ctx, http.MethodGet, res.collection(), nil)
}

// Create adds a record.
func (c *Client) Create(ctx context.Context, res Resource, payload map[string]any) Result {
	return c.doJSON(ctx, http.MethodPost, res.collection(), payload)
}

// Update replaces a record.
func (c *Client) Update(ctx context.Context, res Resource, id string, payload map[string]any) Result {
	return c.doJSON(ctx, http.MethodPut, res.item(id), payload)
}

// Delete removes a record.
func (c *Client) Delete(ctx context.Context, res Resource, id string) Result {
	return c.doJSON(ctx, http.MethodDelete, res.item(id), nil)
}

// UpdateStatus moves a volunteer or pledge to another status.
func (c *Client) UpdateStatus(ctx context.Context, res Resource, id, status string) Result {
	return c.doJSON(ctx, http.MethodPatch, res.item(id)+"/status", map[string]string{"status": status})
}

// SubmitVolunteer posts a public volunteer application.
func (c *Client) SubmitVolunteer(ctx context.Context, payload map[string]any) Result {
	return c.Create(ctx, Volunteers, payload)
}

// SubmitContact posts a public contact message.
func (c *Client) SubmitContact(ctx context.Context, payload map[string]any) Result {
	return c.Create(ctx, Messages, payload)
}

// SubmitDonation posts a public donation pledge.
func (c *Client) SubmitDonation(ctx context.Context, payload map[string]any) Result {
	return c.Create(ctx, Donations, payload)
}

// Ping checks that the backend answers at all.
func (c *Client) Ping(ctx context.Context) Result {
	return c.doJSON(ctx, http.MethodGet, "", nil)
}
