// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/taptosmile/taptosmile-web/internal/api"
	"github.com/taptosmile/taptosmile-web/internal/render"
	"github.com/taptosmile/taptosmile-web/internal/section"
	"github.com/taptosmile/taptosmile-web/internal/service"
)

// Content is the cached public content the site renders.
type Content interface {
	Home(ctx context.Context) service.Home
	Programs(ctx context.Context) ([]service.Program, error)
	Projects(ctx context.Context) ([]service.Project, error)
	Events(ctx context.Context) ([]service.Event, error)
	Impact(ctx context.Context) ([]service.ImpactStat, error)
}

// SubmitAPI accepts the public form submissions.
type SubmitAPI interface {
	SubmitContact(ctx context.Context, payload map[string]any) api.Result
	SubmitVolunteer(ctx context.Context, payload map[string]any) api.Result
	SubmitDonation(ctx context.Context, payload map[string]any) api.Result
}

const contentUnavailable = "Content is temporarily unavailable. Please try again shortly."

// InterestAreas are the volunteer interest choices.
var InterestAreas = []string{
	"Education & Mentorship",
	"Food Logistics",
	"Healthcare Events",
	"Creative Design / PR",
}

// DonationTier is a suggested pledge amount.
type DonationTier struct {
	Amount int
	Label  string
}

// DonationTiers are offered on the pledge form.
var DonationTiers = []DonationTier{
	{Amount: 50, Label: "Supply a student's books"},
	{Amount: 100, Label: "Sponsor a health checkup"},
	{Amount: 500, Label: "A month of shelter support"},
}

var contactFields = []section.Field{
	{Name: "name", Label: "Name", Type: section.FieldText, Required: true},
	{Name: "email", Label: "Email", Type: section.FieldEmail, Required: true},
	{Name: "subject", Label: "Subject", Type: section.FieldText, Required: true},
	{Name: "message", Label: "Message", Type: section.FieldTextarea, Required: true},
}

var volunteerFields = []section.Field{
	{Name: "name", Label: "Full Name", Type: section.FieldText, Required: true},
	{Name: "email", Label: "Email", Type: section.FieldEmail, Required: true},
	{Name: "phone", Label: "Phone", Type: section.FieldText, Required: true},
	{Name: "city", Label: "City", Type: section.FieldText},
	{Name: "interest_area", Label: "Interest Area", Type: section.FieldSelect, Options: InterestAreas},
}

var donationFields = []section.Field{
	{Name: "donor_name", Label: "Name", Type: section.FieldText, Required: true},
	{Name: "donor_email", Label: "Email", Type: section.FieldEmail, Required: true},
	{Name: "donor_phone", Label: "Phone", Type: section.FieldText, Required: true},
	{Name: "amount", Label: "Amount", Type: section.FieldNumber, Required: true},
	{Name: "message", Label: "Message", Type: section.FieldTextarea},
}

// FrontendHandler serves the public site.
type FrontendHandler struct {
	content  Content
	submit   SubmitAPI
	renderer *render.Renderer
	logger   *slog.Logger
}

// NewFrontendHandler creates a new FrontendHandler.
func NewFrontendHandler(content Content, submit SubmitAPI, renderer *render.Renderer, logger *slog.Logger) *FrontendHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FrontendHandler{
		content:  content,
		submit:   submit,
		renderer: renderer,
		logger:   logger,
	}
}

// ProgramsData is the programs page model.
type ProgramsData struct {
	Programs []service.Program
	Projects []service.Project
	Error    string
}

// EventsData is the events page model.
type EventsData struct {
	Upcoming []service.Event
	Past     []service.Event
	Error    string
}

// AboutData is the about page model.
type AboutData struct {
	Impact []service.ImpactStat
}

// PublicFormData is the model of the contact, volunteer and pledge pages.
type PublicFormData struct {
	Values        url.Values
	Error         string
	InterestAreas []string
	Tiers         []DonationTier
}

// Value returns the submitted value of a field.
func (d PublicFormData) Value(name string) string {
	return d.Values.Get(name)
}

// Home renders the landing page.
func (h *FrontendHandler) Home(w http.ResponseWriter, r *http.Request) {
	home := h.content.Home(r.Context())
	renderPage(w, r, h.renderer, http.StatusOK, "public/home", render.TemplateData{
		Title:       "Home",
		Description: "TapToSmile brings education, food and healthcare to the communities that need them most.",
		Data:        home,
	})
}

// About renders the about page with the impact figures.
func (h *FrontendHandler) About(w http.ResponseWriter, r *http.Request) {
	impact, err := h.content.Impact(r.Context())
	if err != nil {
		h.logger.WarnContext(r.Context(), "loading impact stats failed", "error", err, "category", "content")
	}
	renderPage(w, r, h.renderer, http.StatusOK, "public/about", render.TemplateData{
		Title:       "About Us",
		Description: "Our mission, vision and the people behind TapToSmile.",
		Data:        AboutData{Impact: impact},
	})
}

// Programs renders the active programs and their projects.
func (h *FrontendHandler) Programs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := ProgramsData{}

	programs, err := h.content.Programs(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "loading programs failed", "error", err, "category", "content")
		data.Error = contentUnavailable
	}
	data.Programs = programs

	projects, err := h.content.Projects(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "loading projects failed", "error", err, "category", "content")
		data.Error = contentUnavailable
	}
	data.Projects = projects

	renderPage(w, r, h.renderer, http.StatusOK, "public/programs", render.TemplateData{
		Title:       "Our Programs",
		Description: "The programs and field projects TapToSmile runs.",
		Data:        data,
	})
}

// Events renders upcoming events followed by past ones.
func (h *FrontendHandler) Events(w http.ResponseWriter, r *http.Request) {
	data := EventsData{}

	events, err := h.content.Events(r.Context())
	if err != nil {
		h.logger.WarnContext(r.Context(), "loading events failed", "error", err, "category", "content")
		data.Error = contentUnavailable
	}
	for _, e := range events {
		if e.Upcoming {
			data.Upcoming = append(data.Upcoming, e)
		} else {
			data.Past = append([]service.Event{e}, data.Past...)
		}
	}

	renderPage(w, r, h.renderer, http.StatusOK, "public/events", render.TemplateData{
		Title:       "Events",
		Description: "Join an upcoming TapToSmile event.",
		Data:        data,
	})
}

// Privacy renders the privacy policy.
func (h *FrontendHandler) Privacy(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, h.renderer, http.StatusOK, "public/privacy", render.TemplateData{
		Title: "Privacy Policy",
	})
}

// ContactForm renders the contact form.
func (h *FrontendHandler) ContactForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, "public/contact", "Contact Us", PublicFormData{})
}

// Contact handles the contact form submission.
func (h *FrontendHandler) Contact(w http.ResponseWriter, r *http.Request) {
	h.handleSubmit(w, r, submission{
		fields:   contactFields,
		template: "public/contact",
		title:    "Contact Us",
		send:     h.submit.SubmitContact,
		kind:     "contact",
		redirect: RouteContact,
		thanks:   "Thank you for reaching out. We will get back to you soon.",
	})
}

// VolunteerForm renders the volunteer application form.
func (h *FrontendHandler) VolunteerForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, "public/volunteer", "Volunteer", PublicFormData{})
}

// Volunteer handles the volunteer application.
func (h *FrontendHandler) Volunteer(w http.ResponseWriter, r *http.Request) {
	h.handleSubmit(w, r, submission{
		fields:   volunteerFields,
		template: "public/volunteer",
		title:    "Volunteer",
		send:     h.submit.SubmitVolunteer,
		kind:     "volunteer",
		redirect: RouteVolunteer,
		thanks:   "Thank you for signing up! Our team will contact you shortly.",
	})
}

// DonateForm renders the pledge form.
func (h *FrontendHandler) DonateForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, "public/donate", "Make a Pledge", PublicFormData{})
}

// Donate records a pledge. A selected tier fills in the amount when no
// custom amount was typed.
func (h *FrontendHandler) Donate(w http.ResponseWriter, r *http.Request) {
	h.handleSubmit(w, r, submission{
		fields:   donationFields,
		template: "public/donate",
		title:    "Make a Pledge",
		send:     h.submit.SubmitDonation,
		kind:     "donation",
		redirect: RouteDonate,
		thanks:   "Thank you for your pledge! Our team will contact you to complete the contribution.",
		prepare: func(values url.Values) {
			if strings.TrimSpace(values.Get("amount")) == "" {
				values.Set("amount", values.Get("tier"))
			}
		},
		validate: func(payload map[string]any) string {
			if amount, _ := payload["amount"].(float64); amount <= 0 {
				return "Please enter a valid amount"
			}
			return ""
		},
	})
}

// submission describes one public form.
type submission struct {
	fields   []section.Field
	template string
	title    string
	send     func(ctx context.Context, payload map[string]any) api.Result
	kind     string
	redirect string
	thanks   string
	prepare  func(values url.Values)
	validate func(payload map[string]any) string
}

// handleSubmit coerces the form, sends it to the backend and redirects
// with a thank-you flash. Failures re-render the form with one message.
func (h *FrontendHandler) handleSubmit(w http.ResponseWriter, r *http.Request, sub submission) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		h.renderForm(w, r, http.StatusBadRequest, sub.template, sub.title, PublicFormData{Error: "Invalid form data"})
		return
	}

	values := r.PostForm
	if sub.prepare != nil {
		sub.prepare(values)
	}
	data := PublicFormData{Values: values}

	payload, err := section.Coerce(r.Context(), sub.fields, section.Input{Values: values}, nil)
	if err != nil {
		data.Error = err.Error()
		h.renderForm(w, r, http.StatusUnprocessableEntity, sub.template, sub.title, data)
		return
	}
	if sub.validate != nil {
		if msg := sub.validate(payload); msg != "" {
			data.Error = msg
			h.renderForm(w, r, http.StatusUnprocessableEntity, sub.template, sub.title, data)
			return
		}
	}

	res := sub.send(r.Context(), payload)
	if !res.Success {
		h.logger.WarnContext(r.Context(), "public submission failed",
			"form", sub.kind,
			"kind", res.Kind.String(),
			"status", res.Status,
			"category", "api",
		)
		data.Error = "Submission failed: " + res.Message
		h.renderForm(w, r, statusForFailure(res), sub.template, sub.title, data)
		return
	}

	h.logger.InfoContext(r.Context(), "public submission received", "form", sub.kind, "category", "content")
	flashSuccess(w, r, h.renderer, sub.redirect, sub.thanks)
}

func (h *FrontendHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, name, title string, data PublicFormData) {
	if data.Values == nil {
		data.Values = url.Values{}
	}
	data.InterestAreas = InterestAreas
	data.Tiers = DonationTiers
	renderPage(w, r, h.renderer, status, name, render.TemplateData{
		Title: title,
		Data:  data,
	})
}
