// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taptosmile/taptosmile-web/internal/api"
	"github.com/taptosmile/taptosmile-web/internal/guard"
	"github.com/taptosmile/taptosmile-web/internal/overview"
	"github.com/taptosmile/taptosmile-web/internal/section"
	"github.com/taptosmile/taptosmile-web/internal/transfer"
)

var errRecordNotFound = errors.New("record not found")

// ListData is the section list page model.
type ListData struct {
	Section section.Section
	Records []api.Record
	Cards   []overview.Card
	Error   string
}

// FormData is the create/edit page model. Record is nil on the create form.
type FormData struct {
	Section section.Section
	Record  api.Record
	Options map[string][]section.Option
	Action  string
	IsNew   bool
	Error   string
}

// StatusOnly reports whether the form only moves the record's status.
func (d FormData) StatusOnly() bool {
	return !d.IsNew && d.Section.StatusOnly
}

// DeleteData is the delete confirmation page model.
type DeleteData struct {
	Section section.Section
	Record  api.Record
	Label   string
}

// sectionFromRequest resolves the {section} parameter and enforces the
// section's role restriction. It writes the error response itself.
func (h *AdminHandler) sectionFromRequest(w http.ResponseWriter, r *http.Request) (section.Section, bool) {
	s, ok := section.Lookup(chi.URLParam(r, "section"))
	if !ok {
		NotFound(h.renderer)(w, r)
		return section.Section{}, false
	}
	if !guard.HasRole(r.Context(), s.Roles...) {
		h.logger.WarnContext(r.Context(), "section access denied", "section", s.Key, "category", "auth")
		data := h.adminData(r, "Forbidden", s.Key)
		renderPage(w, r, h.renderer, http.StatusForbidden, "admin/forbidden", data)
		return section.Section{}, false
	}
	return s, true
}

// List renders a section's records. An empty list shows the section's
// empty-state text, not an error.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sectionFromRequest(w, r)
	if !ok {
		return
	}

	page := ListData{Section: s, Records: []api.Record{}}
	records, err := api.DecodeRecords(h.backend.List(r.Context(), s.Resource))
	if err != nil {
		h.logger.WarnContext(r.Context(), "section list failed", "section", s.Key, "error", err, "category", "api")
		page.Error = failureMessage(err)
	} else {
		page.Records = records
	}
	page.Cards = overview.SectionCards(s.Key, s.Label, page.Records, h.renderer.Formatter())

	data := h.adminData(r, s.Label, s.Key)
	data.Data = page
	renderPage(w, r, h.renderer, http.StatusOK, "admin/list", data)
}

// NewForm renders the create form.
func (h *AdminHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sectionFromRequest(w, r)
	if !ok {
		return
	}
	if !s.CanCreate {
		NotFound(h.renderer)(w, r)
		return
	}
	h.renderForm(w, r, http.StatusOK, FormData{Section: s, IsNew: true, Action: sectionPath(s.Key)})
}

// EditForm renders the edit form of an existing record.
func (h *AdminHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sectionFromRequest(w, r)
	if !ok {
		return
	}
	if !s.CanEdit {
		NotFound(h.renderer)(w, r)
		return
	}

	id := chi.URLParam(r, "id")
	rec, err := h.findRecord(r.Context(), s, id)
	if err != nil {
		flashError(w, r, h.renderer, sectionPath(s.Key), failureMessage(err))
		return
	}

	action := sectionPath(s.Key, url.PathEscape(id))
	if s.StatusOnly {
		action = sectionPath(s.Key, url.PathEscape(id), "status")
	}
	h.renderForm(w, r, http.StatusOK, FormData{Section: s, Record: rec, Action: action})
}

// Create handles the create form submission.
func (h *AdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sectionFromRequest(w, r)
	if !ok {
		return
	}
	if !s.CanCreate {
		NotFound(h.renderer)(w, r)
		return
	}
	h.save(w, r, s, "")
}

// Update handles the edit form submission.
func (h *AdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sectionFromRequest(w, r)
	if !ok {
		return
	}
	if !s.CanEdit || s.StatusOnly {
		NotFound(h.renderer)(w, r)
		return
	}
	h.save(w, r, s, chi.URLParam(r, "id"))
}

// save coerces the submitted form and creates or updates the record. Any
// failure re-renders the form with the submitted values and one message.
func (h *AdminHandler) save(w http.ResponseWriter, r *http.Request, s section.Section, id string) {
	ctx := r.Context()
	form := FormData{Section: s, IsNew: id == ""}
	if form.IsNew {
		form.Action = sectionPath(s.Key)
	} else {
		form.Action = sectionPath(s.Key, url.PathEscape(id))
	}

	in, err := h.parseInput(w, r, s)
	if err != nil {
		form.Error = "Invalid form data"
		h.renderForm(w, r, http.StatusBadRequest, form)
		return
	}
	form.Record = recordFromForm(s, in.Values, id)

	payload, err := section.Coerce(ctx, s.Fields, in, h.uploader)
	if err != nil {
		form.Error = err.Error()
		h.renderForm(w, r, http.StatusUnprocessableEntity, form)
		return
	}

	res := s.Save(ctx, h.backend, id, payload)
	if !res.Success {
		h.logger.WarnContext(ctx, "section save failed",
			"section", s.Key,
			"id", id,
			"kind", res.Kind.String(),
			"status", res.Status,
			"category", "api",
		)
		form.Error = res.Message
		h.renderForm(w, r, statusForFailure(res), form)
		return
	}

	h.invalidate(ctx, s.Resource)

	verb := "updated"
	if form.IsNew {
		verb = "created"
	}
	h.logger.InfoContext(ctx, "section record saved", "section", s.Key, "id", id, "action", verb, "category", "content")
	flashSuccess(w, r, h.renderer, sectionPath(s.Key), s.Singular+" "+verb+" successfully")
}

// parseInput reads a urlencoded or, for sections with image fields, a
// multipart form.
func (h *AdminHandler) parseInput(w http.ResponseWriter, r *http.Request, s section.Section) (section.Input, error) {
	if !s.HasFileFields() {
		r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
		if err := r.ParseForm(); err != nil {
			return section.Input{}, err
		}
		return section.Input{Values: r.PostForm}, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+maxFormBytes)
	if err := r.ParseMultipartForm(maxFormBytes); err != nil {
		if !errors.Is(err, http.ErrNotMultipart) {
			return section.Input{}, err
		}
		if err := r.ParseForm(); err != nil {
			return section.Input{}, err
		}
		return section.Input{Values: r.PostForm}, nil
	}
	return section.Input{Values: r.MultipartForm.Value, Files: r.MultipartForm.File}, nil
}

// UpdateStatus moves a record to a new workflow status.
func (h *AdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sectionFromRequest(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		flashError(w, r, h.renderer, sectionPath(s.Key), "Invalid form data")
		return
	}

	id := chi.URLParam(r, "id")
	status := r.PostFormValue("status")

	res, err := s.SetStatus(r.Context(), h.backend, id, status)
	if err != nil {
		flashError(w, r, h.renderer, sectionPath(s.Key), err.Error())
		return
	}
	if !res.Success {
		h.logger.WarnContext(r.Context(), "status update failed", "section", s.Key, "id", id, "kind", res.Kind.String(), "category", "api")
		flashError(w, r, h.renderer, sectionPath(s.Key), res.Message)
		return
	}

	h.invalidate(r.Context(), s.Resource)
	h.logger.InfoContext(r.Context(), "status updated", "section", s.Key, "id", id, "status", status, "category", "content")
	flashSuccess(w, r, h.renderer, sectionPath(s.Key), s.Singular+" marked as "+status)
}

// DeleteConfirm renders the delete confirmation page.
func (h *AdminHandler) DeleteConfirm(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sectionFromRequest(w, r)
	if !ok {
		return
	}
	if !s.CanDelete {
		NotFound(h.renderer)(w, r)
		return
	}

	rec, err := h.findRecord(r.Context(), s, chi.URLParam(r, "id"))
	if err != nil {
		flashError(w, r, h.renderer, sectionPath(s.Key), failureMessage(err))
		return
	}

	data := h.adminData(r, "Delete "+s.Singular, s.Key)
	data.Data = DeleteData{Section: s, Record: rec, Label: recordLabel(rec)}
	renderPage(w, r, h.renderer, http.StatusOK, "admin/delete", data)
}

// Delete removes a record after confirmation.
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sectionFromRequest(w, r)
	if !ok {
		return
	}
	if !s.CanDelete {
		NotFound(h.renderer)(w, r)
		return
	}

	id := chi.URLParam(r, "id")
	res := h.backend.Delete(r.Context(), s.Resource, id)
	if !res.Success {
		h.logger.WarnContext(r.Context(), "delete failed", "section", s.Key, "id", id, "kind", res.Kind.String(), "category", "api")
		flashError(w, r, h.renderer, sectionPath(s.Key), res.Message)
		return
	}

	h.invalidate(r.Context(), s.Resource)
	h.logger.InfoContext(r.Context(), "section record deleted", "section", s.Key, "id", id, "category", "content")
	flashSuccess(w, r, h.renderer, sectionPath(s.Key), s.Singular+" deleted")
}

// Export downloads a section's records as CSV or JSON.
func (h *AdminHandler) Export(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sectionFromRequest(w, r)
	if !ok {
		return
	}

	format, err := transfer.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		flashError(w, r, h.renderer, sectionPath(s.Key), err.Error())
		return
	}

	records, err := api.DecodeRecords(h.backend.List(r.Context(), s.Resource))
	if err != nil {
		h.logger.WarnContext(r.Context(), "export list failed", "section", s.Key, "error", err, "category", "api")
		flashError(w, r, h.renderer, sectionPath(s.Key), failureMessage(err))
		return
	}

	var buf bytes.Buffer
	if err := h.exporter.Export(&buf, s, records, format); err != nil {
		logAndInternalError(w, r, "export failed", "section", s.Key, "error", err)
		return
	}

	h.logger.InfoContext(r.Context(), "section exported", "section", s.Key, "format", string(format), "records", len(records), "category", "content")
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+transfer.Filename(s.Key, format, time.Now())+`"`)
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

func (h *AdminHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, form FormData) {
	if !form.StatusOnly() {
		opts, err := section.LoadOptions(r.Context(), h.backend, form.Section.Fields)
		if err != nil {
			h.logger.WarnContext(r.Context(), "loading form options failed", "section", form.Section.Key, "error", err, "category", "api")
			if form.Error == "" {
				form.Error = failureMessage(err)
			}
		}
		form.Options = opts
	}

	title := "New " + form.Section.Singular
	if !form.IsNew {
		title = "Edit " + form.Section.Singular
	}
	data := h.adminData(r, title, form.Section.Key)
	data.Data = form
	renderPage(w, r, h.renderer, status, "admin/form", data)
}

// findRecord locates a record through the list endpoint.
func (h *AdminHandler) findRecord(ctx context.Context, s section.Section, id string) (api.Record, error) {
	records, err := api.DecodeRecords(h.backend.List(ctx, s.Resource))
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if rec.ID() == id {
			return rec, nil
		}
	}
	return nil, errRecordNotFound
}

// recordFromForm rebuilds a record from submitted values so a rejected form
// keeps what the user typed.
func recordFromForm(s section.Section, values url.Values, id string) api.Record {
	rec := api.Record{}
	if id != "" {
		rec["id"] = id
	}
	for _, f := range s.Fields {
		switch f.Type {
		case section.FieldPassword:
		case section.FieldCheckbox:
			v := values.Get(f.Name)
			rec[f.Name] = v == "on" || v == "true" || v == "1"
		case section.FieldMultiSelect, section.FieldList:
			var items []any
			for _, v := range values[f.Name] {
				items = append(items, v)
			}
			rec[f.Name] = items
		default:
			rec[f.Name] = values.Get(f.Name)
		}
	}
	return rec
}

// recordLabel picks a human-readable name for a record.
func recordLabel(rec api.Record) string {
	for _, key := range []string{"title", "name", "donor_name", "subject", "email"} {
		if v := rec.String(key); v != "" {
			return v
		}
	}
	return "#" + rec.ID()
}

func failureMessage(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if errors.Is(err, errRecordNotFound) {
		return "Record not found"
	}
	if errors.Is(err, api.ErrUnexpectedShape) {
		return "The server sent an unexpected response"
	}
	return err.Error()
}

func statusForFailure(res api.Result) int {
	switch res.Kind {
	case api.KindValidation:
		return http.StatusUnprocessableEntity
	case api.KindTransport, api.KindServer:
		return http.StatusBadGateway
	default:
		return http.StatusOK
	}
}
