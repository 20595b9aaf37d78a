// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package section

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taptosmile/taptosmile-web/internal/api"
)

type fakeUploader struct {
	calls    int
	filename string
	content  string
	result   api.Result
	url      string
}

func (f *fakeUploader) Upload(_ context.Context, filename, _ string, r io.Reader) (string, api.Result) {
	f.calls++
	f.filename = filename
	b, _ := io.ReadAll(r)
	f.content = string(b)
	if !f.result.Success {
		return "", f.result
	}
	return f.url, f.result
}

func programFields(t *testing.T) []Field {
	t.Helper()
	s, ok := Lookup("programs")
	require.True(t, ok)
	return s.Fields
}

// multipartInput builds an Input the way a browser submits a form with files.
func multipartInput(t *testing.T, values map[string]string, files map[string]string) Input {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for k, v := range values {
		require.NoError(t, mw.WriteField(k, v))
	}
	for field, content := range files {
		w, err := mw.CreateFormFile(field, "photo.jpg")
		require.NoError(t, err)
		_, _ = w.Write([]byte(content))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return Input{Values: req.MultipartForm.Value, Files: req.MultipartForm.File}
}

func TestCoerce_EmptyStringsNeverSent(t *testing.T) {
	in := Input{Values: url.Values{
		"title":       {"Smiles"},
		"description": {"Dental camps"},
		"icon":        {""},
		"cover_image": {"   "},
	}}

	payload, err := Coerce(context.Background(), programFields(t), in, nil)
	require.NoError(t, err)

	for k, v := range payload {
		if s, ok := v.(string); ok && s == "" {
			t.Errorf("payload[%q] is an empty string", k)
		}
	}
	assert.NotContains(t, payload, "icon")
	assert.NotContains(t, payload, "cover_image")
	assert.Equal(t, "Smiles", payload["title"])
	assert.Equal(t, false, payload["is_active"])
}

func TestCoerce_TypedFields(t *testing.T) {
	s, _ := Lookup("projects")
	in := Input{Values: url.Values{
		"title":       {"Clinic"},
		"description": {"Mobile clinic"},
		"program_ids": {"p1", "p2"},
		"images":      {"/a.jpg, /b.jpg,,"},
		"start_date":  {"2026-01-15"},
		"is_active":   {"on"},
	}}

	payload, err := Coerce(context.Background(), s.Fields, in, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"p1", "p2"}, payload["program_ids"])
	assert.Equal(t, []string{"/a.jpg", "/b.jpg"}, payload["images"])
	assert.Equal(t, "2026-01-15", payload["start_date"])
	assert.Equal(t, true, payload["is_active"])
	assert.NotContains(t, payload, "end_date")
}

func TestCoerce_Number(t *testing.T) {
	s, _ := Lookup("donations")
	in := Input{Values: url.Values{
		"donor_name":  {"Asha"},
		"donor_email": {"asha@example.org"},
		"donor_phone": {"9876543210"},
		"amount":      {"1,500.50"},
	}}

	payload, err := Coerce(context.Background(), s.Fields, in, nil)
	require.NoError(t, err)
	assert.Equal(t, 1500.5, payload["amount"])
	assert.NotContains(t, payload, "status")

	for _, raw := range []string{"NaN", "Inf", "-Infinity", "1e400"} {
		in.Values.Set("amount", raw)
		_, err := Coerce(context.Background(), s.Fields, in, nil)
		var verr *ValidationError
		require.True(t, errors.As(err, &verr), raw)
		assert.Contains(t, err.Error(), "must be a number", raw)
	}
}

func TestCoerce_ValidationJoinsEveryProblem(t *testing.T) {
	s, _ := Lookup("events")
	in := Input{Values: url.Values{
		"description": {"Walkathon"},
		"event_date":  {"15/01/2026"},
	}}

	_, err := Coerce(context.Background(), s.Fields, in, nil)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Messages, 2)
	assert.Equal(t, "Event Title is required; Event Date must be a date (YYYY-MM-DD)", err.Error())
}

func TestCoerce_SelectRejectsUnknownOption(t *testing.T) {
	s, _ := Lookup("donations")
	in := Input{Values: url.Values{
		"donor_name":  {"A"},
		"donor_email": {"a@b.org"},
		"donor_phone": {"9876543210"},
		"amount":      {"10"},
		"status":      {"stolen"},
	}}

	if _, err := Coerce(context.Background(), s.Fields, in, nil); err == nil {
		t.Fatal("expected validation error for unknown status")
	}
}

func TestCoerce_ReadOnlySkipped(t *testing.T) {
	s, _ := Lookup("volunteers")
	in := Input{Values: url.Values{"name": {"Changed"}, "email": {"x@y.z"}, "status": {"contacted"}}}

	payload, err := Coerce(context.Background(), s.Fields, in, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status": "contacted"}, payload)
}

func TestCoerce_PasswordKeepsWhitespace(t *testing.T) {
	s, _ := Lookup("admins")
	in := Input{Values: url.Values{"name": {"Ops"}, "email": {"ops@ngo.org"}, "password": {" pass word "}}}

	payload, err := Coerce(context.Background(), s.Fields, in, nil)
	require.NoError(t, err)
	assert.Equal(t, " pass word ", payload["password"])
}

func TestCoerce_ImageUploadCollapsesToURL(t *testing.T) {
	up := &fakeUploader{result: api.Result{Success: true, Status: 200}, url: "/uploads/abc.jpg"}
	in := multipartInput(t,
		map[string]string{"title": "Smiles", "description": "Dental camps", "cover_image": "/old.jpg"},
		map[string]string{"cover_image_file": "jpegdata"},
	)

	payload, err := Coerce(context.Background(), programFields(t), in, up)
	require.NoError(t, err)

	assert.Equal(t, 1, up.calls)
	assert.Equal(t, "photo.jpg", up.filename)
	assert.Equal(t, "jpegdata", up.content)
	assert.Equal(t, "/uploads/abc.jpg", payload["cover_image"])
}

func TestCoerce_ImageURLWithoutFile(t *testing.T) {
	up := &fakeUploader{}
	in := multipartInput(t,
		map[string]string{"title": "Smiles", "description": "Dental camps", "cover_image": "https://cdn.example.org/x.png"},
		nil,
	)

	payload, err := Coerce(context.Background(), programFields(t), in, up)
	require.NoError(t, err)

	assert.Zero(t, up.calls)
	assert.Equal(t, "https://cdn.example.org/x.png", payload["cover_image"])
}

func TestCoerce_ImageUploadFailure(t *testing.T) {
	up := &fakeUploader{result: api.Result{Message: "Only image files allowed", Kind: api.KindServer, Status: 400}}
	in := multipartInput(t,
		map[string]string{"title": "Smiles", "description": "Dental camps"},
		map[string]string{"cover_image_file": "not an image"},
	)

	_, err := Coerce(context.Background(), programFields(t), in, up)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Only image files allowed")
}
