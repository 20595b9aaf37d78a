// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripTrailingSlash(t *testing.T) {
	tests := []struct {
		method   string
		target   string
		code     int
		location string
	}{
		{http.MethodGet, "/", http.StatusOK, ""},
		{http.MethodGet, "/programs", http.StatusOK, ""},
		{http.MethodGet, "/programs/?page=2", http.StatusMovedPermanently, "/programs?page=2"},
		{http.MethodGet, "/admin//", http.StatusMovedPermanently, "/admin"},
		{http.MethodPost, "/contact/", http.StatusPermanentRedirect, "/contact"},
		{http.MethodGet, "/static/css/", http.StatusOK, ""},
	}

	h := StripTrailingSlash(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.target, nil))
			assert.Equal(t, tt.code, rr.Code)
			assert.Equal(t, tt.location, rr.Header().Get("Location"))
		})
	}
}
