// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveTimeout(h http.Handler, d time.Duration, onTimeout http.Handler) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	Timeout(d, onTimeout)(h).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/events", nil))
	return rr
}

func TestTimeoutPassesThroughResponse(t *testing.T) {
	rr := serveTimeout(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasDeadline := r.Context().Deadline()
		assert.True(t, hasDeadline)
		w.Header().Set("X-Page", "events")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("upcoming"))
		w.WriteHeader(http.StatusTeapot)
	}), time.Second, nil)

	assert.Equal(t, http.StatusCreated, rr.Code, "the first status wins")
	assert.Equal(t, "events", rr.Header().Get("X-Page"))
	assert.Equal(t, "upcoming", rr.Body.String())
}

func TestTimeoutImplicitOK(t *testing.T) {
	rr := serveTimeout(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}), time.Second, nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
}

func TestTimeoutDiscardsLateResponse(t *testing.T) {
	wrote := make(chan error, 1)
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Partial", "yes")
		<-r.Context().Done()
		time.Sleep(10 * time.Millisecond)
		_, err := w.Write([]byte("late"))
		wrote <- err
	})

	rr := serveTimeout(slow, 20*time.Millisecond, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "took too long")
	assert.Empty(t, rr.Header().Get("X-Partial"), "buffered headers are dropped")

	select {
	case err := <-wrote:
		assert.ErrorIs(t, err, http.ErrHandlerTimeout)
	case <-time.After(time.Second):
		t.Fatal("handler never finished")
	}
}

func TestTimeoutFallbackHandler(t *testing.T) {
	fallback := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGatewayTimeout)
		_, _ = w.Write([]byte("slow page"))
	})
	rr := serveTimeout(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}), 10*time.Millisecond, fallback)

	assert.Equal(t, http.StatusGatewayTimeout, rr.Code)
	assert.Equal(t, "slow page", rr.Body.String())
}

func TestTimeoutRepanics(t *testing.T) {
	h := Timeout(time.Second, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	require.PanicsWithValue(t, "boom", func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}
