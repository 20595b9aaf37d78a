// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/taptosmile/taptosmile-web/internal/api"
	"github.com/taptosmile/taptosmile-web/internal/cache"
	"github.com/taptosmile/taptosmile-web/internal/events"
	"github.com/taptosmile/taptosmile-web/internal/guard"
	"github.com/taptosmile/taptosmile-web/internal/middleware"
	"github.com/taptosmile/taptosmile-web/internal/overview"
	"github.com/taptosmile/taptosmile-web/internal/render"
	"github.com/taptosmile/taptosmile-web/internal/section"
	"github.com/taptosmile/taptosmile-web/internal/service"
	"github.com/taptosmile/taptosmile-web/internal/session"
	"github.com/taptosmile/taptosmile-web/internal/version"
	"github.com/taptosmile/taptosmile-web/web"
)

const (
	testEmail    = "admin@taptosmile.org"
	testPassword = "correct horse"
)

// fakeBackend is an in-memory stand-in for the REST API.
type fakeBackend struct {
	mu       sync.Mutex
	role     string
	tokens   map[string]bool
	lists    map[string][]map[string]any
	requests []recordedRequest
	nextID   int
	meCalls  int
}

type recordedRequest struct {
	Method string
	Path   string
	Auth   string
	Body   map[string]any
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		role:   "admin",
		tokens: map[string]bool{},
		lists:  map[string][]map[string]any{},
	}
}

// revokeAll invalidates every issued token.
func (b *fakeBackend) revokeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for k := range b.tokens {
		b.tokens[k] = false
	}
}

func (b *fakeBackend) seed(res string, records ...map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lists[res] = append(b.lists[res], records...)
}

// last returns the most recent request matching method and path exactly.
func (b *fakeBackend) last(method, path string) (recordedRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.requests) - 1; i >= 0; i-- {
		r := b.requests[i]
		if r.Method == method && r.Path == path {
			return r, true
		}
	}
	return recordedRequest{}, false
}

func (b *fakeBackend) identityChecks() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.meCalls
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (b *fakeBackend) authorized(r *http.Request) bool {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	return b.tokens[token]
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/api")
	rec := recordedRequest{Method: r.Method, Path: path, Auth: r.Header.Get("Authorization")}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &rec.Body)
	}
	b.requests = append(b.requests, rec)

	switch {
	case path == "/admin/login" && r.Method == http.MethodPost:
		_ = r.ParseForm()
		if r.PostForm.Get("username") != testEmail || r.PostForm.Get("password") != testPassword {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Incorrect email or password"})
			return
		}
		b.nextID++
		token := "tok-" + strconv.Itoa(b.nextID)
		b.tokens[token] = true
		writeJSON(w, http.StatusOK, map[string]string{"access_token": token, "token_type": "bearer"})
		return

	case path == "/admin/forgot-password":
		writeJSON(w, http.StatusOK, map[string]string{"message": "sent"})
		return
	}

	public := r.Method == http.MethodGet && path != "/admin/me" && !strings.HasPrefix(path, "/admin/") ||
		r.Method == http.MethodPost && (path == "/contact/" || path == "/volunteers/" || path == "/donations/")
	if !public && !b.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
		return
	}

	if path == "/admin/me" {
		b.meCalls++
		writeJSON(w, http.StatusOK, map[string]string{"_id": "a1", "email": testEmail, "name": "Asha", "role": b.role})
		return
	}
	if path == "/admin/logout" {
		writeJSON(w, http.StatusOK, map[string]string{"message": "bye"})
		return
	}

	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not Found"})
		return
	}
	res := parts[0]

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		list := b.lists[res]
		if list == nil {
			list = []map[string]any{}
		}
		writeJSON(w, http.StatusOK, list)

	case len(parts) == 1 && r.Method == http.MethodPost:
		b.nextID++
		item := map[string]any{"_id": "r" + strconv.Itoa(b.nextID), "created_at": time.Now().UTC().Format(time.RFC3339)}
		for k, v := range rec.Body {
			item[k] = v
		}
		b.lists[res] = append(b.lists[res], item)
		writeJSON(w, http.StatusCreated, item)

	case len(parts) == 2 && r.Method == http.MethodPut:
		for _, item := range b.lists[res] {
			if item["_id"] == parts[1] {
				for k, v := range rec.Body {
					item[k] = v
				}
				writeJSON(w, http.StatusOK, item)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found"})

	case len(parts) == 2 && r.Method == http.MethodDelete:
		list := b.lists[res]
		for i, item := range list {
			if item["_id"] == parts[1] {
				b.lists[res] = append(list[:i], list[i+1:]...)
				writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found"})

	case len(parts) == 3 && parts[2] == "status" && r.Method == http.MethodPatch:
		for _, item := range b.lists[res] {
			if item["_id"] == parts[1] {
				item["status"] = rec.Body["status"]
				writeJSON(w, http.StatusOK, item)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found"})

	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"detail": "Method Not Allowed"})
	}
}

// testApp is the full router wired against a fake backend.
type testApp struct {
	backend *fakeBackend
	server  *httptest.Server
	client  *http.Client
	content *service.ContentService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	backend := newFakeBackend()
	apiServer := httptest.NewServer(backend)
	t.Cleanup(apiServer.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	baseURL := apiServer.URL + "/api"

	sessions := session.NewStore(session.New(nil, session.Options{IsDev: true}))
	bus := events.NewBus(logger)
	bus.Subscribe(SessionExpiryHandler(sessions, logger))

	adminClient, err := newClient(baseURL, sessions, bus, logger)
	if err != nil {
		t.Fatalf("admin client: %v", err)
	}
	publicClient, err := newClient(baseURL, nil, nil, logger)
	if err != nil {
		t.Fatalf("public client: %v", err)
	}

	memCache := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute, MaxSize: 100})
	t.Cleanup(func() { _ = memCache.Close() })
	content := service.NewContentService(publicClient, memCache, time.Minute, logger)

	templatesFS, err := web.Templates()
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS: templatesFS,
		Flash:       sessions,
		Formatter:   overview.NewFormatter("en-IN"),
		IsDev:       true,
	})
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}

	router := NewRouter(RouterConfig{
		Sessions: sessions,
		Guard:    guard.New(adminClient, sessions, redirectLogin, logger),
		Renderer: renderer,
		Auth:     NewAuthHandler(adminClient, sessions, renderer, middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig()), logger),
		Admin: NewAdminHandler(AdminConfig{
			Backend:  adminClient,
			Content:  content,
			Renderer: renderer,
			Logger:   logger,
		}),
		Frontend: NewFrontendHandler(content, publicClient, renderer, logger),
		Health:   NewHealthHandler(nil, publicClient, version.Info{Version: "v1.0.0"}).WithCache(memCache),
		SEO:      NewSEOHandler(content, "https://taptosmile.org", false, logger),
		Security: middleware.DefaultSecurityHeadersConfig(true),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &testApp{backend: backend, server: srv, client: client, content: content}
}

func newClient(baseURL string, tokens api.TokenSource, pub api.Publisher, logger *slog.Logger) (*api.Client, error) {
	opts := api.Options{Timeout: 5 * time.Second, Logger: logger}
	if tokens != nil {
		opts.Tokens = tokens
	}
	if pub != nil {
		opts.Publisher = pub
	}
	return api.New(baseURL, opts)
}

// get fetches path and returns the status, Location header and body.
func (a *testApp) get(t *testing.T, path string) (int, string, string) {
	t.Helper()
	resp, err := a.client.Get(a.server.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return readResponse(t, resp)
}

// post submits a urlencoded form.
func (a *testApp) post(t *testing.T, path string, form url.Values) (int, string, string) {
	t.Helper()
	resp, err := a.client.PostForm(a.server.URL+path, form)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return readResponse(t, resp)
}

func readResponse(t *testing.T, resp *http.Response) (int, string, string) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return resp.StatusCode, resp.Header.Get("Location"), string(body)
}

// login signs in and fails the test unless it lands on the dashboard.
func (a *testApp) login(t *testing.T) {
	t.Helper()
	status, location, body := a.post(t, "/admin/login", url.Values{
		"email":    {testEmail},
		"password": {testPassword},
	})
	if status != http.StatusSeeOther || location != "/admin" {
		t.Fatalf("login: status %d location %q body %s", status, location, body)
	}
}

func mustSection(t *testing.T, key string) section.Section {
	t.Helper()
	s, ok := section.Lookup(key)
	if !ok {
		t.Fatalf("section %q is not registered", key)
	}
	return s
}
