// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api is the client for the TapToSmile REST backend. Every call
// returns a Result value; transport and HTTP failures never surface as Go
// errors or panics.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/taptosmile/taptosmile-web/internal/events"
)

const (
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 10 << 20
	headerRequest  = "X-Request-ID"
)

// TokenSource yields the bearer token for the current request context.
// An empty token means the call goes out unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) string
}

// Publisher receives a notification for every 401 response.
type Publisher interface {
	Publish(ctx context.Context, ev events.Unauthorized)
}

// Options allows overriding client dependencies.
type Options struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	Tokens     TokenSource
	Publisher  Publisher
	Logger     *slog.Logger
	// UserAgent is sent on every request when set.
	UserAgent string
}

// Client wraps HTTP interactions with the backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	publisher  Publisher
	logger     *slog.Logger
	userAgent  string
}

// New creates a backend client rooted at baseURL.
func New(baseURL string, opts Options) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL is empty")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse baseURL: %w", err)
	}

	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		tokens:     opts.Tokens,
		publisher:  opts.Publisher,
		logger:     logger,
		userAgent:  opts.UserAgent,
	}, nil
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) endpoint(path string) string {
	if path == "" {
		return c.baseURL
	}
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// doJSON sends payload encoded as JSON. A nil payload sends no body.
func (c *Client) doJSON(ctx context.Context, method, path string, payload any) Result {
	if payload == nil {
		return c.do(ctx, method, path, nil, "")
	}
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		c.logger.Error("encoding request payload", "method", method, "path", path, "error", err)
		return transportFailure()
	}
	return c.do(ctx, method, path, buf, "application/json")
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) Result {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), body)
	if err != nil {
		c.logger.Error("building backend request", "method", method, "path", path, "error", err)
		return transportFailure()
	}

	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set(headerRequest, requestID(ctx))
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.tokens != nil {
		if token := c.tokens.Token(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("backend request failed",
			"method", method,
			"path", path,
			"error", err,
		)
		return transportFailure()
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.logger.Warn("reading backend response",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"error", err,
		)
		return transportFailure()
	}

	c.logger.Debug("backend request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode == http.StatusUnauthorized && c.publisher != nil {
		c.publisher.Publish(ctx, events.Unauthorized{
			Method: method,
			Path:   path,
			Status: resp.StatusCode,
			At:     time.Now(),
		})
	}

	return buildResult(resp.StatusCode, raw)
}

// requestID forwards the inbound request id, or mints one for background calls.
func requestID(ctx context.Context) string {
	if id := chimw.GetReqID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}
