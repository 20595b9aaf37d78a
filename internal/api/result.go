// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// FallbackMessage is shown when the backend gives no usable error text.
const FallbackMessage = "Request failed"

// Kind classifies a failed call.
type Kind int

// Failure kinds. An empty list is a success, not a failure kind.
const (
	KindNone Kind = iota
	KindTransport
	KindUnauthorized
	KindValidation
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindTransport:
		return "transport"
	case KindUnauthorized:
		return "unauthorized"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// Result is the uniform outcome of every client call.
type Result struct {
	Success bool
	Data    json.RawMessage
	Message string
	Status  int
	Kind    Kind
}

// Err returns nil on success, or an error carrying Message.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	return &Error{Kind: r.Kind, Status: r.Status, Message: r.Message}
}

// Error describes a failed call when a caller needs an error value.
type Error struct {
	Kind    Kind
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return e.Kind.String() + " (" + http.StatusText(e.Status) + "): " + e.Message
	}
	return e.Kind.String() + ": " + e.Message
}

func transportFailure() Result {
	return Result{Success: false, Message: FallbackMessage, Kind: KindTransport}
}

func buildResult(status int, raw []byte) Result {
	if status >= 200 && status < 300 {
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 {
			return Result{Success: true, Data: json.RawMessage("null"), Status: status}
		}
		if !gjson.ValidBytes(trimmed) {
			return Result{Success: false, Message: FallbackMessage, Status: status, Kind: KindServer}
		}
		return Result{Success: true, Data: json.RawMessage(normalizeIDs(trimmed)), Status: status}
	}

	return Result{
		Success: false,
		Message: errorMessage(raw),
		Status:  status,
		Kind:    kindForStatus(status),
	}
}

func kindForStatus(status int) Kind {
	switch status {
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusUnprocessableEntity:
		return KindValidation
	default:
		return KindServer
	}
}

// errorMessage extracts display text from a backend error payload: a detail
// string, a detail list of validation items, a message string, or the fallback.
func errorMessage(raw []byte) string {
	if !gjson.ValidBytes(raw) {
		return FallbackMessage
	}
	body := gjson.ParseBytes(raw)

	detail := body.Get("detail")
	switch {
	case detail.Type == gjson.String && strings.TrimSpace(detail.Str) != "":
		return detail.Str
	case detail.IsArray():
		if msg := joinValidationItems(detail); msg != "" {
			return msg
		}
	}

	if msg := body.Get("message"); msg.Type == gjson.String && strings.TrimSpace(msg.Str) != "" {
		return msg.Str
	}

	return FallbackMessage
}

// joinValidationItems renders [{"loc":["body","title"],"msg":"field required"}]
// as "title: field required; ...".
func joinValidationItems(detail gjson.Result) string {
	var parts []string
	detail.ForEach(func(_, item gjson.Result) bool {
		if item.Type == gjson.String {
			parts = append(parts, item.Str)
			return true
		}
		msg := item.Get("msg").String()
		if msg == "" {
			return true
		}
		if field := fieldFromLoc(item.Get("loc")); field != "" {
			parts = append(parts, field+": "+msg)
		} else {
			parts = append(parts, msg)
		}
		return true
	})
	return strings.Join(parts, "; ")
}

func fieldFromLoc(loc gjson.Result) string {
	if !loc.IsArray() {
		return loc.String()
	}
	var path []string
	for _, p := range loc.Array() {
		if p.String() == "body" || p.String() == "query" {
			continue
		}
		path = append(path, p.String())
	}
	return strings.Join(path, ".")
}
