// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// ErrUnexpectedShape is returned when a successful body does not have the
// shape the caller asked for.
var ErrUnexpectedShape = errors.New("unexpected response shape")

// Record is one domain record exchanged with the backend. Numbers decode as
// json.Number so large identifiers and amounts keep their text.
type Record map[string]any

// ID returns the normalized record identifier.
func (r Record) ID() string {
	return r.String("id")
}

// String returns the field rendered as text. Missing and null fields are "".
func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(v)
	}
}

// Bool reports whether the field is a true boolean.
func (r Record) Bool(key string) bool {
	b, ok := r[key].(bool)
	return ok && b
}

// Strings returns a list field as strings.
func (r Record) Strings(key string) []string {
	switch v := r[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	default:
		return nil
	}
}

// Time parses the field as an RFC 3339 or ISO date-time timestamp.
func (r Record) Time(key string) (time.Time, bool) {
	raw := r.String(key)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05", time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DecodeRecords decodes a successful list body. A bare array and an array
// under "data" or "items" are accepted; null decodes as an empty list.
func DecodeRecords(res Result) ([]Record, error) {
	if !res.Success {
		return nil, res.Err()
	}

	raw := listPayload(res.Data)
	if raw == nil {
		return []Record{}, nil
	}

	var records []Record
	if err := decodeNumbers(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

func listPayload(data json.RawMessage) []byte {
	body := gjson.ParseBytes(data)
	switch {
	case body.Type == gjson.Null:
		return nil
	case body.IsArray():
		return data
	case body.IsObject():
		for _, key := range []string{"data", "items", "results"} {
			if v := body.Get(key); v.IsArray() {
				return []byte(v.Raw)
			}
		}
	}
	return data
}

// DecodeRecord decodes a successful single-object body, unwrapping "data".
func DecodeRecord(res Result) (Record, error) {
	if !res.Success {
		return nil, res.Err()
	}

	raw := []byte(res.Data)
	if v := gjson.GetBytes(raw, "data"); v.IsObject() {
		raw = []byte(v.Raw)
	}
	if !gjson.ParseBytes(raw).IsObject() {
		return nil, ErrUnexpectedShape
	}

	var rec Record
	if err := decodeNumbers(raw, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
	}
	return rec, nil
}

func decodeNumbers(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}

// LoginToken extracts the issued token from a login response.
func LoginToken(res Result) (string, error) {
	if !res.Success {
		return "", res.Err()
	}
	for _, path := range []string{"access_token", "token", "data.access_token", "data.token"} {
		if v := gjson.GetBytes(res.Data, path); v.Type == gjson.String && strings.TrimSpace(v.Str) != "" {
			return v.Str, nil
		}
	}
	return "", fmt.Errorf("%w: no token in login response", ErrUnexpectedShape)
}

// Identity is the admin identity returned by GET /admin/me.
type Identity struct {
	ID    string
	Email string
	Name  string
	Role  string
}

// DecodeIdentity reads the identity from a successful /admin/me response.
// Anything other than a JSON object is malformed.
func DecodeIdentity(res Result) (Identity, error) {
	if !res.Success {
		return Identity{}, res.Err()
	}

	body := gjson.ParseBytes(res.Data)
	if v := body.Get("data"); v.IsObject() {
		body = v
	}
	if !body.IsObject() {
		return Identity{}, fmt.Errorf("%w: identity is not an object", ErrUnexpectedShape)
	}

	id := Identity{
		ID:    firstString(body, "id", "_id"),
		Email: firstString(body, "email", "username", "sub"),
		Name:  firstString(body, "name", "full_name"),
		Role:  firstString(body, "role"),
	}
	return id, nil
}

func firstString(obj gjson.Result, keys ...string) string {
	for _, key := range keys {
		if v := obj.Get(key); v.Exists() && v.Type != gjson.Null {
			if s := v.String(); s != "" {
				return s
			}
		}
	}
	return ""
}
