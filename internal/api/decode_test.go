// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"errors"
	"testing"
)

func okResult(body string) Result {
	return buildResult(200, []byte(body))
}

func TestNormalizeIDs(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"object", `{"_id":"a1","title":"x"}`, `{"_id":"a1","title":"x","id":"a1"}`},
		{"object keeps id", `{"_id":"a1","id":"keep"}`, `{"_id":"a1","id":"keep"}`},
		{"array", `[{"_id":"a"},{"id":"b"},{"_id":"c"}]`, `[{"_id":"a","id":"a"},{"id":"b"},{"_id":"c","id":"c"}]`},
		{"data envelope", `{"data":[{"_id":"a"}]}`, `{"data":[{"_id":"a","id":"a"}]}`},
		{"scalar", `42`, `42`},
		{"null id replaced", `{"_id":"z","id":null}`, `{"_id":"z","id":"z"}`},
		{"numeric id", `{"_id":7}`, `{"_id":7,"id":7}`},
		{"object id unwrapped", `{"_id":{"$oid":"65a1f0"}}`, `{"_id":{"$oid":"65a1f0"},"id":"65a1f0"}`},
		{"unknown id shape skipped", `{"_id":{"k":1},"t":"x"}`, `{"_id":{"k":1},"t":"x"}`},
		{"array id skipped", `[{"_id":["a"]}]`, `[{"_id":["a"]}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeIDs([]byte(tt.in))
			var g, w any
			if err := json.Unmarshal(got, &g); err != nil {
				t.Fatalf("invalid output %s: %v", got, err)
			}
			_ = json.Unmarshal([]byte(tt.want), &w)
			gb, _ := json.Marshal(g)
			wb, _ := json.Marshal(w)
			if string(gb) != string(wb) {
				t.Errorf("normalizeIDs(%s) = %s, want %s", tt.in, gb, wb)
			}
		})
	}
}

func TestDecodeRecords(t *testing.T) {
	t.Run("empty list is success", func(t *testing.T) {
		recs, err := DecodeRecords(okResult(`[]`))
		if err != nil {
			t.Fatalf("DecodeRecords: %v", err)
		}
		if recs == nil || len(recs) != 0 {
			t.Errorf("got %v, want empty non-nil slice", recs)
		}
	})

	t.Run("null body", func(t *testing.T) {
		recs, err := DecodeRecords(okResult(``))
		if err != nil || len(recs) != 0 {
			t.Errorf("DecodeRecords(null) = %v, %v", recs, err)
		}
	})

	t.Run("envelope", func(t *testing.T) {
		recs, err := DecodeRecords(okResult(`{"items":[{"_id":"1","amount":150.5}]}`))
		if err != nil {
			t.Fatalf("DecodeRecords: %v", err)
		}
		if len(recs) != 1 || recs[0].ID() != "1" {
			t.Fatalf("recs = %v", recs)
		}
		if recs[0].String("amount") != "150.5" {
			t.Errorf("amount = %q, want 150.5", recs[0].String("amount"))
		}
	})

	t.Run("failure", func(t *testing.T) {
		_, err := DecodeRecords(Result{Message: "nope", Kind: KindServer, Status: 500})
		var apiErr *Error
		if !errors.As(err, &apiErr) || apiErr.Message != "nope" {
			t.Errorf("err = %v, want *Error with message", err)
		}
	})

	t.Run("object is not a list", func(t *testing.T) {
		_, err := DecodeRecords(okResult(`{"title":"x"}`))
		if !errors.Is(err, ErrUnexpectedShape) {
			t.Errorf("err = %v, want ErrUnexpectedShape", err)
		}
	})
}

func TestDecodeIdentity(t *testing.T) {
	id, err := DecodeIdentity(okResult(`{"_id":"u1","email":"admin@ngo.org","role":"superadmin"}`))
	if err != nil {
		t.Fatalf("DecodeIdentity: %v", err)
	}
	if id.ID != "u1" || id.Email != "admin@ngo.org" || id.Role != "superadmin" {
		t.Errorf("identity = %+v", id)
	}

	for _, body := range []string{`[]`, `"admin"`, `null`} {
		if _, err := DecodeIdentity(okResult(body)); err == nil {
			t.Errorf("DecodeIdentity(%s) should fail", body)
		}
	}
}

func TestLoginToken(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"access_token":"a"}`, "a"},
		{`{"token":"b"}`, "b"},
		{`{"success":true,"data":{"token":"c"}}`, "c"},
	}
	for _, tt := range tests {
		got, err := LoginToken(okResult(tt.body))
		if err != nil || got != tt.want {
			t.Errorf("LoginToken(%s) = %q, %v; want %q", tt.body, got, err, tt.want)
		}
	}

	if _, err := LoginToken(okResult(`{"token":""}`)); err == nil {
		t.Error("empty token should be rejected")
	}
}

func TestRecordAccessors(t *testing.T) {
	rec := Record{
		"flag":  true,
		"tags":  []any{"a", "b"},
		"when":  "2026-03-01T10:00:00",
		"count": json.Number("3"),
	}

	if !rec.Bool("flag") || rec.Bool("missing") {
		t.Error("Bool accessor mismatch")
	}
	if got := rec.String("tags"); got != "a, b" {
		t.Errorf("String(tags) = %q", got)
	}
	if got := rec.Strings("tags"); len(got) != 2 {
		t.Errorf("Strings(tags) = %v", got)
	}
	if _, ok := rec.Time("when"); !ok {
		t.Error("Time(when) should parse")
	}
	if rec.String("count") != "3" {
		t.Errorf("String(count) = %q", rec.String("count"))
	}
}
