// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package overview

import (
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taptosmile/taptosmile-web/internal/api"
)

type fakeLister struct {
	bodies map[api.Resource]string
	failed map[api.Resource]api.Result
	calls  atomic.Int32
}

func (f *fakeLister) List(_ context.Context, res api.Resource) api.Result {
	f.calls.Add(1)
	if r, ok := f.failed[res]; ok {
		return r
	}
	body, ok := f.bodies[res]
	if !ok {
		body = `[]`
	}
	return api.Result{Success: true, Status: 200, Data: json.RawMessage(body)}
}

func TestLoad_MixedEmptyAndNonEmpty(t *testing.T) {
	l := &fakeLister{bodies: map[api.Resource]string{
		api.Donations: `[
			{"id":"d1","amount":100,"created_at":"2026-03-01T10:00:00"},
			{"id":"d2","amount":"250.5","created_at":"2026-03-02T10:00:00"},
			{"id":"d3","amount":"n/a"},
			{"id":"d4"}
		]`,
		api.Volunteers: `[{"id":"v1","status":"new"},{"id":"v2","status":"pending"},{"id":"v3","status":"onboarded"}]`,
		api.Messages:   `[]`,
		api.Programs:   `[{"id":"p1","is_active":true},{"id":"p2","is_active":false}]`,
		api.Events:     `[]`,
	}}

	ov := Load(context.Background(), l, nil)

	assert.Equal(t, int32(5), l.calls.Load())
	assert.Empty(t, ov.Warnings)
	assert.InDelta(t, 350.5, ov.Stats.TotalPledged, 1e-9)
	assert.Equal(t, 4, ov.Stats.DonationCount)
	assert.Equal(t, 2, ov.Stats.PendingVolunteers)
	assert.Equal(t, 0, ov.Stats.Messages)
	assert.Equal(t, 1, ov.Stats.ActivePrograms)
	assert.Equal(t, 0, ov.Stats.UpcomingEvents)
	assert.Len(t, ov.Recent, RecentLimit)
}

func TestLoad_FailedFetchBecomesEmptyWithWarning(t *testing.T) {
	l := &fakeLister{
		bodies: map[api.Resource]string{api.Programs: `[{"id":"p1","is_active":true}]`},
		failed: map[api.Resource]api.Result{
			api.Donations: {Kind: api.KindServer, Status: 500, Message: "Database down"},
			api.Messages:  {Kind: api.KindTransport, Message: api.FallbackMessage},
		},
	}

	ov := Load(context.Background(), l, nil)

	require.Len(t, ov.Warnings, 2)
	assert.Contains(t, ov.Warnings[0], "Database down")
	assert.NotNil(t, ov.Lists[api.Donations])
	assert.Empty(t, ov.Lists[api.Donations])
	assert.Zero(t, ov.Stats.TotalPledged)
	assert.Equal(t, 1, ov.Stats.ActivePrograms)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   any
		want float64
	}{
		{json.Number("1200"), 1200},
		{json.Number("99.95"), 99.95},
		{"500", 500},
		{" 42.5 INR", 42.5},
		{"1e3", 1000},
		{"abc", 0},
		{"", 0},
		{nil, 0},
		{true, 0},
		{"NaN", 0},
		{150.25, 150.25},
		{".5", 0.5},
	}

	for _, tt := range tests {
		if got := ParseAmount(tt.in); got != tt.want {
			t.Errorf("ParseAmount(%#v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTotalPledgedIsSumOfNumericAmounts(t *testing.T) {
	amounts := []any{json.Number("10"), "20", "x", nil, json.Number("0.5"), "7abc"}
	var records []api.Record
	want := 0.0
	for _, a := range amounts {
		records = append(records, api.Record{"amount": a})
		want += ParseAmount(a)
	}

	got := Compute(map[api.Resource][]api.Record{api.Donations: records}).TotalPledged

	if got != want || got != 37.5 {
		t.Errorf("TotalPledged = %v, want %v (37.5)", got, want)
	}
}

func TestRecentActivity_NewestFirst(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	donations := []api.Record{{"id": "d1", "amount": json.Number("5"), "created_at": "2026-01-01T00:00:00Z"}}
	volunteers := []api.Record{{"id": "v1", "name": "Ravi", "created_at": "2026-03-01T00:00:00Z"}}
	messages := []api.Record{{"id": "m1", "name": "Meera"}}

	feed := RecentActivity(donations, volunteers, messages, 5, now)

	require.Len(t, feed, 3)
	assert.Equal(t, "m1", feed[0].ID, "records without timestamp count as now")
	assert.Equal(t, "Message: Inquiry", feed[0].Title)
	assert.Equal(t, "v1", feed[1].ID)
	assert.Equal(t, "d1", feed[2].ID)

	assert.Len(t, RecentActivity(donations, volunteers, messages, 2, now), 2)
}

func TestFormatter(t *testing.T) {
	f := NewFormatter("en-US")

	money := f.Money(1500.4)
	if !strings.Contains(money, "1,500") || strings.Contains(money, ".4") {
		t.Errorf("Money(1500.4) = %q", money)
	}
	if got := f.Count(12345); got != "12,345" {
		t.Errorf("Count(12345) = %q, want 12,345", got)
	}

	if NewFormatter("not a locale") == nil {
		t.Error("invalid locale should fall back, not return nil")
	}
}

func TestSectionCards(t *testing.T) {
	f := NewFormatter("en-US")
	donations := []api.Record{
		{"amount": json.Number("100"), "status": "received"},
		{"amount": json.Number("50"), "status": "pending"},
	}

	cards := SectionCards("donations", "Pledges", donations, f)
	require.Len(t, cards, 3)
	assert.Contains(t, cards[0].Value, "150")
	assert.Contains(t, cards[1].Value, "100")
	assert.Equal(t, "1", cards[2].Value)

	generic := SectionCards("programs", "Programs", []api.Record{{"is_active": true}, {"is_active": false}}, f)
	assert.Equal(t, "Total Programs", generic[0].Title)
	assert.Equal(t, "1", generic[1].Value)
	assert.Equal(t, "1", generic[2].Value)
}
