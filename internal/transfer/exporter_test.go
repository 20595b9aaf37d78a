// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taptosmile/taptosmile-web/internal/api"
	"github.com/taptosmile/taptosmile-web/internal/section"
)

func testSection(t *testing.T, key string) section.Section {
	t.Helper()
	s, ok := section.Lookup(key)
	require.True(t, ok, "section %q", key)
	return s
}

func TestExportCSV(t *testing.T) {
	s := testSection(t, "volunteers")
	records := []api.Record{
		{"id": "v1", "name": "Ravi", "email": "ravi@example.org", "phone": "98765", "city": "Pune", "interest_area": "Food Logistics", "status": "new"},
		{"id": "v2", "name": "=HYPERLINK(\"x\")", "email": "x@example.org", "status": "contacted"},
	}

	var buf bytes.Buffer
	require.NoError(t, NewExporter().Export(&buf, s, records, FormatCSV))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, "Name", rows[0][1])
	assert.Equal(t, []string{"v1", "Ravi", "ravi@example.org", "98765", "Pune", "Food Logistics", "new", ""}, rows[1])
	assert.Equal(t, `'=HYPERLINK("x")`, rows[2][1])
}

func TestExportJSONDropsPasswords(t *testing.T) {
	s := testSection(t, "admins")
	records := []api.Record{{"id": "a1", "name": "Asha", "email": "asha@example.org", "password": "secret"}}

	e := NewExporter()
	e.now = func() time.Time { return time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC) }

	var buf bytes.Buffer
	require.NoError(t, e.Export(&buf, s, records, FormatJSON))

	var doc ExportData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, ExportVersion, doc.Version)
	assert.Equal(t, "admins", doc.Section)
	assert.Equal(t, 1, doc.Count)
	assert.True(t, doc.ExportedAt.Equal(time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)))
	assert.NotContains(t, doc.Records[0], "password")
	assert.Contains(t, records[0], "password", "source records are not modified")
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatCSV, false},
		{"CSV", FormatCSV, false},
		{" json ", FormatJSON, false},
		{"xlsx", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestFilename(t *testing.T) {
	at := time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, "taptosmile-donations-20250501-093000.csv", Filename("donations", FormatCSV, at))
}
