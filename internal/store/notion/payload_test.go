package notion

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/ryanparsons7/calendly-notion/internal/store"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

func goldenRecord() store.Record {
	start := time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)
	link := "https://tickets.example.com/browse/T-100"
	return store.Record{
		ExternalKey: "ev1",
		Title:       "Alice Smith (T-100)",
		Link:        &link,
		StartTime:   start,
		EndTime:     start.Add(30 * time.Minute),
	}
}

func assertGolden(t *testing.T, name string, v interface{}) {
	t.Helper()
	data, err := json.MarshalIndent(v, "", "  ")
	require.NoError(t, err)
	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, name, data)
}

func TestPayloads(t *testing.T) {
	props := DefaultProperties()

	t.Run("create page", func(t *testing.T) {
		assertGolden(t, "create_page", buildCreate(props, "db-1", goldenRecord(), "user-1"))
	})

	t.Run("create page without ticket and person", func(t *testing.T) {
		r := goldenRecord()
		r.ExternalKey = "ev2"
		r.Title = "Bob"
		r.Link = nil
		assertGolden(t, "create_page_minimal", buildCreate(props, "db-1", r, ""))
	})

	t.Run("update page", func(t *testing.T) {
		r := goldenRecord()
		r.StartTime = r.StartTime.Add(time.Hour)
		r.EndTime = r.EndTime.Add(time.Hour)
		assertGolden(t, "update_page", buildUpdate(props, r))
	})

	t.Run("update page clears a removed link", func(t *testing.T) {
		r := goldenRecord()
		r.Link = nil
		data, err := json.Marshal(buildUpdate(props, r))
		require.NoError(t, err)
		require.Contains(t, string(data), `"Ticket URL":{"url":null}`)

		data, err = json.Marshal(buildCreate(props, "db-1", r, ""))
		require.NoError(t, err)
		require.NotContains(t, string(data), "Ticket URL")
	})

	t.Run("query", func(t *testing.T) {
		assertGolden(t, "query", buildQuery(props, "ev1"))
	})
}

func TestPageToRecord(t *testing.T) {
	props := DefaultProperties()
	var p page
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": "page-1",
		"properties": {
			"Event ID": {"type": "title", "title": [{"type": "text", "text": {"content": "ev1"}, "plain_text": "ev1"}]},
			"Summary": {"type": "rich_text", "rich_text": [{"type": "text", "text": {"content": "Alice"}, "plain_text": "Alice"}]},
			"Ticket URL": {"type": "url", "url": "https://tickets.example.com/browse/T-1"},
			"Person(s)": {"type": "people", "people": [{"id": "user-1"}]},
			"Date & Time (Local)": {"type": "date", "date": {"start": "2024-01-10T10:00:00.000+00:00", "end": null, "time_zone": null}}
		}
	}`), &p))

	r := p.toRecord(props)
	require.Equal(t, "page-1", r.RecordID)
	require.Equal(t, "ev1", r.ExternalKey)
	require.Equal(t, "Alice", r.Title)
	require.NotNil(t, r.Link)
	require.Equal(t, "https://tickets.example.com/browse/T-1", *r.Link)
	require.Equal(t, time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC), r.StartTime)
	require.Equal(t, r.StartTime, r.EndTime)
	require.Equal(t, "user-1", r.Properties[PropPersonID])

	var empty page
	require.NoError(t, json.Unmarshal([]byte(`{"id": "page-2", "properties": {}}`), &empty))
	r = empty.toRecord(props)
	require.Nil(t, r.Link)
	require.True(t, r.StartTime.IsZero())
}

func TestParseDate(t *testing.T) {
	require.Equal(t, time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC), parseDate("2024-01-10T10:00:00+02:00"))
	require.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), parseDate("2024-01-10"))
	require.True(t, parseDate("soon").IsZero())
}
