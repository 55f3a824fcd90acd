package mapper

import (
	"testing"
	"time"

	"github.com/ryanparsons7/calendly-notion/internal/source"
	"github.com/stretchr/testify/require"
)

var config = Config{LinkPrefix: "https://tickets.example.com/browse/"}

func newEvent() source.Event {
	start := time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)
	return source.Event{
		ID:           "ev1",
		StartTime:    start,
		EndTime:      start.Add(30 * time.Minute),
		InviteeName:  "Alice Smith",
		InviteeEmail: "alice@example.com",
		HostEmail:    "host@example.com",
		TicketID:     "T-100",
	}
}

func TestMap(t *testing.T) {
	t.Run("event with ticket", func(t *testing.T) {
		e := newEvent()
		r, err := Map(e, config)
		require.NoError(t, err)
		require.Equal(t, "ev1", r.ExternalKey)
		require.Equal(t, "Alice Smith (T-100)", r.Title)
		require.NotNil(t, r.Link)
		require.Equal(t, "https://tickets.example.com/browse/T-100", *r.Link)
		require.Equal(t, e.StartTime, r.StartTime)
		require.Equal(t, e.EndTime, r.EndTime)
		require.Empty(t, r.RecordID)
		require.Equal(t, map[string]interface{}{
			PropInviteeName:  "Alice Smith",
			PropInviteeEmail: "alice@example.com",
			PropHostEmail:    "host@example.com",
			PropTicketID:     "T-100",
		}, r.Properties)
	})

	t.Run("event without ticket", func(t *testing.T) {
		e := newEvent()
		e.TicketID = ""
		r, err := Map(e, config)
		require.NoError(t, err)
		require.Nil(t, r.Link)
		require.Equal(t, "Alice Smith", r.Title)
		require.NotContains(t, r.Properties, PropTicketID)
	})

	t.Run("times are converted to UTC", func(t *testing.T) {
		e := newEvent()
		zone := time.FixedZone("UTC+3", 3*60*60)
		e.StartTime = time.Date(2024, 1, 10, 13, 0, 0, 0, zone)
		e.EndTime = e.StartTime.Add(time.Hour)
		r, err := Map(e, config)
		require.NoError(t, err)
		require.Equal(t, time.UTC, r.StartTime.Location())
		require.Equal(t, time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC), r.StartTime)
		require.Equal(t, time.Date(2024, 1, 10, 11, 0, 0, 0, time.UTC), r.EndTime)
	})

	t.Run("deterministic", func(t *testing.T) {
		e := newEvent()
		first, err := Map(e, config)
		require.NoError(t, err)
		second, err := Map(e, config)
		require.NoError(t, err)
		require.Equal(t, first, second)
	})

	t.Run("zero length meeting", func(t *testing.T) {
		e := newEvent()
		e.EndTime = e.StartTime
		_, err := Map(e, config)
		require.NoError(t, err)
	})
}

func TestMapNegativeCases(t *testing.T) {
	tests := []struct {
		name   string
		modify func(e *source.Event)
		field  string
		err    error
	}{
		{name: "missing id", modify: func(e *source.Event) { e.ID = " " }, field: "id", err: ErrMissingField},
		{name: "missing start", modify: func(e *source.Event) { e.StartTime = time.Time{} }, field: "start_time", err: ErrMissingField},
		{name: "missing end", modify: func(e *source.Event) { e.EndTime = time.Time{} }, field: "end_time", err: ErrMissingField},
		{
			name:   "end before start",
			modify: func(e *source.Event) { e.EndTime = e.StartTime.Add(-time.Minute) },
			field:  "end_time",
			err:    ErrInvalidTime,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			e := newEvent()
			tc.modify(&e)
			_, err := Map(e, config)
			require.ErrorIs(t, err, tc.err)

			var mappingErr *MappingError
			require.ErrorAs(t, err, &mappingErr)
			require.Equal(t, tc.field, mappingErr.Field)
		})
	}
}

func TestTitle(t *testing.T) {
	tests := []struct {
		event    source.Event
		expected string
	}{
		{event: source.Event{InviteeName: "  Alice   Smith ", TicketID: "T-1"}, expected: "Alice Smith (T-1)"},
		{event: source.Event{InviteeName: "Alice"}, expected: "Alice"},
		{event: source.Event{TicketID: "T-1"}, expected: "Ticket T-1"},
		{event: source.Event{InviteeEmail: "alice@example.com"}, expected: "alice@example.com"},
		{event: source.Event{}, expected: "Untitled meeting"},
		{event: source.Event{InviteeName: "Jose\u0301"}, expected: "Jos\u00e9"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.expected, func(t *testing.T) {
			require.Equal(t, tc.expected, Title(tc.event))
		})
	}
}

func TestLink(t *testing.T) {
	require.Nil(t, Link("https://x/", ""))
	require.Nil(t, Link("https://x/", "   "))
	link := Link("https://x/", " T-9 ")
	require.NotNil(t, link)
	require.Equal(t, "https://x/T-9", *link)
}
