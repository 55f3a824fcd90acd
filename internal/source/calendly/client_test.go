package calendly

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ryanparsons7/calendly-notion/internal/source"
	"github.com/stretchr/testify/require"
)

const eventsPage1 = `{
  "collection": [
    {
      "uri": "https://api.calendly.com/scheduled_events/EV1",
      "name": "Support call",
      "status": "active",
      "start_time": "2024-01-10T10:00:00.000000Z",
      "end_time": "2024-01-10T10:30:00.000000Z",
      "event_memberships": [{"user": "https://api.calendly.com/users/U1", "user_email": "host@example.com"}],
      "calendar_event": {"kind": "google", "external_id": "gcal-1"}
    }
  ],
  "pagination": {"count": 1, "next_page_token": "PAGE2"}
}`

const eventsPage2 = `{
  "collection": [
    {
      "uri": "https://api.calendly.com/scheduled_events/EV2",
      "status": "active",
      "start_time": "2024-01-11T14:00:00.000000Z",
      "end_time": "2024-01-11T15:00:00.000000Z",
      "event_memberships": [],
      "calendar_event": null
    }
  ],
  "pagination": {"count": 1, "next_page_token": null}
}`

const inviteesEV1 = `{
  "collection": [
    {
      "name": "Alice Smith",
      "email": "alice@example.com",
      "questions_and_answers": [
        {"question": "Company", "answer": "ACME"},
        {"question": "Ticket Number", "answer": " T-100 "}
      ]
    }
  ]
}`

const inviteesEV2 = `{"collection": [{"name": "Bob", "email": "bob@example.com", "questions_and_answers": []}]}`

type fakeCalendly struct {
	mu       sync.Mutex
	queries  []map[string]string
	auth     []string
	failEV2  bool
	pageCode int
}

func (f *fakeCalendly) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	f.mu.Unlock()

	switch r.URL.Path {
	case "/scheduled_events":
		q := map[string]string{}
		for k := range r.URL.Query() {
			q[k] = r.URL.Query().Get(k)
		}
		f.mu.Lock()
		f.queries = append(f.queries, q)
		f.mu.Unlock()
		if f.pageCode != 0 {
			w.WriteHeader(f.pageCode)
			fmt.Fprint(w, `{"title": "Unauthenticated"}`)
			return
		}
		if q["page_token"] == "PAGE2" {
			fmt.Fprint(w, eventsPage2)
			return
		}
		fmt.Fprint(w, eventsPage1)
	case "/scheduled_events/EV1/invitees":
		fmt.Fprint(w, inviteesEV1)
	case "/scheduled_events/EV2/invitees":
		if f.failEV2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, inviteesEV2)
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, f *fakeCalendly) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, Token: "secret", PageSize: 1})
}

func TestListEvents(t *testing.T) {
	from := time.Date(2024, 1, 9, 15, 4, 5, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	t.Run("pages and invitees", func(t *testing.T) {
		f := &fakeCalendly{}
		c := newTestClient(t, f)

		it, err := c.ListEvents(context.Background(), "https://api.calendly.com/organizations/ORG", from, to)
		require.NoError(t, err)
		events, err := source.Collect(context.Background(), it)
		require.NoError(t, err)
		require.Len(t, events, 2)

		ev1 := events[0]
		require.Equal(t, "EV1", ev1.ID)
		require.Equal(t, time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC), ev1.StartTime)
		require.Equal(t, time.Date(2024, 1, 10, 10, 30, 0, 0, time.UTC), ev1.EndTime)
		require.Equal(t, "Alice Smith", ev1.InviteeName)
		require.Equal(t, "alice@example.com", ev1.InviteeEmail)
		require.Equal(t, "host@example.com", ev1.HostEmail)
		require.Equal(t, "T-100", ev1.TicketID)
		require.Equal(t, "gcal-1", ev1.Raw["external_id"])

		ev2 := events[1]
		require.Equal(t, "EV2", ev2.ID)
		require.Equal(t, "Bob", ev2.InviteeName)
		require.Empty(t, ev2.TicketID)
		require.Empty(t, ev2.HostEmail)

		require.Len(t, f.queries, 2)
		require.Equal(t, map[string]string{
			"organization":   "https://api.calendly.com/organizations/ORG",
			"status":         "active",
			"count":          "1",
			"sort":           "start_time:asc",
			"min_start_time": "2024-01-09T15:04:05.000000Z",
			"max_start_time": "2024-01-16T15:04:05.000000Z",
		}, f.queries[0])
		require.Equal(t, "PAGE2", f.queries[1]["page_token"])
		for _, auth := range f.auth {
			require.Equal(t, "Bearer secret", auth)
		}
	})

	t.Run("listing failure", func(t *testing.T) {
		c := newTestClient(t, &fakeCalendly{pageCode: http.StatusUnauthorized})
		it, err := c.ListEvents(context.Background(), "org", from, to)
		require.NoError(t, err)
		_, err = source.Collect(context.Background(), it)
		require.ErrorIs(t, err, ErrUnexpectedStatus)
		require.Contains(t, err.Error(), "401")
	})

	t.Run("invitee failure is kept on the event", func(t *testing.T) {
		c := newTestClient(t, &fakeCalendly{failEV2: true})
		it, err := c.ListEvents(context.Background(), "org", from, to)
		require.NoError(t, err)
		events, err := source.Collect(context.Background(), it)
		require.NoError(t, err)
		require.Len(t, events, 2)

		require.NoError(t, events[0].Err)
		require.Equal(t, "Alice Smith", events[0].InviteeName)

		require.Equal(t, "EV2", events[1].ID)
		require.ErrorIs(t, events[1].Err, ErrUnexpectedStatus)
		require.Empty(t, events[1].InviteeName)
		require.Equal(t, time.Date(2024, 1, 11, 14, 0, 0, 0, time.UTC), events[1].StartTime)
	})
}

func TestDefaults(t *testing.T) {
	c := New(Config{Token: "secret"})
	require.Equal(t, DefaultBaseURL, c.baseURL)
	require.Equal(t, DefaultPageSize, c.pageSize)
	require.Equal(t, DefaultTicketQuestion, c.ticketQuestion)
}
