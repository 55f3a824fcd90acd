// Package icalfeed reads upstream meetings from an iCalendar (.ics) feed.
package icalfeed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/ryanparsons7/calendly-notion/internal/source"
	log "github.com/sirupsen/logrus"
)

const DefaultTicketQuestion = "Ticket Number"

var ErrNotCalendar = errors.New("response is not an iCalendar feed")

type Config struct {
	TicketQuestion string
	Timeout        time.Duration
}

type Source struct {
	http    *http.Client
	tickets source.TicketFinder
}

func New(config Config) *Source {
	question := config.TicketQuestion
	if question == "" {
		question = DefaultTicketQuestion
	}
	return &Source{
		http:    &http.Client{Timeout: config.Timeout},
		tickets: source.NewTicketFinder(question),
	}
}

// ListEvents downloads the feed at feedURL and returns its events starting
// within [from, to], recurring ones expanded, ordered by start time.
func (s *Source) ListEvents(ctx context.Context, feedURL string, from, to time.Time) (source.Iterator, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("incorrect feed url: %w", err)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download feed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download feed: status %d", resp.StatusCode)
	}

	events, err := s.parse(resp.Body, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	return source.FromSlice(events), nil
}

func (s *Source) parse(r io.Reader, from, to time.Time) ([]source.Event, error) {
	cal, err := ical.NewDecoder(r).Decode()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotCalendar, err)
	}

	events := make([]source.Event, 0)
	for _, ev := range cal.Events() {
		e, err := s.toEvent(ev)
		if err != nil {
			log.WithField("uid", e.ID).Warnf("incorrect feed event: %v", err)
			e.Err = err
			events = append(events, e)
			continue
		}
		if status := ev.Props.Get(ical.PropStatus); status != nil && strings.EqualFold(status.Value, "CANCELLED") {
			continue
		}

		set, err := ev.RecurrenceSet(time.UTC)
		if err != nil {
			log.WithField("uid", e.ID).Warnf("skipping recurrence rule: %v", err)
		}
		if set == nil {
			if inWindow(e.StartTime, from, to) {
				events = append(events, e)
			}
			continue
		}

		duration := e.EndTime.Sub(e.StartTime)
		for _, start := range set.Between(from, to, true) {
			instance := e
			instance.ID = e.ID + "-" + start.UTC().Format(time.RFC3339)
			instance.StartTime = start.UTC()
			instance.EndTime = instance.StartTime.Add(duration)
			events = append(events, instance)
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartTime.Before(events[j].StartTime)
	})
	return events, nil
}

func (s *Source) toEvent(ev ical.Event) (source.Event, error) {
	e := source.Event{Raw: map[string]interface{}{}}
	if uid := ev.Props.Get(ical.PropUID); uid != nil {
		e.ID = uid.Value
	}

	start, err := ev.DateTimeStart(time.UTC)
	if err != nil {
		return e, fmt.Errorf("incorrect start: %w", err)
	}
	end, err := ev.DateTimeEnd(time.UTC)
	if err != nil {
		return e, fmt.Errorf("incorrect end: %w", err)
	}
	e.StartTime, e.EndTime = start, end

	if organizer := ev.Props.Get(ical.PropOrganizer); organizer != nil {
		e.HostEmail = mailAddress(organizer.Value)
	}
	for _, attendee := range ev.Props.Values(ical.PropAttendee) {
		email := mailAddress(attendee.Value)
		if email == e.HostEmail {
			continue
		}
		e.InviteeEmail = email
		e.InviteeName = attendee.Params.Get(ical.ParamCommonName)
		break
	}
	if summary, err := ev.Props.Text(ical.PropSummary); err == nil {
		e.Raw["summary"] = summary
	}
	if description, err := ev.Props.Text(ical.PropDescription); err == nil {
		e.TicketID = s.tickets.Find(description)
	}
	return e, nil
}

func inWindow(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}

func mailAddress(v string) string {
	if len(v) >= len("mailto:") && strings.EqualFold(v[:len("mailto:")], "mailto:") {
		return v[len("mailto:"):]
	}
	return v
}
