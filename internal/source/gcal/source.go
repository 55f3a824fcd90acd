// Package gcal lists events of a Google Calendar as upstream meetings.
package gcal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ryanparsons7/calendly-notion/internal/source"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const (
	DefaultPageSize       = 100
	DefaultTicketProperty = "ticketNumber"
	DefaultTicketQuestion = "Ticket Number"
)

type Config struct {
	CredentialsFile string
	Endpoint        string
	PageSize        int
	// TicketProperty is the shared extended property holding the ticket id.
	TicketProperty string
	// TicketQuestion is looked up as "<question>: <answer>" in the description
	// when the extended property is absent.
	TicketQuestion string
}

type Source struct {
	srv            *calendar.Service
	pageSize       int64
	ticketProperty string
	tickets        source.TicketFinder
}

func New(ctx context.Context, config Config, opts ...option.ClientOption) (*Source, error) {
	if config.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(config.CredentialsFile))
	}
	if config.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(config.Endpoint))
	}
	opts = append(opts, option.WithScopes(calendar.CalendarReadonlyScope))
	srv, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar client: %w", err)
	}

	s := &Source{srv: srv, pageSize: int64(config.PageSize), ticketProperty: config.TicketProperty}
	if s.pageSize <= 0 {
		s.pageSize = DefaultPageSize
	}
	if s.ticketProperty == "" {
		s.ticketProperty = DefaultTicketProperty
	}
	question := config.TicketQuestion
	if question == "" {
		question = DefaultTicketQuestion
	}
	s.tickets = source.NewTicketFinder(question)
	return s, nil
}

// ListEvents lists single (expanded) events of calendarID ordered by start time.
func (s *Source) ListEvents(_ context.Context, calendarID string, from, to time.Time) (source.Iterator, error) {
	return source.NewPager(func(ctx context.Context, token string) (source.Page, error) {
		call := s.srv.Events.List(calendarID).
			SingleEvents(true).
			OrderBy("startTime").
			MaxResults(s.pageSize).
			TimeMin(from.UTC().Format(time.RFC3339)).
			TimeMax(to.UTC().Format(time.RFC3339))
		if token != "" {
			call.PageToken(token)
		}
		events, err := call.Context(ctx).Do()
		if err != nil {
			return source.Page{}, fmt.Errorf("failed to list events of %q: %w", calendarID, err)
		}

		page := source.Page{NextToken: events.NextPageToken, Events: make([]source.Event, 0, len(events.Items))}
		for _, item := range events.Items {
			if item.Status == "cancelled" {
				continue
			}
			page.Events = append(page.Events, s.toEvent(item))
		}
		return page, nil
	}), nil
}

func (s *Source) toEvent(item *calendar.Event) source.Event {
	e := source.Event{
		ID:        item.Id,
		StartTime: eventTime(item.Start),
		EndTime:   eventTime(item.End),
		Raw: map[string]interface{}{
			"summary":  item.Summary,
			"htmlLink": item.HtmlLink,
			"status":   item.Status,
		},
	}
	if item.Organizer != nil {
		e.HostEmail = item.Organizer.Email
	}
	for _, a := range item.Attendees {
		if a.Organizer || a.Self || a.Resource {
			continue
		}
		e.InviteeName = a.DisplayName
		e.InviteeEmail = a.Email
		break
	}
	if item.ExtendedProperties != nil {
		e.TicketID = strings.TrimSpace(item.ExtendedProperties.Shared[s.ticketProperty])
	}
	if e.TicketID == "" {
		e.TicketID = s.tickets.Find(item.Description)
	}
	return e
}

// eventTime returns zero time for all-day events and malformed values.
func eventTime(t *calendar.EventDateTime) time.Time {
	if t == nil || t.DateTime == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339, t.DateTime)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
