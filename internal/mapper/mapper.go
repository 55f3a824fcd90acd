// Package mapper turns upstream calendar events into target database records.
package mapper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ryanparsons7/calendly-notion/internal/source"
	"github.com/ryanparsons7/calendly-notion/internal/store"
	"golang.org/x/text/unicode/norm"
)

const untitled = "Untitled meeting"

// Property names of the mapped record.
const (
	PropInviteeName  = "invitee_name"
	PropInviteeEmail = "invitee_email"
	PropHostEmail    = "host_email"
	PropTicketID     = "ticket_id"
)

var (
	ErrMissingField = errors.New("required field is missing")
	ErrInvalidTime  = errors.New("invalid event time")
)

type Config struct {
	LinkPrefix string
}

// MappingError describes an event that cannot become a record.
type MappingError struct {
	EventID string
	Field   string
	Err     error
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("failed to map event %q: field %s: %v", e.EventID, e.Field, e.Err)
}

func (e *MappingError) Unwrap() error {
	return e.Err
}

// ExternalKey is the de-duplication key of the record created for the event id.
func ExternalKey(eventID string) string {
	return eventID
}

// Map builds the record for the event. It has no side effects.
func Map(e source.Event, config Config) (store.Record, error) {
	if strings.TrimSpace(e.ID) == "" {
		return store.Record{}, &MappingError{EventID: e.ID, Field: "id", Err: ErrMissingField}
	}
	if e.StartTime.IsZero() {
		return store.Record{}, &MappingError{EventID: e.ID, Field: "start_time", Err: ErrMissingField}
	}
	if e.EndTime.IsZero() {
		return store.Record{}, &MappingError{EventID: e.ID, Field: "end_time", Err: ErrMissingField}
	}
	if e.EndTime.Before(e.StartTime) {
		return store.Record{}, &MappingError{
			EventID: e.ID,
			Field:   "end_time",
			Err:     fmt.Errorf("%w: end %s is before start %s", ErrInvalidTime, e.EndTime, e.StartTime),
		}
	}

	return store.Record{
		ExternalKey: ExternalKey(e.ID),
		Title:       Title(e),
		Link:        Link(config.LinkPrefix, e.TicketID),
		StartTime:   e.StartTime.UTC(),
		EndTime:     e.EndTime.UTC(),
		Properties:  properties(e),
	}, nil
}

// Title is a human readable summary of the meeting.
func Title(e source.Event) string {
	name := clean(e.InviteeName)
	ticket := clean(e.TicketID)
	switch {
	case name != "" && ticket != "":
		return fmt.Sprintf("%s (%s)", name, ticket)
	case name != "":
		return name
	case ticket != "":
		return "Ticket " + ticket
	case clean(e.InviteeEmail) != "":
		return clean(e.InviteeEmail)
	default:
		return untitled
	}
}

// Link returns nil when the event has no ticket.
func Link(prefix string, ticketID string) *string {
	ticketID = strings.TrimSpace(ticketID)
	if ticketID == "" {
		return nil
	}
	link := prefix + ticketID
	return &link
}

func properties(e source.Event) map[string]interface{} {
	props := make(map[string]interface{})
	for name, value := range map[string]string{
		PropInviteeName:  clean(e.InviteeName),
		PropInviteeEmail: strings.TrimSpace(e.InviteeEmail),
		PropHostEmail:    strings.TrimSpace(e.HostEmail),
		PropTicketID:     strings.TrimSpace(e.TicketID),
	} {
		if value != "" {
			props[name] = value
		}
	}
	return props
}

func clean(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}
