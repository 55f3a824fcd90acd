package source

import (
	"time"
)

// Event is a scheduled meeting as reported by the source calendar provider.
type Event struct {
	ID           string                 `json:"id"`
	StartTime    time.Time              `json:"startTime"`
	EndTime      time.Time              `json:"endTime"`
	InviteeName  string                 `json:"inviteeName"`
	InviteeEmail string                 `json:"inviteeEmail"`
	HostEmail    string                 `json:"hostEmail"`
	TicketID     string                 `json:"ticketId,omitempty"`
	Raw          map[string]interface{} `json:"-"`
	// Err is set when the provider listed the event but could not load all of its details.
	Err error `json:"-"`
}
