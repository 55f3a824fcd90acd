package syncer

import (
	"time"
)

// Window is the [From, To] range of event start times a pass looks at.
type Window struct {
	From time.Time `json:"from" yaml:"from"`
	To   time.Time `json:"to" yaml:"to"`
}

// NewWindow spans lookaheadDays calendar days from now, in UTC.
func NewWindow(now time.Time, lookaheadDays int) Window {
	from := now.UTC()
	return Window{From: from, To: from.AddDate(0, 0, lookaheadDays)}
}
