package store

import (
	"time"
)

// Record is a row of the target database that represents one upstream event.
type Record struct {
	RecordID    string                 `json:"recordId" db:"record_id"`
	ExternalKey string                 `json:"externalKey" db:"external_key"`
	Title       string                 `json:"title" db:"title"`
	Link        *string                `json:"link" db:"link"`
	StartTime   time.Time              `json:"startTime" db:"start_time"`
	EndTime     time.Time              `json:"endTime" db:"end_time"`
	Properties  map[string]interface{} `json:"properties" db:"-"`
}

// SameSchedule reports whether both records describe the same time slot.
func (r Record) SameSchedule(o Record) bool {
	return r.StartTime.Equal(o.StartTime) && r.EndTime.Equal(o.EndTime)
}
