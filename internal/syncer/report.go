package syncer

import (
	"fmt"
)

type Failure struct {
	EventID string `json:"eventId" yaml:"eventId"`
	Error   string `json:"error" yaml:"error"`
	Err     error  `json:"-" yaml:"-"`
}

// Report summarizes one sync pass.
type Report struct {
	RunID   string    `json:"runId" yaml:"runId"`
	Window  Window    `json:"window" yaml:"window"`
	Created int       `json:"created" yaml:"created"`
	Skipped int       `json:"skipped" yaml:"skipped"`
	Updated int       `json:"updated" yaml:"updated"`
	Failed  []Failure `json:"failed" yaml:"failed"`
}

func (r *Report) fail(eventID string, err error) {
	r.Failed = append(r.Failed, Failure{EventID: eventID, Error: err.Error(), Err: err})
}

func (r Report) Processed() int {
	return r.Created + r.Skipped + r.Updated + len(r.Failed)
}

func (r Report) String() string {
	return fmt.Sprintf("created=%d skipped=%d updated=%d failed=%d", r.Created, r.Skipped, r.Updated, len(r.Failed))
}
