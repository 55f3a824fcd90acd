package source

import (
	"regexp"
	"strings"
)

// TicketFinder extracts an answer written as "<question>: <answer>" in free text,
// the way booking pages put form answers into event descriptions.
type TicketFinder struct {
	line *regexp.Regexp
}

func NewTicketFinder(question string) TicketFinder {
	return TicketFinder{line: regexp.MustCompile(`(?mi)^\s*` + regexp.QuoteMeta(strings.TrimSpace(question)) + `\s*:\s*(\S+)`)}
}

func (f TicketFinder) Find(text string) string {
	m := f.line.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}
