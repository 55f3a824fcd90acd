package source

import (
	"context"
	"time"
)

// Lister lists upstream events of an organization whose start time falls into [from, to].
type Lister interface {
	ListEvents(ctx context.Context, orgReference string, from, to time.Time) (Iterator, error)
}

// Iterator is a single-pass sequence of events. Next advances to the next event
// and returns false when the sequence ends or fails; Err reports the failure.
type Iterator interface {
	Next(ctx context.Context) bool
	Event() Event
	Err() error
}

// Page is one page of a provider listing. Empty NextToken marks the last page.
type Page struct {
	Events    []Event
	NextToken string
}

// FetchPage loads the page identified by token, "" being the first one.
type FetchPage func(ctx context.Context, token string) (Page, error)

type Pager struct {
	fetch   FetchPage
	buf     []Event
	current Event
	token   string
	started bool
	done    bool
	err     error
}

func NewPager(fetch FetchPage) *Pager {
	return &Pager{fetch: fetch}
}

func (p *Pager) Next(ctx context.Context) bool {
	for len(p.buf) == 0 {
		if p.done {
			return false
		}
		if p.started && p.token == "" {
			p.done = true
			return false
		}
		if err := ctx.Err(); err != nil {
			p.fail(err)
			return false
		}

		page, err := p.fetch(ctx, p.token)
		if err != nil {
			p.fail(err)
			return false
		}
		p.started = true
		p.token = page.NextToken
		p.buf = page.Events
	}

	p.current = p.buf[0]
	p.buf = p.buf[1:]
	return true
}

func (p *Pager) Event() Event {
	return p.current
}

func (p *Pager) Err() error {
	return p.err
}

func (p *Pager) fail(err error) {
	p.err = err
	p.done = true
	p.buf = nil
}

// FromSlice serves events already held in memory as a one-page sequence.
func FromSlice(events []Event) *Pager {
	return NewPager(func(_ context.Context, _ string) (Page, error) {
		return Page{Events: events}, nil
	})
}

// Collect drains the iterator. Mostly useful in tests and small listings.
func Collect(ctx context.Context, it Iterator) ([]Event, error) {
	events := make([]Event, 0)
	for it.Next(ctx) {
		events = append(events, it.Event())
	}
	return events, it.Err()
}
