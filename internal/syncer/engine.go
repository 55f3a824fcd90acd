// Package syncer imports upstream calendar events into the target database.
//
// A pass lists the events of the lookahead window, one page after another,
// and handles them strictly in provider order: records that do not exist yet
// are created, existing ones are skipped or, with UpdatePolicyUpdate,
// rescheduled. Per-event failures end up in the Report; only a failure to
// list the window fails the pass.
package syncer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ryanparsons7/calendly-notion/internal/mapper"
	"github.com/ryanparsons7/calendly-notion/internal/source"
	"github.com/ryanparsons7/calendly-notion/internal/store"
	log "github.com/sirupsen/logrus"
)

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
)

// Notification is published for every record the engine writes.
type Notification struct {
	RunID       string    `json:"runId"`
	Action      string    `json:"action"`
	EventID     string    `json:"eventId"`
	ExternalKey string    `json:"externalKey"`
	RecordID    string    `json:"recordId"`
	Title       string    `json:"title"`
	StartTime   time.Time `json:"startTime"`
	Link        *string   `json:"link,omitempty"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

type Option func(e *Engine)

func WithNotifier(n Notifier) Option {
	return func(e *Engine) {
		e.notifier = n
	}
}

// WithClock replaces time.Now as the origin of the lookahead window.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

type Engine struct {
	source   source.Lister
	store    store.Store
	notifier Notifier
	now      func() time.Time
}

func New(lister source.Lister, st store.Store, opts ...Option) *Engine {
	e := &Engine{source: lister, store: st, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run performs one sync pass. The returned report is valid even when an error
// is returned and holds whatever was processed before the failure.
func (e *Engine) Run(ctx context.Context, config Config) (Report, error) {
	if err := config.Validate(); err != nil {
		return Report{}, err
	}

	report := Report{
		RunID:  uuid.New().String(),
		Window: NewWindow(e.now(), config.LookaheadDays),
		Failed: []Failure{},
	}
	logger := log.WithField("run", report.RunID)
	logger.WithFields(log.Fields{
		"from":     report.Window.From.Format(time.RFC3339),
		"to":       report.Window.To.Format(time.RFC3339),
		"database": config.DatabaseID,
	}).Info("sync started")

	events, err := e.source.ListEvents(ctx, config.OrgReference, report.Window.From, report.Window.To)
	if err != nil {
		return report, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	for events.Next(ctx) {
		e.process(ctx, config, events.Event(), &report, logger)
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("sync interrupted: %w", err)
		}
	}
	if err := events.Err(); err != nil {
		if ctx.Err() != nil {
			return report, fmt.Errorf("sync interrupted: %w", ctx.Err())
		}
		return report, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	logger.WithField("summary", report.String()).Info("sync finished")
	return report, nil
}

func (e *Engine) process(ctx context.Context, config Config, event source.Event, report *Report, logger *log.Entry) {
	logger = logger.WithField("event", event.ID)
	mapperConfig := mapper.Config{LinkPrefix: config.LinkPrefix}

	if strings.TrimSpace(event.ID) == "" {
		_, err := mapper.Map(event, mapperConfig)
		logger.Warnf("event skipped: %v", err)
		report.fail(event.ID, err)
		return
	}
	if event.Err != nil {
		logger.Warnf("event skipped: %v", event.Err)
		report.fail(event.ID, fmt.Errorf("%w: %w", ErrIncomplete, event.Err))
		return
	}

	key := mapper.ExternalKey(event.ID)
	existing, found, err := e.store.FindByKey(ctx, config.DatabaseID, key)
	if err != nil {
		logger.Errorf("failed to look up record: %v", err)
		report.fail(event.ID, fmt.Errorf("%w %q: %w", ErrStoreQuery, key, err))
		return
	}
	if found && !config.updates() {
		logger.Debug("record exists, skipped")
		report.Skipped++
		return
	}

	record, err := mapper.Map(event, mapperConfig)
	if err != nil {
		logger.Warnf("event skipped: %v", err)
		report.fail(event.ID, err)
		return
	}

	if !found {
		if err := e.store.Create(ctx, config.DatabaseID, &record); err != nil {
			logger.Errorf("failed to create record: %v", err)
			report.fail(event.ID, fmt.Errorf("%w %q: %w", ErrStoreCreate, key, err))
			return
		}
		logger.WithField("record", record.RecordID).Info("record created")
		report.Created++
		e.notify(ctx, report.RunID, ActionCreated, event.ID, record, logger)
		return
	}

	if existing.SameSchedule(record) {
		logger.Debug("record is up to date, skipped")
		report.Skipped++
		return
	}
	record.RecordID = existing.RecordID
	if err := e.store.Update(ctx, config.DatabaseID, record); err != nil {
		logger.Errorf("failed to update record: %v", err)
		report.fail(event.ID, fmt.Errorf("%w %q: %w", ErrStoreUpdate, key, err))
		return
	}
	logger.WithFields(log.Fields{
		"record": record.RecordID,
		"was":    existing.StartTime.Format(time.RFC3339),
		"now":    record.StartTime.Format(time.RFC3339),
	}).Info("record rescheduled")
	report.Updated++
	e.notify(ctx, report.RunID, ActionUpdated, event.ID, record, logger)
}

func (e *Engine) notify(
	ctx context.Context,
	runID string,
	action string,
	eventID string,
	record store.Record,
	logger *log.Entry,
) {
	if e.notifier == nil {
		return
	}
	err := e.notifier.Notify(ctx, Notification{
		RunID:       runID,
		Action:      action,
		EventID:     eventID,
		ExternalKey: record.ExternalKey,
		RecordID:    record.RecordID,
		Title:       record.Title,
		StartTime:   record.StartTime,
		Link:        record.Link,
	})
	if err != nil {
		logger.Warnf("failed to publish notification: %v", err)
	}
}
