// Package app runs sync passes one at a time and keeps the outcome of the last one.
package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ryanparsons7/calendly-notion/internal/syncer"
	log "github.com/sirupsen/logrus"
)

var ErrBusy = errors.New("sync pass is already running")

type Runner interface {
	Run(ctx context.Context, config syncer.Config) (syncer.Report, error)
}

// Pruner is implemented by stores able to drop records of past meetings.
type Pruner interface {
	RemoveBefore(ctx context.Context, t time.Time) (int64, error)
}

type Status struct {
	Running  bool           `json:"running"`
	Healthy  bool           `json:"healthy"`
	Passes   int            `json:"passes"`
	LastRun  *time.Time     `json:"lastRun,omitempty"`
	Report   *syncer.Report `json:"report,omitempty"`
	Error    string         `json:"error,omitempty"`
	Duration string         `json:"duration,omitempty"`
}

type Option func(a *App)

// WithObserver registers a callback invoked with the status after every pass.
func WithObserver(observer func(Status)) Option {
	return func(a *App) {
		a.observers = append(a.observers, observer)
	}
}

func WithPruner(p Pruner, retain time.Duration) Option {
	return func(a *App) {
		a.pruner = p
		a.retain = retain
	}
}

type App struct {
	runner    Runner
	config    syncer.Config
	observers []func(Status)
	pruner    Pruner
	retain    time.Duration
	now       func() time.Time

	pass  sync.Mutex
	mu    sync.RWMutex
	state Status
}

func New(runner Runner, config syncer.Config, opts ...Option) *App {
	a := &App{runner: runner, config: config, now: time.Now, state: Status{Healthy: true}}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Sync runs a pass, waiting for a running one to finish first.
func (a *App) Sync(ctx context.Context) (syncer.Report, error) {
	a.pass.Lock()
	defer a.pass.Unlock()
	return a.run(ctx)
}

// TrySync runs a pass unless one is already running.
func (a *App) TrySync(ctx context.Context) (syncer.Report, error) {
	if !a.pass.TryLock() {
		return syncer.Report{}, ErrBusy
	}
	defer a.pass.Unlock()
	return a.run(ctx)
}

func (a *App) run(ctx context.Context) (syncer.Report, error) {
	a.mu.Lock()
	a.state.Running = true
	a.mu.Unlock()

	started := a.now()
	report, err := a.runner.Run(ctx, a.config)
	if err != nil {
		log.Errorf("sync pass failed: %v", err)
	}

	a.mu.Lock()
	a.state.Running = false
	a.state.Passes++
	a.state.LastRun = &started
	a.state.Report = &report
	a.state.Duration = a.now().Sub(started).Round(time.Millisecond).String()
	a.state.Healthy = err == nil
	a.state.Error = ""
	if err != nil {
		a.state.Error = err.Error()
	}
	status := a.state
	a.mu.Unlock()

	for _, observer := range a.observers {
		observer(status)
	}
	return report, err
}

func (a *App) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// Prune removes records of meetings that ended before the retention period.
// It is a no-op without a pruner.
func (a *App) Prune(ctx context.Context) (int64, error) {
	if a.pruner == nil || a.retain <= 0 {
		return 0, nil
	}
	a.pass.Lock()
	defer a.pass.Unlock()

	n, err := a.pruner.RemoveBefore(ctx, a.now().Add(-a.retain))
	if err != nil {
		return 0, err
	}
	log.WithField("records", n).Info("old records removed")
	return n, nil
}
