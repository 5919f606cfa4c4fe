package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nao1215/ransomwatch/internal/model"
	"github.com/nao1215/ransomwatch/internal/pipeline"
)

// DefaultInterval is the scheduled refresh interval.
const DefaultInterval = 5 * time.Minute

// Refresher fills a new snapshot. *pipeline.Pipeline implements it.
type Refresher interface {
	Execute(ctx context.Context, snapshot *model.Snapshot) error
}

// Outcome describes one refresh attempt.
type Outcome struct {
	// Snapshot is the snapshot built by the attempt. It is only published
	// when Err is nil, and is nil for skipped attempts.
	Snapshot *model.Snapshot

	// Err is the refresh failure, if any.
	Err error

	// Skipped reports that the trigger was dropped because another
	// refresh was in flight.
	Skipped bool

	// Started is when the attempt began.
	Started time.Time

	// Duration is how long the attempt took.
	Duration time.Duration
}

// Observer is notified of every refresh attempt.
// Observers are called synchronously and must not block.
type Observer interface {
	ObserveRefresh(outcome Outcome)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(outcome Outcome)

// ObserveRefresh calls f.
func (f ObserverFunc) ObserveRefresh(outcome Outcome) {
	f(outcome)
}

// Monitor runs refreshes and publishes their snapshots.
type Monitor struct {
	refresher Refresher
	target    model.Country
	regions   []string
	logger    *slog.Logger
	observers []Observer
	now       func() time.Time

	// current is the last published snapshot.
	current atomic.Pointer[model.Snapshot]

	// running is held for the duration of a refresh.
	running sync.Mutex

	// mu guards lastErr.
	mu      sync.Mutex
	lastErr error
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithObserver registers an observer.
func WithObserver(o Observer) Option {
	return func(m *Monitor) {
		if o != nil {
			m.observers = append(m.observers, o)
		}
	}
}

// WithClock sets the clock used to time refreshes.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

// New creates a Monitor that refreshes snapshots for target and regions.
func New(refresher Refresher, target model.Country, regions []string, opts ...Option) *Monitor {
	m := &Monitor{
		refresher: refresher,
		target:    target,
		regions:   append([]string(nil), regions...),
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Target returns the target country.
func (m *Monitor) Target() model.Country {
	return m.target
}

// Snapshot returns the last published snapshot, or nil before the first
// successful refresh. The returned snapshot must not be modified.
func (m *Monitor) Snapshot() *model.Snapshot {
	return m.current.Load()
}

// LastError returns the error of the most recent completed refresh,
// or nil when it succeeded.
func (m *Monitor) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Refresh runs one refresh cycle.
//
// On success the new snapshot is published and returned. On failure the
// previously published snapshot stays in place; failures of the required
// aggregate feeds are reported as ErrFetchFailed. A call made while another
// refresh is running returns ErrRefreshInProgress immediately.
func (m *Monitor) Refresh(ctx context.Context) (*model.Snapshot, error) {
	started := m.now()

	if !m.running.TryLock() {
		m.logger.Info("refresh skipped, another refresh is in flight")
		m.notify(Outcome{Err: ErrRefreshInProgress, Skipped: true, Started: started})
		return nil, ErrRefreshInProgress
	}
	defer m.running.Unlock()

	snapshot := model.NewSnapshot(m.target, m.regions)
	err := m.refresher.Execute(ctx, snapshot)
	if errors.Is(err, pipeline.ErrAggregateFetch) {
		err = fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	outcome := Outcome{
		Snapshot: snapshot,
		Err:      err,
		Started:  started,
		Duration: m.now().Sub(started),
	}

	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()

	if err != nil {
		m.logger.Error("refresh failed",
			"target", m.target.Code,
			"error", err,
		)
		m.notify(outcome)
		return nil, err
	}

	m.current.Store(snapshot)

	stats := snapshot.Stats()
	m.logger.Info("snapshot published",
		"target", m.target.Code,
		"victims", stats.Victims,
		"attacks", stats.Attacks,
		"target_victims", stats.TargetVictims,
		"target_attacks", stats.TargetAttacks,
		"region_victims", stats.RegionVictims,
		"degraded", snapshot.Degraded(),
		"elapsed", outcome.Duration,
	)
	m.notify(outcome)
	return snapshot, nil
}

// notify calls every observer.
func (m *Monitor) notify(outcome Outcome) {
	for _, o := range m.observers {
		o.ObserveRefresh(outcome)
	}
}
