package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Run refreshes immediately and then every interval until ctx ends.
//
// Scheduled runs that would overlap a refresh still in flight are skipped.
// Refresh failures are logged and do not stop the schedule.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return ErrInvalidInterval
	}

	logger := cronLogger{logger: m.logger}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	schedule := "@every " + interval.String()
	if _, err := c.AddFunc(schedule, func() { m.scheduledRefresh(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule refresh %q: %w", schedule, err)
	}

	m.scheduledRefresh(ctx)

	c.Start()
	m.logger.Info("refresh scheduler started", "interval", interval)

	<-ctx.Done()

	// Wait for a running refresh to observe the cancellation.
	<-c.Stop().Done()
	m.logger.Info("refresh scheduler stopped")
	return nil
}

// scheduledRefresh runs a refresh whose error is only logged.
func (m *Monitor) scheduledRefresh(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := m.Refresh(ctx); err != nil && !errors.Is(err, ErrRefreshInProgress) {
		m.logger.Warn("scheduled refresh failed", "error", err)
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

// Info logs routine scheduler messages at debug level.
func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

// Error logs scheduler errors.
func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
