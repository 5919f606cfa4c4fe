package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// FetchFunc fetches the records of one key (e.g. a region code).
type FetchFunc[T any] func(ctx context.Context, key string) ([]*T, error)

// Result is the settled outcome of one fan-out key.
type Result[T any] struct {
	// Key is the fanned-out key.
	Key string

	// Records holds the fetched records; empty when Err is set.
	Records []*T

	// Err is the fetch failure, if any.
	Err error
}

// fanOutConfig holds FanOut settings.
type fanOutConfig struct {
	concurrency int
	logger      *slog.Logger
}

// FanOutOption configures FanOut.
type FanOutOption func(*fanOutConfig)

// WithConcurrency limits how many keys are fetched at once.
// Zero or a negative value means one goroutine per key.
func WithConcurrency(n int) FanOutOption {
	return func(c *fanOutConfig) {
		c.concurrency = n
	}
}

// WithFanOutLogger sets the logger used for failure warnings.
func WithFanOutLogger(logger *slog.Logger) FanOutOption {
	return func(c *fanOutConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// FanOut fetches every key concurrently and waits for all of them to settle.
//
// A failing key never cancels or short-circuits the others: its result
// carries the error and an empty record slice, and a warning is logged.
// Results are returned in key order.
func FanOut[T any](ctx context.Context, keys []string, fetch FetchFunc[T], opts ...FanOutOption) []Result[T] {
	cfg := &fanOutConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}

	results := make([]Result[T], len(keys))

	// A plain group (not WithContext) so one failure does not cancel the rest.
	var g errgroup.Group
	if cfg.concurrency > 0 {
		g.SetLimit(cfg.concurrency)
	}

	startTime := time.Now()
	for i, key := range keys {
		g.Go(func() error {
			records, err := fetch(ctx, key)
			if err != nil {
				cfg.logger.Warn("fan-out fetch failed",
					"key", key,
					"error", err,
				)
				results[i] = Result[T]{Key: key, Records: make([]*T, 0), Err: err}
				return nil
			}
			if records == nil {
				records = make([]*T, 0)
			}
			results[i] = Result[T]{Key: key, Records: records}
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // workers never return errors

	cfg.logger.Debug("fan-out complete",
		"keys", len(keys),
		"elapsed", time.Since(startTime),
	)

	return results
}

// Flatten concatenates the records of every result in result order.
// Failed results contribute nothing. No deduplication is performed.
func Flatten[T any](results []Result[T]) []*T {
	total := 0
	for _, r := range results {
		total += len(r.Records)
	}

	out := make([]*T, 0, total)
	for _, r := range results {
		out = append(out, r.Records...)
	}
	return out
}
