package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/ransomwatch/internal/classify"
	"github.com/nao1215/ransomwatch/internal/feed"
	"github.com/nao1215/ransomwatch/internal/model"
	"golang.org/x/sync/errgroup"
)

// ErrAggregateFetch is returned when a required aggregate feed fails.
var ErrAggregateFetch = errors.New("aggregate feed fetch failed")

// Source is the feed API used by the refresh steps.
// *feed.Client implements it.
type Source interface {
	RecentVictims(ctx context.Context) ([]*model.Victim, error)
	RecentAttacks(ctx context.Context) ([]*model.Attack, error)
	CountryVictims(ctx context.Context, code string) ([]*model.Victim, error)
}

// sourceStatus builds the status entry of one feed request.
func sourceStatus(name string, records int, err error, fatal bool) model.SourceStatus {
	status := model.SourceStatus{Name: name, Records: records, Fatal: fatal}
	if err != nil {
		status.Error = err.Error()
	}
	return status
}

// AggregateFetchStep fetches the recent victims and recent attacks feeds
// concurrently. Both are required: any failure aborts the cycle.
type AggregateFetchStep struct {
	source Source
	logger *slog.Logger
}

// NewAggregateFetchStep creates the aggregate fetch step.
func NewAggregateFetchStep(source Source, logger *slog.Logger) *AggregateFetchStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &AggregateFetchStep{source: source, logger: logger}
}

// Name returns the step name.
func (s *AggregateFetchStep) Name() string {
	return "aggregate_fetch"
}

// Do executes the aggregate fetch.
func (s *AggregateFetchStep) Do(ctx context.Context, snapshot *model.Snapshot) error {
	var (
		victims   []*model.Victim
		attacks   []*model.Attack
		victimErr error
		attackErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		victims, victimErr = s.source.RecentVictims(gctx)
		return victimErr
	})
	g.Go(func() error {
		attacks, attackErr = s.source.RecentAttacks(gctx)
		return attackErr
	})
	err := g.Wait()

	snapshot.AddSource(sourceStatus(feed.EndpointRecentVictims, len(victims), victimErr, true))
	snapshot.AddSource(sourceStatus(feed.EndpointRecentAttacks, len(attacks), attackErr, true))

	if err != nil {
		return fmt.Errorf("%w: %w", ErrAggregateFetch, err)
	}

	snapshot.Victims = victims
	snapshot.Attacks = attacks

	s.logger.Debug("aggregate feeds fetched",
		"victims", len(victims),
		"attacks", len(attacks),
	)
	return nil
}

// ClassifyStep keeps the aggregate records relevant to the snapshot target.
type ClassifyStep struct{}

// NewClassifyStep creates the classification step.
func NewClassifyStep() *ClassifyStep {
	return &ClassifyStep{}
}

// Name returns the step name.
func (s *ClassifyStep) Name() string {
	return "classify"
}

// Do classifies the aggregate collections.
func (s *ClassifyStep) Do(_ context.Context, snapshot *model.Snapshot) error {
	snapshot.TargetVictims = classify.Victims(snapshot.Victims, snapshot.Target)
	snapshot.TargetAttacks = classify.Attacks(snapshot.Attacks, snapshot.Target)
	return nil
}

// TargetFeedStep merges the target country's dedicated feed into the
// locally classified victims. The feed is optional.
//
// Dedicated-feed entries go through the classifier too and only matches
// are kept, so every target victim carries its matched keywords.
type TargetFeedStep struct {
	source Source
	logger *slog.Logger
}

// NewTargetFeedStep creates the dedicated feed step.
func NewTargetFeedStep(source Source, logger *slog.Logger) *TargetFeedStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &TargetFeedStep{source: source, logger: logger}
}

// Name returns the step name.
func (s *TargetFeedStep) Name() string {
	return "target_feed"
}

// Do fetches, classifies and merges the dedicated feed.
func (s *TargetFeedStep) Do(ctx context.Context, snapshot *model.Snapshot) error {
	code := snapshot.Target.Code
	records, err := s.source.CountryVictims(ctx, code)
	snapshot.AddSource(sourceStatus(feed.CountryEndpoint(code), len(records), err, false))
	if err != nil {
		s.logger.Warn("dedicated feed unavailable, using locally classified victims",
			"country", code,
			"error", err,
		)
		return nil
	}

	matched := classify.Victims(records, snapshot.Target)
	before := len(snapshot.TargetVictims)
	snapshot.TargetVictims = model.Merge(snapshot.TargetVictims, matched)

	s.logger.Debug("dedicated feed merged",
		"country", code,
		"fetched", len(records),
		"matched", len(matched),
		"added", len(snapshot.TargetVictims)-before,
	)
	return nil
}

// RegionFanOutStep fetches the victims of every snapshot region.
// Regional records are neither classified nor deduplicated.
type RegionFanOutStep struct {
	source      Source
	concurrency int
	logger      *slog.Logger
}

// NewRegionFanOutStep creates the region fan-out step.
// A concurrency of zero fetches every region at once.
func NewRegionFanOutStep(source Source, concurrency int, logger *slog.Logger) *RegionFanOutStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &RegionFanOutStep{source: source, concurrency: concurrency, logger: logger}
}

// Name returns the step name.
func (s *RegionFanOutStep) Name() string {
	return "region_fanout"
}

// Do fans out to the regional feeds.
func (s *RegionFanOutStep) Do(ctx context.Context, snapshot *model.Snapshot) error {
	results := FanOut(ctx, snapshot.Regions, s.source.CountryVictims,
		WithConcurrency(s.concurrency),
		WithFanOutLogger(s.logger),
	)

	for _, r := range results {
		snapshot.AddSource(sourceStatus(feed.CountryEndpoint(r.Key), len(r.Records), r.Err, false))
	}
	snapshot.RegionVictims = Flatten(results)
	return nil
}

// StampStep sets the snapshot freshness timestamp.
type StampStep struct {
	now func() time.Time
}

// NewStampStep creates the stamp step. A nil clock uses time.Now.
func NewStampStep(now func() time.Time) *StampStep {
	if now == nil {
		now = time.Now
	}
	return &StampStep{now: now}
}

// Name returns the step name.
func (s *StampStep) Name() string {
	return "stamp"
}

// Do stamps the snapshot.
func (s *StampStep) Do(_ context.Context, snapshot *model.Snapshot) error {
	snapshot.AsOf = s.now()
	return nil
}

// RefreshConfig configures the default refresh pipeline.
type RefreshConfig struct {
	// Concurrency limits concurrent regional fetches; zero means unlimited.
	Concurrency int

	// Clock returns the freshness timestamp; nil uses time.Now.
	Clock func() time.Time

	// Logger is shared by the pipeline and its steps.
	Logger *slog.Logger
}

// NewRefresh returns the refresh pipeline:
// aggregate_fetch, classify, target_feed, region_fanout, stamp.
func NewRefresh(source Source, cfg RefreshConfig) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := New(WithLogger(logger))
	p.AddSteps(
		NewAggregateFetchStep(source, logger),
		NewClassifyStep(),
		NewTargetFeedStep(source, logger),
		NewRegionFanOutStep(source, cfg.Concurrency, logger),
		NewStampStep(cfg.Clock),
	)
	return p
}
