package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/nao1215/ransomwatch/internal/config"
	"github.com/nao1215/ransomwatch/internal/model"
	"github.com/nao1215/ransomwatch/internal/monitor"
)

// NewWatchCmd creates the watch command.
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresh periodically and print a summary per cycle",
		Long: `Watch refreshes immediately and then on a fixed interval until interrupted.

Each cycle prints one summary line. Cycles whose collections are identical to
the previous successful cycle are marked "unchanged". A cycle that starts
while the previous one is still running is skipped.

With --output, the full report is rewritten whenever the snapshot changes.

Examples:
  # Refresh every 5 minutes (default)
  ransomwatch watch

  # Refresh every 15 minutes and keep a Markdown report up to date
  ransomwatch watch -i 15m --markdown -o reports/latest.md`,
		Args: cobra.NoArgs,
		RunE: runWatchCmd,
	}

	cmd.Flags().DurationP("interval", "i", monitor.DefaultInterval, "Refresh interval")
	cmd.Flags().Int("concurrency", 0,
		"Maximum concurrent regional requests (0 is unlimited)")
	cmd.Flags().BoolP("json", "j", false, "Write the report file as JSON")
	cmd.Flags().BoolP("markdown", "m", false, "Write the report file as Markdown")
	cmd.Flags().StringP("output", "o", "", "Report file rewritten on every changed cycle")

	return cmd
}

// runWatchCmd executes the watch command.
func runWatchCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	reporter := &cycleReporter{out: cmd.OutOrStdout(), cfg: cfg}
	a, err := newApp(ctx, cmd, cfg, reporter)
	if err != nil {
		return err
	}
	defer a.Close()
	reporter.catalogue = a.catalogue
	reporter.logger = a.logger

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s every %s (Ctrl+C to stop)\n", a.target.Label(), cfg.Interval)
	return a.monitor.Run(ctx, cfg.Interval)
}

// cycleReporter prints one line per refresh attempt and rewrites the
// report file when the snapshot changes.
type cycleReporter struct {
	out       io.Writer
	cfg       *config.Config
	catalogue model.Catalogue
	logger    *slog.Logger

	mu         sync.Mutex
	lastDigest string
}

var _ monitor.Observer = (*cycleReporter)(nil)

// ObserveRefresh implements monitor.Observer.
func (r *cycleReporter) ObserveRefresh(o monitor.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stamp := o.Started.Format("2006-01-02 15:04:05")

	switch {
	case o.Skipped:
		fmt.Fprintf(r.out, "[%s] skipped: previous refresh still running\n", stamp)
		return
	case o.Err != nil:
		msg := o.Err.Error()
		if errors.Is(o.Err, monitor.ErrFetchFailed) {
			msg = monitor.ErrFetchFailed.Error()
		}
		fmt.Fprintf(r.out, "[%s] refresh failed: %s\n", stamp, msg)
		return
	}

	digest := o.Snapshot.Digest()
	changed := digest != r.lastDigest
	r.lastDigest = digest

	fmt.Fprintf(r.out, "[%s] %s\n", stamp, r.summary(o.Snapshot, changed))

	if changed && r.cfg != nil && r.cfg.ReportFile != "" {
		if err := r.writeReport(o.Snapshot); err != nil && r.logger != nil {
			r.logger.Error("failed to write report", "path", r.cfg.ReportFile, "error", err)
		}
	}
}

// summary formats the collection counts of a snapshot.
func (r *cycleReporter) summary(snapshot *model.Snapshot, changed bool) string {
	stats := snapshot.Stats()
	code := snapshot.Target.Code

	parts := []string{
		fmt.Sprintf("victims=%d", stats.Victims),
		fmt.Sprintf("attacks=%d", stats.Attacks),
		fmt.Sprintf("%s-victims=%d", code, stats.TargetVictims),
		fmt.Sprintf("%s-attacks=%d", code, stats.TargetAttacks),
		fmt.Sprintf("region-victims=%d", stats.RegionVictims),
	}
	if failed := snapshot.FailedSources(); len(failed) > 0 {
		parts = append(parts, fmt.Sprintf("degraded(%d sources)", len(failed)))
	}
	if !changed {
		parts = append(parts, "(unchanged)")
	}
	return strings.Join(parts, " ")
}

func (r *cycleReporter) writeReport(snapshot *model.Snapshot) error {
	out, err := openOutput(r.cfg, io.Discard)
	if err != nil {
		return err
	}
	if _, err := newReportWriter(r.cfg, out, r.catalogue, 0).Write(snapshot); err != nil {
		_ = out.Close() //nolint:errcheck // write error takes precedence
		return err
	}
	return out.Close()
}
