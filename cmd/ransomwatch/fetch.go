package main

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/nao1215/ransomwatch/internal/model"
	"github.com/nao1215/ransomwatch/internal/monitor"
	"github.com/nao1215/ransomwatch/internal/search"
)

// errQueryWithoutCollection is returned when --query is given alone.
var errQueryWithoutCollection = errors.New("--query requires --collection")

// NewFetchCmd creates the fetch command.
func NewFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Run one refresh and print the report",
		Long: `Fetch runs one refresh cycle and prints the resulting snapshot.

The recent victims and recent attacks feeds are required; if either fails,
nothing is printed and the command exits with an error. The target country
feed and the regional feeds are optional; their failures are listed in the
report as unavailable sources.

Collections: victims, attacks, target-victims, target-attacks, region-victims

Examples:
  # Terminal report for Egypt
  ransomwatch fetch

  # Markdown report written to a file
  ransomwatch fetch --markdown -o reports/eg.md

  # Saudi Arabia as target, JSON output
  ransomwatch fetch --target SA --json

  # Search one collection
  ransomwatch fetch --collection region-victims -q lockbit`,
		Args: cobra.NoArgs,
		RunE: runFetchCmd,
	}

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().String("collection", "",
		"Print only this collection")
	cmd.Flags().StringP("query", "q", "",
		"Case-insensitive search within --collection")
	cmd.Flags().IntP("limit", "n", 0,
		"Maximum rows listed per collection (0 lists all; attacks stop at 100)")
	cmd.Flags().Int("concurrency", 0,
		"Maximum concurrent regional requests (0 is unlimited)")

	return cmd
}

// runFetchCmd executes the fetch command.
func runFetchCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	collection, err := cmd.Flags().GetString("collection")
	if err != nil {
		return err
	}
	query, err := cmd.Flags().GetString("query")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	if query != "" && collection == "" {
		return errQueryWithoutCollection
	}
	if collection != "" && !slices.Contains(model.Collections(), collection) {
		return fmt.Errorf("%w: %q", search.ErrUnknownCollection, collection)
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	a, err := newApp(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	snapshot, err := a.monitor.Refresh(ctx)
	if err != nil {
		if errors.Is(err, monitor.ErrFetchFailed) {
			return monitor.ErrFetchFailed
		}
		return err
	}

	out, err := openOutput(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer out.Close()

	writer := newReportWriter(cfg, out, a.catalogue, limit)
	if collection == "" {
		_, err = writer.Write(snapshot)
		return err
	}

	result, err := search.Collection(snapshot, collection, query)
	if err != nil {
		return err
	}
	_, err = writer.WriteCollection(result)
	return err
}
