package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nao1215/ransomwatch/internal/config"
	"github.com/nao1215/ransomwatch/internal/model"
	"github.com/nao1215/ransomwatch/internal/report"
)

// nopCloser adapts stdout so callers can always Close the destination.
type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput returns the report destination: the configured file, created
// with owner-only permissions, or fallback.
func openOutput(cfg *config.Config, fallback io.Writer) (io.WriteCloser, error) {
	if cfg.ReportFile == "" {
		return nopCloser{fallback}, nil
	}

	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// newReportWriter returns the writer for the configured report format.
func newReportWriter(cfg *config.Config, w io.Writer, cat model.Catalogue, limit int) report.Writer {
	opts := []report.Option{
		report.WithLimit(limit),
		report.WithCatalogue(cat),
		report.WithVersion(getVersion()),
	}

	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(w, append(opts, report.WithPrettyPrint())...)
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(w, opts...)
	default:
		return report.NewSimpleWriter(w, opts...)
	}
}
