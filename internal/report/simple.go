package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/ransomwatch/internal/model"
	"github.com/nao1215/ransomwatch/internal/search"
)

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...Option) *SimpleWriter {
	return &SimpleWriter{baseWriter: newBaseWriter(output, opts)}
}

// Write outputs the snapshot in human-readable format.
func (w *SimpleWriter) Write(snapshot *model.Snapshot) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, snapshot)
	w.writeSummary(&sb, snapshot)
	w.writeSources(&sb, snapshot)
	for _, v := range w.views(snapshot) {
		w.writeView(&sb, v)
	}
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

// WriteCollection outputs one filtered collection.
func (w *SimpleWriter) WriteCollection(result search.Result) (int, error) {
	var sb strings.Builder

	w.writeView(&sb, w.collectionView(result))

	return io.WriteString(w.output, sb.String())
}

// writeHeader writes the report header with cycle information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, snapshot *model.Snapshot) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        RANSOMWATCH REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Target:   %s (%s)\n", snapshot.Target.Label(), snapshot.Target.Code)
	fmt.Fprintf(sb, "Regions:  %s\n", strings.Join(w.regionNames(snapshot.Regions), ", "))
	fmt.Fprintf(sb, "As of:    %s\n", snapshot.AsOf.Format("2006-01-02 15:04:05 MST"))

	if snapshot.Degraded() {
		fmt.Fprintf(sb, "Status:   DEGRADED (%d source(s) unavailable)\n", len(snapshot.FailedSources()))
	} else {
		sb.WriteString("Status:   Complete\n")
	}
	sb.WriteString("\n")
}

// writeSummary writes the collection counts.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, snapshot *model.Snapshot) {
	writeSection(sb, "SUMMARY")

	stats := snapshot.Stats()
	for _, name := range model.Collections() {
		fmt.Fprintf(sb, "  %-16s %d\n", name+":", stats.Count(name))
	}
	sb.WriteString("\n")
}

// writeSources lists failed sources. Nothing is written when all succeeded.
func (w *SimpleWriter) writeSources(sb *strings.Builder, snapshot *model.Snapshot) {
	failed := snapshot.FailedSources()
	if len(failed) == 0 {
		return
	}

	writeSection(sb, "UNAVAILABLE SOURCES")
	for _, src := range failed {
		fmt.Fprintf(sb, "  [!] %s: %s\n", src.Name, src.Error)
	}
	sb.WriteString("\n")
}

// writeView writes one collection.
func (w *SimpleWriter) writeView(sb *strings.Builder, v view) {
	heading := fmt.Sprintf("%s (%d)", strings.ToUpper(v.title), v.total)
	if v.query != "" {
		heading = fmt.Sprintf("%s matching %q (%d of %d)", strings.ToUpper(v.title), v.query, v.total, v.unfiltered)
	}
	writeSection(sb, heading)

	if len(v.records) == 0 {
		sb.WriteString("  No records\n\n")
		return
	}

	for _, r := range v.records {
		row := newRow(r)
		fmt.Fprintf(sb, "  * %s\n", row.victim)
		fmt.Fprintf(sb, "    Group: %s  Date: %s  Country: %s\n", row.group, row.date, row.country)
		if row.domain != "-" {
			fmt.Fprintf(sb, "    Domain: %s\n", row.domain)
		}
		if row.keywords != "-" {
			fmt.Fprintf(sb, "    Matched: %s\n", row.keywords)
		}
	}
	if len(v.records) < v.total {
		fmt.Fprintf(sb, "  ... %d more\n", v.total-len(v.records))
	}
	sb.WriteString("\n")
}

// writeSection writes a section title between rules.
func writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "Report generated by ransomwatch %s\n", w.version)
	sb.WriteString("Data source: https://www.ransomware.live\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
