package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/nao1215/ransomwatch/internal/model"
	"github.com/nao1215/ransomwatch/internal/search"
)

// JSONWriter outputs reports in JSON format for tool integration.
// Row limits do not apply: JSON output always carries every record.
type JSONWriter struct {
	baseWriter
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...Option) *JSONWriter {
	return &JSONWriter{baseWriter: newBaseWriter(output, opts)}
}

// JSONReport wraps a snapshot with output metadata.
type JSONReport struct {
	// Version is the ransomwatch version that generated this report.
	Version string `json:"version"`

	// GeneratedAt is when the report was written.
	GeneratedAt time.Time `json:"generatedAt"` //nolint:tagliatelle // camelCase API

	// Stats holds the collection counts.
	Stats model.Stats `json:"stats"`

	// Digest fingerprints the snapshot contents.
	Digest string `json:"digest"`

	// Snapshot is the full snapshot.
	Snapshot *model.Snapshot `json:"snapshot"`
}

// NewJSONReport creates a JSONReport wrapper with version information.
func NewJSONReport(snapshot *model.Snapshot, version string) *JSONReport {
	return &JSONReport{
		Version:     version,
		GeneratedAt: time.Now().UTC(),
		Stats:       snapshot.Stats(),
		Digest:      snapshot.Digest(),
		Snapshot:    snapshot,
	}
}

// Write outputs the snapshot wrapped with metadata.
func (w *JSONWriter) Write(snapshot *model.Snapshot) (int, error) {
	return w.writeJSON(NewJSONReport(snapshot, w.version))
}

// WriteCollection outputs one filtered collection.
func (w *JSONWriter) WriteCollection(result search.Result) (int, error) {
	return w.writeJSON(result)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent != "" {
		data, err = json.MarshalIndent(v, "", w.indent)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
