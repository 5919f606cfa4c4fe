package report

import (
	"io"
	"strings"

	"github.com/nao1215/ransomwatch/internal/model"
	"github.com/nao1215/ransomwatch/internal/search"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs the whole snapshot.
	// Returns the number of bytes written and any error encountered.
	Write(snapshot *model.Snapshot) (int, error)

	// WriteCollection outputs a single filtered collection.
	WriteCollection(result search.Result) (int, error)
}

// MultiWriter writes to multiple Writers in turn.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the snapshot to all configured Writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(snapshot *model.Snapshot) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(snapshot)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteCollection outputs the collection to all configured Writers.
func (m *MultiWriter) WriteCollection(result search.Result) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteCollection(result)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Option configures a writer.
type Option func(*baseWriter)

// WithLimit caps the number of rows listed per collection.
// Zero lists every row.
func WithLimit(n int) Option {
	return func(b *baseWriter) {
		if n >= 0 {
			b.limit = n
		}
	}
}

// WithCatalogue sets the catalogue used to name regions.
func WithCatalogue(cat model.Catalogue) Option {
	return func(b *baseWriter) {
		if cat != nil {
			b.catalogue = cat
		}
	}
}

// WithVersion sets the version recorded in reports.
func WithVersion(version string) Option {
	return func(b *baseWriter) {
		b.version = version
	}
}

// WithPrettyPrint enables indented output where the format supports it.
func WithPrettyPrint() Option {
	return func(b *baseWriter) {
		b.indent = "  "
	}
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output    io.Writer
	limit     int
	catalogue model.Catalogue
	version   string
	indent    string
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer, opts []Option) baseWriter {
	b := baseWriter{
		output:    output,
		catalogue: model.DefaultCatalogue(),
		version:   "dev",
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// rowLimit returns the number of rows to list for a collection.
// The attack collection is never listed past search.AttackViewLimit.
func (b baseWriter) rowLimit(collection string) int {
	limit := b.limit
	if collection == model.CollectionAttacks && (limit == 0 || limit > search.AttackViewLimit) {
		limit = search.AttackViewLimit
	}
	return limit
}

// regionNames returns the display names of the snapshot regions.
func (b baseWriter) regionNames(codes []string) []string {
	names := make([]string, len(codes))
	for i, code := range codes {
		if c, err := b.catalogue.Lookup(code); err == nil {
			names[i] = c.Label()
		} else {
			names[i] = code
		}
	}
	return names
}

// view is one collection prepared for rendering.
type view struct {
	name    string
	title   string
	total   int
	records []model.Record

	// query and unfiltered are set for a filtered collection.
	query      string
	unfiltered int
}

// views returns the snapshot collections in display order.
func (b baseWriter) views(snapshot *model.Snapshot) []view {
	target := snapshot.Target.Label()
	regions := strings.Join(b.regionNames(snapshot.Regions), ", ")

	all := []view{
		{name: model.CollectionTargetVictims, title: target + " Victims", records: toRecords(snapshot.TargetVictims)},
		{name: model.CollectionTargetAttacks, title: target + " Attacks", records: toRecords(snapshot.TargetAttacks)},
		{name: model.CollectionRegionVictims, title: "Regional Victims (" + regions + ")", records: toRecords(snapshot.RegionVictims)},
		{name: model.CollectionVictims, title: "Recent Victims", records: toRecords(snapshot.Victims)},
		{name: model.CollectionAttacks, title: "Recent Attacks", records: toRecords(snapshot.Attacks)},
	}
	for i := range all {
		all[i].total = len(all[i].records)
		all[i].records = search.Limit(all[i].records, b.rowLimit(all[i].name))
	}
	return all
}

// collectionView prepares a filtered collection for rendering.
func (b baseWriter) collectionView(result search.Result) view {
	return view{
		name:       result.Collection,
		title:      result.Collection,
		total:      len(result.Items),
		records:    search.Limit(result.Items, b.rowLimit(result.Collection)),
		query:      result.Query,
		unfiltered: result.Total,
	}
}

// toRecords converts a typed slice to records.
func toRecords[R model.Record](items []R) []model.Record {
	out := make([]model.Record, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}

// row is the display form of one record.
type row struct {
	victim   string
	group    string
	country  string
	date     string
	domain   string
	keywords string
}

// newRow extracts the displayed columns of a record.
func newRow(r model.Record) row {
	return row{
		victim:   orDash(r.Lookup(model.FieldVictim)),
		group:    orDash(r.Lookup(model.FieldGroup)),
		country:  orDash(r.Lookup(model.FieldCountry)),
		date:     orDash(r.Lookup(model.FieldAttackDate)),
		domain:   orDash(model.OrganizationDomain(r.Lookup(model.FieldWebsite))),
		keywords: orDash(strings.ReplaceAll(r.Lookup(model.FieldMatchedKeywords), ",", ", ")),
	}
}

// orDash returns "-" for empty values.
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
