package report

import (
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/ransomwatch/internal/model"
	"github.com/nao1215/ransomwatch/internal/search"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// maxChartGroups is the number of groups shown in the pie chart.
// Remaining groups are summed into "Other".
const maxChartGroups = 8

// MarkdownWriter outputs reports in GitHub-flavored Markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...Option) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output, opts)}
}

// Write outputs the snapshot in Markdown format.
func (w *MarkdownWriter) Write(snapshot *model.Snapshot) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, snapshot)
	w.writeSummary(md, snapshot)
	w.writeGroupChart(md, snapshot)
	for _, v := range w.views(snapshot) {
		w.writeView(md, v)
	}
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteCollection outputs one filtered collection in Markdown format.
func (w *MarkdownWriter) WriteCollection(result search.Result) (int, error) {
	md := markdown.NewMarkdown(w.output)

	v := w.collectionView(result)
	if result.Query != "" {
		v.title = result.Collection + " matching `" + result.Query + "`"
	}
	w.writeView(md, v)

	return len(md.String()), md.Build()
}

// writeHeader writes the title, cycle information and source alert.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, snapshot *model.Snapshot) {
	md.H1("Ransomware Watch Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Target", snapshot.Target.Label() + " (`" + snapshot.Target.Code + "`)"},
			{"Regions", strings.Join(w.regionNames(snapshot.Regions), ", ")},
			{"As Of", snapshot.AsOf.Format("2006-01-02 15:04:05 MST")},
			{"Status", statusText(snapshot)},
		},
	})
	md.PlainText("")

	w.writeAlert(md, snapshot)
}

// statusText returns the status text based on source failures.
func statusText(snapshot *model.Snapshot) string {
	if snapshot.Degraded() {
		return "⚠️ Degraded (" + strconv.Itoa(len(snapshot.FailedSources())) + " source(s) unavailable)"
	}
	return "✅ Complete"
}

// writeAlert writes an alert describing the cycle state.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, snapshot *model.Snapshot) {
	failed := snapshot.FailedSources()
	names := make([]string, len(failed))
	for i, src := range failed {
		names[i] = src.Name
	}

	switch {
	case len(failed) > 0:
		md.Warningf("Some optional feeds were unavailable and contributed no records: %s.",
			strings.Join(names, ", "))
	case len(snapshot.TargetVictims)+len(snapshot.TargetAttacks) > 0:
		md.Importantf("%d victim(s) and %d attack(s) relevant to %s in the current feed.",
			len(snapshot.TargetVictims), len(snapshot.TargetAttacks), snapshot.Target.Label())
	default:
		md.Tip("No records relevant to " + snapshot.Target.Label() + " in the current feed.")
	}
	md.PlainText("")
}

// writeSummary writes the collection counts.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, snapshot *model.Snapshot) {
	md.H2("Summary")
	md.PlainText("")

	stats := snapshot.Stats()
	rows := make([][]string, 0, len(model.Collections()))
	for _, name := range model.Collections() {
		rows = append(rows, []string{"`" + name + "`", strconv.Itoa(stats.Count(name))})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Collection", "Records"},
		Rows:   rows,
	})
	md.PlainText("")
}

// groupCount is the number of target records claimed by one group.
type groupCount struct {
	group string
	count int
}

// targetGroups counts the groups behind the target collections,
// most active first.
func targetGroups(snapshot *model.Snapshot) []groupCount {
	counts := map[string]int{}
	for _, v := range snapshot.TargetVictims {
		counts[v.Group]++
	}
	for _, a := range snapshot.TargetAttacks {
		counts[a.Group]++
	}
	delete(counts, "")

	groups := make([]groupCount, 0, len(counts))
	for g, n := range counts {
		groups = append(groups, groupCount{group: g, count: n})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].count != groups[j].count {
			return groups[i].count > groups[j].count
		}
		return groups[i].group < groups[j].group
	})
	return groups
}

// writeGroupChart writes a mermaid pie chart of the groups hitting the target.
func (w *MarkdownWriter) writeGroupChart(md *markdown.Markdown, snapshot *model.Snapshot) {
	groups := targetGroups(snapshot)
	if len(groups) == 0 {
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Groups targeting "+snapshot.Target.Label()),
		piechart.WithShowData(true),
	)

	title := cases.Title(language.Und, cases.NoLower)
	other := 0
	for i, g := range groups {
		if i >= maxChartGroups {
			other += g.count
			continue
		}
		chart.LabelAndIntValue(title.String(g.group), uint64(g.count)) //nolint:gosec // counts are non-negative
	}
	if other > 0 {
		chart.LabelAndIntValue("Other", uint64(other)) //nolint:gosec // counts are non-negative
	}

	md.H2("Threat Groups")
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeView writes one collection as a table.
func (w *MarkdownWriter) writeView(md *markdown.Markdown, v view) {
	md.H2(v.title)
	md.PlainText("")

	if len(v.records) == 0 {
		md.PlainText("No records.")
		md.PlainText("")
		return
	}

	classified := v.name == model.CollectionTargetVictims || v.name == model.CollectionTargetAttacks
	header := []string{"Victim", "Group", "Country", "Date", "Domain"}
	if classified {
		header = append(header, "Matched Keywords")
	}

	rows := make([][]string, len(v.records))
	for i, r := range v.records {
		row := newRow(r)
		cells := []string{
			escapeCell(truncateString(row.victim, 50)),
			escapeCell(row.group),
			escapeCell(row.country),
			escapeCell(row.date),
			escapeCell(truncateString(row.domain, 40)),
		}
		if classified {
			cells = append(cells, escapeCell(row.keywords))
		}
		rows[i] = cells
	}

	md.Table(markdown.TableSet{
		Header: header,
		Rows:   rows,
	})
	md.PlainText("")

	if len(v.records) < v.total {
		md.PlainTextf("*Showing %d of %d records.*", len(v.records), v.total)
		md.PlainText("")
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [ransomwatch](https://github.com/nao1215/ransomwatch) %s from [ransomware.live](https://www.ransomware.live) data*", w.version)
}

// escapeCell keeps cell content from breaking the table layout.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
