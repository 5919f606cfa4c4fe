package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/ransomwatch/internal/classify"
	"github.com/nao1215/ransomwatch/internal/feed"
	"github.com/nao1215/ransomwatch/internal/model"
)

// errNoRecords is returned when the classify input holds no records.
var errNoRecords = errors.New("no records to classify")

// classifiedRecord is one line of classify output.
type classifiedRecord struct {
	Victim string `json:"victim"`
	Group  string `json:"group"`
	classify.Result
}

// NewClassifyCmd creates the classify command.
func NewClassifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify [file]",
		Short: "Classify victim records against the target country",
		Long: `Classify reads victim records as JSON and reports which relevance signals
match the target country. No network access is needed.

The input is a single record object or an array of records in the feed's
format, read from the file argument or from stdin when the argument is
missing or "-". Entries that are not objects are skipped.

Signals, in order:
  .<tld> domain          website host ends with the country code TLD
  <name> in description  description mentions the country
  <name> in country      country field is the code or mentions the country
  <name> in victim name  victim name mentions the country

Examples:
  echo '{"victim":"Acme","group":"x","attackdate":"2024-05-01","website":"acme.com.eg"}' | ransomwatch classify
  ransomwatch classify --target QA --json victims.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runClassifyCmd,
	}

	cmd.Flags().BoolP("json", "j", false, "Output JSON")
	cmd.Flags().Bool("matches-only", false, "Only list records that match")

	return cmd
}

// runClassifyCmd executes the classify command.
func runClassifyCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	country, err := cfg.TargetCountry()
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	matchesOnly, err := cmd.Flags().GetBool("matches-only")
	if err != nil {
		return err
	}

	input := cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		input = f
	}

	victims, err := readVictims(input)
	if err != nil {
		return err
	}

	results := make([]classifiedRecord, 0, len(victims))
	for _, v := range victims {
		res := classify.Classify(v, country)
		if matchesOnly && !res.IsMatch {
			continue
		}
		results = append(results, classifiedRecord{Victim: v.Victim, Group: v.Group, Result: res})
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	for _, r := range results {
		verdict := "no match"
		if r.IsMatch {
			verdict = strings.Join(r.MatchedKeywords, ", ")
		}
		fmt.Fprintf(out, "%s (%s): %s\n", orNone(r.Victim), orNone(r.Group), verdict)
	}
	return nil
}

// readVictims decodes a record object or an array of records.
func readVictims(r io.Reader) ([]*model.Victim, error) {
	data, err := io.ReadAll(io.LimitReader(r, feed.DefaultMaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	data = []byte(strings.TrimSpace(string(data)))
	if len(data) == 0 {
		return nil, errNoRecords
	}

	if data[0] != '[' {
		var v model.Victim
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("input must be a JSON record or array of records: %w", err)
		}
		return []*model.Victim{&v}, nil
	}

	raw, err := feed.DecodeArray(data)
	if err != nil {
		return nil, fmt.Errorf("input must be a JSON record or array of records: %w", err)
	}
	victims := feed.Normalize[model.Victim](raw, nil)
	if len(victims) == 0 {
		return nil, errNoRecords
	}
	return victims, nil
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
