package classify

import (
	"strings"

	"github.com/nao1215/ransomwatch/internal/model"
	"golang.org/x/net/idna"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Result is the outcome of classifying one record.
type Result struct {
	// IsMatch is true iff at least one keyword matched.
	IsMatch bool `json:"isMatch"` //nolint:tagliatelle // dashboard format

	// MatchedKeywords lists the labels in evaluation order.
	MatchedKeywords []string `json:"matchedKeywords"` //nolint:tagliatelle // dashboard format
}

// Classify evaluates a record against a country signature.
// Absent fields are treated as empty strings and never match.
func Classify(record model.Record, country model.Country) Result {
	name := Fold(country.Name)
	keywords := make([]string, 0, 4)

	if tld := Fold(country.TLD); tld != "" {
		host := websiteHost(record.Lookup(model.FieldWebsite))
		if strings.HasSuffix(host, "."+tld) {
			keywords = append(keywords, "."+tld+" domain")
		}
	}

	if name != "" {
		if strings.Contains(Fold(record.Lookup(model.FieldDescription)), name) {
			keywords = append(keywords, name+" in description")
		}
	}

	countryField := Fold(record.Lookup(model.FieldCountry))
	if countryField != "" {
		if countryField == Fold(country.Code) ||
			(country.Alpha3 != "" && countryField == Fold(country.Alpha3)) ||
			(name != "" && strings.Contains(countryField, name)) {
			keywords = append(keywords, name+" in country")
		}
	}

	if name != "" {
		if strings.Contains(Fold(record.Lookup(model.FieldVictim)), name) {
			keywords = append(keywords, name+" in victim name")
		}
	}

	if len(keywords) == 0 {
		return Result{IsMatch: false, MatchedKeywords: []string{}}
	}
	return Result{IsMatch: true, MatchedKeywords: keywords}
}

// Fold lower-cases s using Unicode case mapping.
// A new Caser is created per call because a Caser must not be shared
// between goroutines.
func Fold(s string) string {
	if s == "" {
		return ""
	}
	return cases.Lower(language.Und).String(s)
}

// websiteHost extracts the lower-cased ASCII host of a website value.
// Values without a scheme are treated as https URLs. When the value does
// not parse as a URL, the whole lower-cased value is used so that a bare
// "foo.eg" still matches while "foo.com/eg" does not.
func websiteHost(website string) string {
	website = strings.TrimSpace(website)
	if website == "" {
		return ""
	}

	host := strings.TrimSuffix(model.OrganizationDomain(website), ".")

	if ascii, err := idna.Lookup.ToASCII(host); err == nil {
		return ascii
	}
	return Fold(host)
}
