package model

import (
	"errors"
	"sort"
	"strings"
)

// ErrUnknownCountry is returned when a country code is not in the catalogue.
var ErrUnknownCountry = errors.New("unknown country code")

// Country is the signature used to decide whether a record is relevant to
// a country.
type Country struct {
	// Code is the ISO 3166-1 alpha-2 code, upper case (e.g. "EG").
	// It is also the path parameter of the countryvictims endpoint.
	Code string `json:"code" yaml:"code"`

	// Alpha3 is the ISO 3166-1 alpha-3 code (e.g. "EGY").
	Alpha3 string `json:"alpha3" yaml:"alpha3"`

	// Name is the full country name matched as a substring.
	Name string `json:"name" yaml:"name"`

	// DisplayName is used in reports; defaults to Name.
	DisplayName string `json:"displayName,omitempty" yaml:"displayName,omitempty"` //nolint:tagliatelle // camelCase in config

	// TLD is the country-code top level domain without the leading dot.
	TLD string `json:"tld" yaml:"tld"`
}

// Label returns the name used in reports.
func (c Country) Label() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return c.Name
}

// Egypt is the default target country.
var Egypt = Country{Code: "EG", Alpha3: "EGY", Name: "Egypt", TLD: "eg"}

// GCC states in the order the regional feeds are queried.
var (
	SaudiArabia = Country{Code: "SA", Alpha3: "SAU", Name: "Saudi Arabia", TLD: "sa"}
	UAE         = Country{Code: "AE", Alpha3: "ARE", Name: "United Arab Emirates", DisplayName: "UAE", TLD: "ae"}
	Kuwait      = Country{Code: "KW", Alpha3: "KWT", Name: "Kuwait", TLD: "kw"}
	Oman        = Country{Code: "OM", Alpha3: "OMN", Name: "Oman", TLD: "om"}
	Qatar       = Country{Code: "QA", Alpha3: "QAT", Name: "Qatar", TLD: "qa"}
	Bahrain     = Country{Code: "BH", Alpha3: "BHR", Name: "Bahrain", TLD: "bh"}
)

// GCCRegions returns the default fan-out region codes.
func GCCRegions() []string {
	return []string{"SA", "AE", "KW", "OM", "QA", "BH"}
}

// Catalogue maps alpha-2 codes to country signatures.
type Catalogue map[string]Country

// DefaultCatalogue returns a fresh catalogue with Egypt and the GCC states.
func DefaultCatalogue() Catalogue {
	cat := Catalogue{}
	for _, c := range []Country{Egypt, SaudiArabia, UAE, Kuwait, Oman, Qatar, Bahrain} {
		cat[c.Code] = c
	}
	return cat
}

// Lookup returns the country for code, ignoring case.
func (cat Catalogue) Lookup(code string) (Country, error) {
	c, ok := cat[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return Country{}, ErrUnknownCountry
	}
	return c, nil
}

// Add registers or replaces a country. The code is stored upper case.
func (cat Catalogue) Add(c Country) {
	c.Code = strings.ToUpper(c.Code)
	cat[c.Code] = c
}

// Codes returns the registered codes in sorted order.
func (cat Catalogue) Codes() []string {
	codes := make([]string, 0, len(cat))
	for code := range cat {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
