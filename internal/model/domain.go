package model

import (
	"net/url"
	"strings"
)

// OrganizationDomain returns the host name of a victim website.
// The feed often omits the scheme, so "https://" is assumed when the value
// has no http or https scheme in any letter case. When the value cannot be parsed it is returned
// unchanged; an empty website yields "".
func OrganizationDomain(website string) string {
	if website == "" {
		return ""
	}

	raw := website
	if !hasHTTPScheme(raw) {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return website
	}
	return u.Hostname()
}

func hasHTTPScheme(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
