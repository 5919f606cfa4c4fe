package model

import "testing"

// TestOrganizationDomain tests host extraction from feed website values.
func TestOrganizationDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		website string
		want    string
	}{
		{"empty", "", ""},
		{"bare host", "example.com.eg", "example.com.eg"},
		{"with scheme", "https://www.example.eg/about", "www.example.eg"},
		{"http scheme and port", "http://example.eg:8080", "example.eg"},
		{"bare host with path", "example.com/eg", "example.com"},
		{"upper case scheme", "HTTPS://WWW.EXAMPLE.EG", "WWW.EXAMPLE.EG"},
		{"mixed case scheme", "Http://example.eg/", "example.eg"},
		{"host starting with http", "httpbin.org.eg", "httpbin.org.eg"},
		{"unparsable", "%zz", "%zz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := OrganizationDomain(tt.website); got != tt.want {
				t.Errorf("OrganizationDomain(%q) = %q, want %q", tt.website, got, tt.want)
			}
		})
	}
}
