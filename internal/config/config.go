package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/nao1215/ransomwatch/internal/feed"
	"github.com/nao1215/ransomwatch/internal/model"
	"github.com/nao1215/ransomwatch/internal/monitor"
	"github.com/nao1215/ransomwatch/internal/tor"
)

// Default configuration values not owned by other packages.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "ransomwatch"

	// DefaultTarget is the country whose relevance is classified.
	DefaultTarget = "EG"

	// DefaultTorProxyAddress is the standard Tor SOCKS5 proxy address.
	DefaultTorProxyAddress = "127.0.0.1:9050"

	// DefaultListenAddr is where serve exposes the HTTP API.
	DefaultListenAddr = "127.0.0.1:8080"
)

// TransportMode says how feed requests leave the host.
type TransportMode string

// Transport modes.
const (
	TransportDirect      TransportMode = "direct"
	TransportExternalTor TransportMode = "external-tor"
	TransportEmbeddedTor TransportMode = "embedded-tor"
)

// Config holds all options for a ransomwatch run. It is built once by the
// CLI and passed down explicitly.
type Config struct {
	// BaseURL is the feed API root.
	BaseURL string

	// Timeout bounds each feed request.
	Timeout time.Duration

	// UserAgent is sent with every feed request.
	UserAgent string

	// MaxBodySize limits how much of a feed response is read. Zero means
	// the feed client default.
	MaxBodySize int64

	// Target is the two-letter code of the country being watched.
	Target string

	// Regions are the codes queried by the regional fan-out, in order.
	Regions []string

	// Interval is the period between scheduled refreshes.
	Interval time.Duration

	// Concurrency caps simultaneous regional requests. Zero is unlimited.
	Concurrency int

	// UseEmbeddedTor starts a private Tor daemon and routes feed traffic
	// through it.
	UseEmbeddedTor bool

	// UseExternalTor routes feed traffic through the SOCKS5 proxy at
	// TorProxyAddress.
	UseExternalTor bool

	// TorProxyAddress is the external proxy in "host:port" format.
	TorProxyAddress string

	// TorStartupTimeout bounds embedded daemon bootstrap.
	TorStartupTimeout time.Duration

	// ListenAddr is the HTTP API address used by serve.
	ListenAddr string

	// Verbose enables debug logging.
	Verbose bool

	// LogFormat is "text" or "json".
	LogFormat string

	// JSONReport and MarkdownReport select the report format. Both false
	// means plain text.
	JSONReport     bool
	MarkdownReport bool

	// ReportFile receives the report instead of stdout when set.
	ReportFile string

	// ConfigFilePath is the explicit config file path from --config.
	ConfigFilePath string

	// Countries extends or overrides the built-in catalogue.
	Countries []model.Country
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		BaseURL:           feed.DefaultBaseURL,
		Timeout:           feed.DefaultTimeout,
		UserAgent:         feed.DefaultUserAgent,
		MaxBodySize:       feed.DefaultMaxBodySize,
		Target:            DefaultTarget,
		Regions:           model.GCCRegions(),
		Interval:          monitor.DefaultInterval,
		TorProxyAddress:   DefaultTorProxyAddress,
		TorStartupTimeout: tor.DefaultStartupTimeout,
		ListenAddr:        DefaultListenAddr,
	}
}

// XDGConfigDir returns the XDG config directory for ransomwatch.
// On Linux: ~/.config/ransomwatch
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Transport reports the configured transport mode.
func (c *Config) Transport() TransportMode {
	switch {
	case c.UseEmbeddedTor:
		return TransportEmbeddedTor
	case c.UseExternalTor:
		return TransportExternalTor
	default:
		return TransportDirect
	}
}

// Catalogue returns the built-in countries overlaid with configured ones.
func (c *Config) Catalogue() model.Catalogue {
	cat := model.DefaultCatalogue()
	for _, country := range c.Countries {
		cat.Add(country)
	}
	return cat
}

// TargetCountry resolves Target against the catalogue.
func (c *Config) TargetCountry() (model.Country, error) {
	country, err := c.Catalogue().Lookup(c.Target)
	if err != nil {
		return model.Country{}, fmt.Errorf("%w: %q", ErrUnknownTarget, c.Target)
	}
	return country, nil
}

// RegionCodes returns Regions upper-cased, with blanks removed.
func (c *Config) RegionCodes() []string {
	codes := make([]string, 0, len(c.Regions))
	for _, r := range c.Regions {
		if r = strings.ToUpper(strings.TrimSpace(r)); r != "" {
			codes = append(codes, r)
		}
	}
	return codes
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidBaseURL
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Interval <= 0 {
		return ErrInvalidInterval
	}
	if c.Concurrency < 0 {
		return ErrInvalidConcurrency
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	for _, country := range c.Countries {
		if !isCountryCode(country.Code) || strings.TrimSpace(country.Name) == "" {
			return fmt.Errorf("%w: %q", ErrInvalidCountry, country.Code)
		}
	}
	if _, err := c.TargetCountry(); err != nil {
		return err
	}
	for _, r := range c.RegionCodes() {
		if !isCountryCode(r) {
			return fmt.Errorf("%w: %q", ErrInvalidRegion, r)
		}
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.UseEmbeddedTor && c.UseExternalTor {
		return ErrConflictingTorModes
	}
	return nil
}

// isCountryCode reports whether s is two ASCII letters.
func isCountryCode(s string) bool {
	return len(s) == 2 && !slices.ContainsFunc([]byte(s), func(b byte) bool {
		return (b < 'a' || b > 'z') && (b < 'A' || b > 'Z')
	})
}
