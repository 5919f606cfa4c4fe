package config

import (
	"time"

	"github.com/nao1215/ransomwatch/internal/model"
)

// File is the structure of the .ransomwatch YAML file. Every field is
// optional; zero values leave the current setting untouched.
type File struct {
	Feed      FeedSection     `yaml:"feed,omitempty"`
	Target    string          `yaml:"target,omitempty"`
	Regions   []string        `yaml:"regions,omitempty"`
	Refresh   RefreshSection  `yaml:"refresh,omitempty"`
	Tor       TorSection      `yaml:"tor,omitempty"`
	Server    ServerSection   `yaml:"server,omitempty"`
	Log       LogSection      `yaml:"log,omitempty"`
	Countries []model.Country `yaml:"countries,omitempty"`
}

// FeedSection configures the feed client.
type FeedSection struct {
	BaseURL     string        `yaml:"baseURL,omitempty"` //nolint:tagliatelle // camelCase in config
	Timeout     time.Duration `yaml:"timeout,omitempty"`
	UserAgent   string        `yaml:"userAgent,omitempty"`   //nolint:tagliatelle // camelCase in config
	MaxBodySize int64         `yaml:"maxBodySize,omitempty"` //nolint:tagliatelle // camelCase in config
}

// RefreshSection configures the refresh schedule.
type RefreshSection struct {
	Interval    time.Duration `yaml:"interval,omitempty"`
	Concurrency int           `yaml:"concurrency,omitempty"`
}

// TorSection configures Tor routing.
type TorSection struct {
	// Embedded starts a private Tor daemon.
	Embedded bool `yaml:"embedded,omitempty"`
	// Proxy is an external SOCKS5 proxy; setting it enables external mode.
	Proxy          string        `yaml:"proxy,omitempty"`
	StartupTimeout time.Duration `yaml:"startupTimeout,omitempty"` //nolint:tagliatelle // camelCase in config
}

// ServerSection configures the HTTP API.
type ServerSection struct {
	Listen string `yaml:"listen,omitempty"`
}

// LogSection configures logging.
type LogSection struct {
	Verbose bool   `yaml:"verbose,omitempty"`
	Format  string `yaml:"format,omitempty"`
}

// Apply overlays the non-zero values of f onto cfg.
func (f *File) Apply(cfg *Config) {
	if f.Feed.BaseURL != "" {
		cfg.BaseURL = f.Feed.BaseURL
	}
	if f.Feed.Timeout != 0 {
		cfg.Timeout = f.Feed.Timeout
	}
	if f.Feed.UserAgent != "" {
		cfg.UserAgent = f.Feed.UserAgent
	}
	if f.Feed.MaxBodySize != 0 {
		cfg.MaxBodySize = f.Feed.MaxBodySize
	}
	if f.Target != "" {
		cfg.Target = f.Target
	}
	if len(f.Regions) > 0 {
		cfg.Regions = append([]string(nil), f.Regions...)
	}
	if f.Refresh.Interval != 0 {
		cfg.Interval = f.Refresh.Interval
	}
	if f.Refresh.Concurrency != 0 {
		cfg.Concurrency = f.Refresh.Concurrency
	}
	if f.Tor.Embedded {
		cfg.UseEmbeddedTor = true
	}
	if f.Tor.Proxy != "" {
		cfg.UseExternalTor = true
		cfg.TorProxyAddress = f.Tor.Proxy
	}
	if f.Tor.StartupTimeout != 0 {
		cfg.TorStartupTimeout = f.Tor.StartupTimeout
	}
	if f.Server.Listen != "" {
		cfg.ListenAddr = f.Server.Listen
	}
	if f.Log.Verbose {
		cfg.Verbose = true
	}
	if f.Log.Format != "" {
		cfg.LogFormat = f.Log.Format
	}
	cfg.Countries = append(cfg.Countries, f.Countries...)
}
