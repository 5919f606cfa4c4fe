package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/ransomwatch/internal/model"
)

// TestNewConfig documents the defaults; a failure here means a default
// changed.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	if cfg.BaseURL != "https://api.ransomware.live/v2" {
		t.Errorf("expected ransomware.live base URL, got %q", cfg.BaseURL)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("expected Timeout 30s, got %v", cfg.Timeout)
	}
	if cfg.Target != "EG" {
		t.Errorf("expected Target EG, got %q", cfg.Target)
	}
	if want := []string{"SA", "AE", "KW", "OM", "QA", "BH"}; !slices.Equal(cfg.Regions, want) {
		t.Errorf("expected Regions %v, got %v", want, cfg.Regions)
	}
	if cfg.Interval != 5*time.Minute {
		t.Errorf("expected Interval 5m, got %v", cfg.Interval)
	}
	if cfg.Concurrency != 0 {
		t.Errorf("expected unlimited concurrency, got %d", cfg.Concurrency)
	}
	if cfg.TorProxyAddress != "127.0.0.1:9050" {
		t.Errorf("expected TorProxyAddress 127.0.0.1:9050, got %q", cfg.TorProxyAddress)
	}
	if cfg.Transport() != TransportDirect {
		t.Errorf("expected direct transport, got %s", cfg.Transport())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"defaults", func(*Config) {}, nil},
		{"relative base URL", func(c *Config) { c.BaseURL = "/v2" }, ErrInvalidBaseURL},
		{"ftp base URL", func(c *Config) { c.BaseURL = "ftp://api.example.com" }, ErrInvalidBaseURL},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, ErrInvalidTimeout},
		{"negative interval", func(c *Config) { c.Interval = -time.Second }, ErrInvalidInterval},
		{"negative concurrency", func(c *Config) { c.Concurrency = -1 }, ErrInvalidConcurrency},
		{"negative body size", func(c *Config) { c.MaxBodySize = -1 }, ErrInvalidMaxBodySize},
		{"unknown target", func(c *Config) { c.Target = "JO" }, ErrUnknownTarget},
		{"lower-case target", func(c *Config) { c.Target = "sa" }, nil},
		{"configured target", func(c *Config) {
			c.Target = "JO"
			c.Countries = []model.Country{{Code: "JO", Alpha3: "JOR", Name: "Jordan", TLD: "jo"}}
		}, nil},
		{"country without name", func(c *Config) {
			c.Countries = []model.Country{{Code: "JO"}}
		}, ErrInvalidCountry},
		{"country with long code", func(c *Config) {
			c.Countries = []model.Country{{Code: "JOR", Name: "Jordan"}}
		}, ErrInvalidCountry},
		{"bad region", func(c *Config) { c.Regions = []string{"SA", "U1"} }, ErrInvalidRegion},
		{"blank region ignored", func(c *Config) { c.Regions = []string{"SA", " "} }, nil},
		{"no regions", func(c *Config) { c.Regions = nil }, nil},
		{"both report formats", func(c *Config) {
			c.JSONReport = true
			c.MarkdownReport = true
		}, ErrConflictingReportFormats},
		{"both tor modes", func(c *Config) {
			c.UseEmbeddedTor = true
			c.UseExternalTor = true
		}, ErrConflictingTorModes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestConfigTransport(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	cfg.UseExternalTor = true
	if cfg.Transport() != TransportExternalTor {
		t.Errorf("expected external-tor, got %s", cfg.Transport())
	}

	cfg = NewConfig()
	cfg.UseEmbeddedTor = true
	if cfg.Transport() != TransportEmbeddedTor {
		t.Errorf("expected embedded-tor, got %s", cfg.Transport())
	}
}

func TestConfigCatalogue(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	cfg.Countries = []model.Country{
		{Code: "jo", Alpha3: "JOR", Name: "Jordan", TLD: "jo"},
		{Code: "EG", Alpha3: "EGY", Name: "Egypt", DisplayName: "Arab Republic of Egypt", TLD: "eg"},
	}

	cat := cfg.Catalogue()
	if _, err := cat.Lookup("JO"); err != nil {
		t.Errorf("expected JO in catalogue: %v", err)
	}
	eg, err := cat.Lookup("EG")
	if err != nil {
		t.Fatal(err)
	}
	if eg.Label() != "Arab Republic of Egypt" {
		t.Errorf("expected configured EG to override, got %q", eg.Label())
	}
	if _, err := model.DefaultCatalogue().Lookup("JO"); err == nil {
		t.Error("expected the default catalogue to be left untouched")
	}
}

func TestRegionCodes(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	cfg.Regions = []string{" sa", "", "Ae "}
	if got := cfg.RegionCodes(); !slices.Equal(got, []string{"SA", "AE"}) {
		t.Errorf("expected [SA AE], got %v", got)
	}
}

func TestFileApply(t *testing.T) {
	t.Parallel()

	t.Run("overlays non-zero values", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		file := &File{
			Feed:    FeedSection{BaseURL: "https://mirror.example/v2", Timeout: 10 * time.Second},
			Target:  "SA",
			Regions: []string{"AE"},
			Refresh: RefreshSection{Interval: 15 * time.Minute, Concurrency: 2},
			Tor:     TorSection{Proxy: "127.0.0.1:9150"},
			Server:  ServerSection{Listen: ":9000"},
			Log:     LogSection{Verbose: true, Format: "json"},
		}
		file.Apply(cfg)

		if cfg.BaseURL != "https://mirror.example/v2" || cfg.Timeout != 10*time.Second {
			t.Errorf("feed section not applied: %q %v", cfg.BaseURL, cfg.Timeout)
		}
		if cfg.Target != "SA" || !slices.Equal(cfg.Regions, []string{"AE"}) {
			t.Errorf("target/regions not applied: %q %v", cfg.Target, cfg.Regions)
		}
		if cfg.Interval != 15*time.Minute || cfg.Concurrency != 2 {
			t.Errorf("refresh section not applied: %v %d", cfg.Interval, cfg.Concurrency)
		}
		if cfg.Transport() != TransportExternalTor || cfg.TorProxyAddress != "127.0.0.1:9150" {
			t.Errorf("tor section not applied: %s %q", cfg.Transport(), cfg.TorProxyAddress)
		}
		if cfg.ListenAddr != ":9000" || !cfg.Verbose || cfg.LogFormat != "json" {
			t.Errorf("server/log sections not applied: %q %v %q", cfg.ListenAddr, cfg.Verbose, cfg.LogFormat)
		}
	})

	t.Run("empty file keeps defaults", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		(&File{}).Apply(cfg)

		defaults := NewConfig()
		if cfg.BaseURL != defaults.BaseURL || cfg.Target != defaults.Target ||
			cfg.Interval != defaults.Interval || !slices.Equal(cfg.Regions, defaults.Regions) {
			t.Errorf("expected defaults to be kept, got %+v", cfg)
		}
	})
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	write := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "ransomwatch.yaml")
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		return path
	}

	t.Run("parses all sections", func(t *testing.T) {
		t.Parallel()

		path := write(t, `
feed:
  baseURL: https://mirror.example/v2
  timeout: 45s
target: JO
regions: [SA, QA]
refresh:
  interval: 10m
tor:
  embedded: true
  startupTimeout: 5m
countries:
  - code: JO
    alpha3: JOR
    name: Jordan
    tld: jo
`)
		file, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if file.Feed.Timeout != 45*time.Second {
			t.Errorf("expected 45s timeout, got %v", file.Feed.Timeout)
		}
		if file.Refresh.Interval != 10*time.Minute {
			t.Errorf("expected 10m interval, got %v", file.Refresh.Interval)
		}
		if !file.Tor.Embedded || file.Tor.StartupTimeout != 5*time.Minute {
			t.Errorf("unexpected tor section: %+v", file.Tor)
		}
		if len(file.Countries) != 1 || file.Countries[0].Name != "Jordan" {
			t.Errorf("unexpected countries: %+v", file.Countries)
		}

		cfg := NewConfig()
		file.Apply(cfg)
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected loaded config to validate, got %v", err)
		}
	})

	t.Run("empty file", func(t *testing.T) {
		t.Parallel()

		file, err := LoadConfigFile(write(t, ""))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if file.Target != "" {
			t.Errorf("expected empty file, got %+v", file)
		}
	})

	t.Run("unknown key", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(write(t, "targett: EG\n"))
		if err == nil || !strings.Contains(err.Error(), "targett") {
			t.Errorf("expected unknown field error, got %v", err)
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		t.Parallel()

		if _, err := LoadConfigFile(write(t, "regions: [SA\n")); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})
}

func TestFindConfigFile(t *testing.T) {
	t.Run("returns explicit path if exists", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("target: EG\n"), 0o600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if result := FindConfigFile(configPath); result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		if result := FindConfigFile("/nonexistent/path/config.yaml"); result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})

	t.Run("prefers the current directory", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)
		t.Setenv("HOME", t.TempDir())

		want := filepath.Join(dir, DefaultConfigFile)
		if err := os.WriteFile(want, []byte("target: SA\n"), 0o600); err != nil {
			t.Fatal(err)
		}

		got := FindConfigFile("")
		// macOS temp dirs may be reached through a symlink.
		if filepath.Base(got) != DefaultConfigFile || filepath.Base(filepath.Dir(got)) != filepath.Base(dir) {
			t.Errorf("expected %q, got %q", want, got)
		}
	})
}

func TestLoad(t *testing.T) {
	t.Run("explicit missing file is an error", func(t *testing.T) {
		cfg := NewConfig()
		cfg.ConfigFilePath = filepath.Join(t.TempDir(), "missing.yaml")

		if _, err := Load(cfg); !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("applies explicit file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, []byte("target: KW\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		cfg := NewConfig()
		cfg.ConfigFilePath = path

		got, err := Load(cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != path || cfg.Target != "KW" {
			t.Errorf("expected %q applied with target KW, got %q and %q", path, got, cfg.Target)
		}
	})

	t.Run("bad file is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(path, []byte("nope: 1\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		cfg := NewConfig()
		cfg.ConfigFilePath = path

		if _, err := Load(cfg); err == nil {
			t.Error("expected error for unknown key")
		}
	})
}

func TestXDGConfigDir(t *testing.T) {
	t.Parallel()

	if dir := XDGConfigDir(); filepath.Base(dir) != AppName {
		t.Errorf("expected dir ending in %q, got %q", AppName, dir)
	}
}
