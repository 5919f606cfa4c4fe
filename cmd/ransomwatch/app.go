package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/ransomwatch/internal/config"
	"github.com/nao1215/ransomwatch/internal/feed"
	"github.com/nao1215/ransomwatch/internal/log"
	"github.com/nao1215/ransomwatch/internal/model"
	"github.com/nao1215/ransomwatch/internal/monitor"
	"github.com/nao1215/ransomwatch/internal/pipeline"
	"github.com/nao1215/ransomwatch/internal/tor"
)

// loadConfig builds the configuration from defaults, the config file and
// the flags the user actually set, in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error
	if cfg.ConfigFilePath, err = cmd.Flags().GetString("config"); err != nil {
		return nil, err
	}
	if _, err := config.Load(cfg); err != nil {
		return nil, err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// applyFlags overlays explicitly set flags onto cfg.
// Flags a command does not define are skipped.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	changed := func(name string) bool {
		return flags.Lookup(name) != nil && flags.Changed(name)
	}

	var err error
	if changed("verbose") {
		if cfg.Verbose, err = flags.GetBool("verbose"); err != nil {
			return err
		}
	}
	if changed("log-format") {
		if cfg.LogFormat, err = flags.GetString("log-format"); err != nil {
			return err
		}
	}
	if changed("target") {
		if cfg.Target, err = flags.GetString("target"); err != nil {
			return err
		}
	}
	if changed("regions") {
		if cfg.Regions, err = flags.GetStringSlice("regions"); err != nil {
			return err
		}
	}
	if changed("base-url") {
		if cfg.BaseURL, err = flags.GetString("base-url"); err != nil {
			return err
		}
	}
	if changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return err
		}
	}
	if changed("external-tor") {
		if cfg.TorProxyAddress, err = flags.GetString("external-tor"); err != nil {
			return err
		}
		cfg.UseExternalTor = cfg.TorProxyAddress != ""
	}
	if changed("tor") {
		if cfg.UseEmbeddedTor, err = flags.GetBool("tor"); err != nil {
			return err
		}
	}
	if changed("tor-timeout") {
		if cfg.TorStartupTimeout, err = flags.GetDuration("tor-timeout"); err != nil {
			return err
		}
	}
	if changed("interval") {
		if cfg.Interval, err = flags.GetDuration("interval"); err != nil {
			return err
		}
	}
	if changed("concurrency") {
		if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
			return err
		}
	}
	if changed("listen") {
		if cfg.ListenAddr, err = flags.GetString("listen"); err != nil {
			return err
		}
	}
	if changed("json") {
		if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
			return err
		}
	}
	if changed("markdown") {
		if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
			return err
		}
	}
	if changed("output") {
		if cfg.ReportFile, err = flags.GetString("output"); err != nil {
			return err
		}
	}
	return nil
}

// newLogger creates the secure logger and installs it as the default so
// libraries that log through slog share it.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	format, err := log.ParseFormat(cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	logger := log.New(w, log.Options{Verbose: cfg.Verbose, Format: format})
	slog.SetDefault(logger)
	return logger, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// app holds the components shared by the fetch, watch and serve commands.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	catalogue model.Catalogue
	target    model.Country
	client    *feed.Client
	monitor   *monitor.Monitor

	// embedded is set when feed traffic goes through an embedded daemon.
	embedded *tor.EmbeddedTor
}

// newApp wires the feed client, refresh pipeline and monitor. Close must
// be called to stop an embedded Tor daemon.
func newApp(ctx context.Context, cmd *cobra.Command, cfg *config.Config, observers ...monitor.Observer) (*app, error) {
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:       cfg,
		logger:    logger,
		catalogue: cfg.Catalogue(),
	}
	if a.target, err = cfg.TargetCountry(); err != nil {
		return nil, err
	}

	clientOpts := []feed.Option{
		feed.WithTimeout(cfg.Timeout),
		feed.WithUserAgent(cfg.UserAgent),
		feed.WithMaxBodySize(cfg.MaxBodySize),
		feed.WithLogger(logger),
	}
	torClient, err := a.connectTor(ctx, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	if torClient != nil {
		clientOpts = append(clientOpts, feed.WithHTTPClient(torClient.NewHTTPClient()))
	}

	if a.client, err = feed.NewClient(cfg.BaseURL, clientOpts...); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create feed client: %w", err)
	}

	refresh := pipeline.NewRefresh(a.client, pipeline.RefreshConfig{
		Concurrency: cfg.Concurrency,
		Logger:      logger,
	})

	monitorOpts := []monitor.Option{monitor.WithLogger(logger)}
	for _, o := range observers {
		monitorOpts = append(monitorOpts, monitor.WithObserver(o))
	}
	a.monitor = monitor.New(refresh, a.target, cfg.RegionCodes(), monitorOpts...)

	logger.Debug("ransomwatch configured",
		"target", a.target.Code,
		"regions", cfg.RegionCodes(),
		"url", cfg.BaseURL,
		"transport", cfg.Transport(),
	)
	return a, nil
}

// connectTor returns a verified Tor client for the configured transport,
// or nil for direct traffic.
func (a *app) connectTor(ctx context.Context, status io.Writer) (*tor.Client, error) {
	cfg := a.cfg

	switch cfg.Transport() {
	case config.TransportExternalTor:
		client, err := tor.NewClient(cfg.TorProxyAddress, cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("failed to create Tor client: %w", err)
		}
		if st := client.CheckConnection(ctx); st != tor.ProxyStatusOK {
			return nil, fmt.Errorf("tor proxy check failed: %w (make sure Tor is running at %s)",
				st.Err(), cfg.TorProxyAddress)
		}
		a.logger.Info("Tor proxy connection verified", "address", cfg.TorProxyAddress)
		return client, nil

	case config.TransportEmbeddedTor:
		fmt.Fprintln(status, "Starting embedded Tor daemon...")
		fmt.Fprintln(status, "This may take 1-3 minutes while Tor bootstraps and connects to the network.")

		embedded := tor.NewEmbeddedTor(
			tor.WithStartupTimeout(cfg.TorStartupTimeout),
			tor.WithLogger(a.logger),
		)
		if err := embedded.Start(ctx); err != nil {
			return nil, fmt.Errorf("failed to start embedded Tor: %w", err)
		}
		a.embedded = embedded

		client, err := embedded.NewClient(cfg.Timeout)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create Tor client: %w", err)
		}
		if st := client.CheckConnection(ctx); st != tor.ProxyStatusOK {
			a.Close()
			return nil, fmt.Errorf("embedded Tor proxy check failed: %w", st.Err())
		}
		return client, nil

	default:
		return nil, nil //nolint:nilnil // direct traffic needs no proxy
	}
}

// Close stops the embedded Tor daemon, if any.
func (a *app) Close() {
	if a.embedded == nil {
		return
	}
	if err := a.embedded.Stop(); err != nil {
		a.logger.Error("failed to stop embedded Tor", "error", err)
	}
	a.embedded = nil
}
