package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/ransomwatch/internal/config"
	"github.com/nao1215/ransomwatch/internal/feed"
)

// NewRootCmd creates the root command for ransomwatch.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ransomwatch",
		Short: "Ransomware threat intelligence for Egypt and the GCC",
		Long: `ransomwatch aggregates ransomware threat intelligence from the ransomware.live feed.

Each refresh reads the recent victims and recent attacks feeds, keeps the
records relevant to the target country, merges them with the country's
dedicated feed and collects victims from the six GCC states.

Feed traffic goes direct by default. Use --external-tor to route it through
an existing Tor SOCKS5 proxy, or --tor to start an embedded Tor daemon.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.BoolP("verbose", "v", false, "Enable verbose logging")
	flags.String("log-format", "text", "Log format: text or json")
	flags.StringP("config", "c", "",
		"Configuration file path (default: .ransomwatch in current or home directory)")
	flags.StringP("target", "t", config.DefaultTarget, "Two-letter code of the target country")
	flags.StringSlice("regions", nil, "Regional feed codes (default: SA,AE,KW,OM,QA,BH)")
	flags.String("base-url", feed.DefaultBaseURL, "Feed API base URL")
	flags.Duration("timeout", feed.DefaultTimeout, "Timeout for each feed request")
	flags.StringP("external-tor", "e", "",
		"Route feed traffic through the Tor proxy at this address (e.g., 127.0.0.1:9050)")
	flags.Bool("tor", false, "Route feed traffic through an embedded Tor daemon")
	flags.Duration("tor-timeout", config.NewConfig().TorStartupTimeout, "Timeout for embedded Tor startup")

	cmd.AddCommand(NewFetchCmd())
	cmd.AddCommand(NewWatchCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewClassifyCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
