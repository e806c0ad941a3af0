package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// envPrefix prefixes the environment variables that override flags,
// e.g. SCRAPER_DEPTH or SCRAPER_CACHE_BACKEND.
const envPrefix = "SCRAPER"

// exitInterrupted is the exit code of a crawl stopped by SIGINT or SIGTERM.
const exitInterrupted = 130

// NewRootCmd creates the root command for scraper.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scraper",
		Short: "Web crawler that recursively follows links from a starting URL",
		Long: `scraper crawls a website from a start URL and follows the links it finds,
staying within the start domain (and its subdomains) up to a maximum depth.

It honors robots.txt rules and Crawl-delay, can seed the crawl from the
site's sitemap.xml, and caches successful responses so repeated crawls
skip pages fetched recently.

Every flag can also be set in .scraper.yaml or through an environment
variable named SCRAPER_<FLAG>, e.g. SCRAPER_DEPTH=5.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("json-log", false, "Write logs as JSON")
	cmd.PersistentFlags().String("config", "",
		"Configuration file path (default: .scraper.yaml in current or home directory)")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewCacheCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewTestSiteCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "\nCrawling interrupted by user.")
			os.Exit(exitInterrupted)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newViper returns a viper instance bound to the flags of cmd, so a flag
// value resolves from the command line first and then the environment.
func newViper(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}
	return v, nil
}
