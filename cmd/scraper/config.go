package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spiralhouse/scraper/internal/config"
	"github.com/spiralhouse/scraper/internal/log"
)

// buildConfig resolves the configuration in increasing precedence:
// defaults, config file, environment, command-line flags.
func buildConfig(cmd *cobra.Command, v *viper.Viper) (*config.Config, error) {
	cfg := config.NewConfig()

	cfg.ConfigFilePath = v.GetString("config")
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.Apply(cfg)
	case explicitConfigPath:
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	applyFlags(cmd, v, cfg)
	return cfg, nil
}

// applyFlags copies every flag of cmd that was set on the command line or
// in the environment into cfg. Flags the command does not define are skipped.
func applyFlags(cmd *cobra.Command, v *viper.Viper, cfg *config.Config) {
	set := func(name string, apply func(key string)) {
		if cmd.Flags().Lookup(name) != nil && v.IsSet(name) {
			apply(name)
		}
	}

	set("depth", func(k string) { cfg.MaxDepth = v.GetInt(k) })
	set("allow-external", func(k string) { cfg.AllowExternal = v.GetBool(k) })
	set("no-subdomains", func(k string) { cfg.AllowSubdomains = !v.GetBool(k) })
	set("concurrency", func(k string) { cfg.Concurrency = v.GetInt(k) })
	set("workers", func(k string) { cfg.Workers = v.GetInt(k) })
	set("delay", func(k string) { cfg.Delay = v.GetDuration(k) })
	set("rate-limit", func(k string) { cfg.RateLimit = v.GetFloat64(k) })
	set("max-pages", func(k string) { cfg.MaxPages = v.GetInt(k) })
	set("ignore", func(k string) { cfg.IgnorePatterns = v.GetStringSlice(k) })
	set("follow", func(k string) { cfg.FollowPatterns = v.GetStringSlice(k) })
	set("user-agent", func(k string) { cfg.UserAgent = v.GetString(k) })
	set("timeout", func(k string) { cfg.Timeout = v.GetDuration(k) })
	set("max-retries", func(k string) { cfg.MaxRetries = v.GetInt(k) })
	set("proxy", func(k string) { cfg.ProxyURL = v.GetString(k) })
	set("ignore-robots", func(k string) { cfg.RespectRobots = !v.GetBool(k) })

	set("use-sitemap", func(k string) { cfg.UseSitemap = v.GetBool(k) })
	set("max-subsitemaps", func(k string) { cfg.MaxSubsitemaps = v.GetInt(k) })
	set("sitemap-timeout", func(k string) { cfg.SitemapTimeout = v.GetDuration(k) })

	set("no-cache", func(k string) { cfg.UseCache = !v.GetBool(k) })
	set("cache-backend", func(k string) { cfg.CacheBackend = v.GetString(k) })
	set("cache-dir", func(k string) { cfg.CacheDir = v.GetString(k) })
	set("cache-expiry", func(k string) { cfg.CacheExpiry = v.GetDuration(k) })
	set("redis-addr", func(k string) { cfg.RedisAddr = v.GetString(k) })
	set("postgres-dsn", func(k string) { cfg.PostgresDSN = v.GetString(k) })

	set("output-dir", func(k string) { cfg.OutputDir = v.GetString(k) })
	set("print-pages", func(k string) { cfg.PrintPages = v.GetBool(k) })
	set("collect-links", func(k string) { cfg.CollectLinksFile = v.GetString(k) })
	set("report", func(k string) { cfg.ReportFormat = v.GetString(k) })
	set("report-file", func(k string) { cfg.ReportFile = v.GetString(k) })
	set("metrics-addr", func(k string) { cfg.MetricsAddr = v.GetString(k) })

	set("verbose", func(k string) { cfg.Verbose = v.GetBool(k) })
	set("json-log", func(k string) { cfg.JSONLog = v.GetBool(k) })
}

// setupLogger creates the structured logger for cfg and installs it as the
// default logger.
func setupLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	logger := log.NewLogger(cmd.ErrOrStderr(), log.Options{Verbose: cfg.Verbose, JSON: cfg.JSONLog})
	slog.SetDefault(logger)
	return logger
}

// errConfig marks configuration errors for a consistent message prefix.
var errConfig = errors.New("configuration error")

func configError(err error) error {
	return fmt.Errorf("%w: %w", errConfig, err)
}

// fileExists reports whether path names an existing file.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
