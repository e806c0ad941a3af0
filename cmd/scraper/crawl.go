package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spiralhouse/scraper/internal/cache"
	"github.com/spiralhouse/scraper/internal/config"
	"github.com/spiralhouse/scraper/internal/crawler"
	"github.com/spiralhouse/scraper/internal/fetcher"
	"github.com/spiralhouse/scraper/internal/metrics"
	"github.com/spiralhouse/scraper/internal/parser"
	"github.com/spiralhouse/scraper/internal/report"
	"github.com/spiralhouse/scraper/internal/robots"
	"github.com/spiralhouse/scraper/internal/sink"
	"github.com/spiralhouse/scraper/internal/sitemap"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl URL",
		Short: "Crawl a website starting from URL",
		Long: `Crawl fetches URL, extracts its links and follows them breadth-first up to
the maximum depth. The start page is depth 1.

Only links on the start host are followed by default; subdomains are
included unless --no-subdomains is given, and --allow-external lifts the
domain restriction entirely.

Examples:
  # Crawl three levels deep and print every page
  scraper crawl --print-pages https://example.com

  # Seed from sitemap.xml and store each page as JSON
  scraper crawl --use-sitemap --output-dir pages https://example.com

  # Skip admin pages and PDFs, report as Markdown
  scraper crawl --ignore '/admin/*' --ignore '*.pdf' --report markdown https://example.com

  # Share the cache between machines
  scraper crawl --cache-backend redis --redis-addr cache:6379 https://example.com`,
		Args: cobra.ExactArgs(1),
		RunE: runCrawlCmd,
	}

	f := cmd.Flags()

	// Traversal
	f.IntP("depth", "d", config.DefaultMaxDepth, "Maximum recursion depth")
	f.Bool("allow-external", false, "Allow crawling external domains")
	f.Bool("no-subdomains", false, "Disallow crawling subdomains")
	f.IntP("concurrency", "c", config.DefaultConcurrency, "Maximum concurrent requests")
	f.Int("workers", 0, "Worker pool size (default: twice the concurrency)")
	f.Duration("delay", config.DefaultDelay, "Delay before each request")
	f.Float64("rate-limit", 0, "Maximum requests per second across all workers (0: unlimited)")
	f.Int("max-pages", 0, "Stop after visiting this many URLs (0: unlimited)")
	f.StringSlice("ignore", nil, "Skip links whose path matches this glob pattern (repeatable)")
	f.StringSlice("follow", nil, "Only follow links whose path matches this glob pattern (repeatable)")

	// Requests
	f.String("user-agent", config.DefaultUserAgent, "User-Agent header, also matched against robots.txt")
	f.DurationP("timeout", "t", config.DefaultTimeout, "Timeout for each request")
	f.Int("max-retries", config.DefaultMaxRetries, "Retries on 429, 5xx and transport errors")
	f.String("proxy", "", "Proxy URL (http, https or socks5)")
	f.Bool("ignore-robots", false, "Ignore robots.txt rules")

	// Sitemap
	f.Bool("use-sitemap", false, "Use sitemap.xml for URL discovery")
	f.Int("max-subsitemaps", config.DefaultMaxSubsitemaps, "Maximum number of sub-sitemaps to process")
	f.Duration("sitemap-timeout", config.DefaultSitemapTimeout, "Timeout for sitemap processing")

	addCacheFlags(cmd)
	f.Bool("no-cache", false, "Disable caching")

	// Output
	f.String("output-dir", "", "Directory to save results as JSON files")
	f.Bool("print-pages", false, "Print scraped pages to console")
	f.String("collect-links", "", "Write every link found to this file, one per line")
	f.String("report", config.DefaultReportFormat, "Statistics format: text, json or markdown")
	f.String("report-file", "", "Write statistics to this file instead of stdout")
	f.String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")

	return cmd
}

// addCacheFlags registers the flags selecting the cache store.
func addCacheFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("cache-backend", config.DefaultCacheBackend, "Cache store: sqlite, redis or postgres")
	f.String("cache-dir", config.XDGCacheDir(), "Directory for the sqlite cache")
	f.Duration("cache-expiry", config.DefaultCacheExpiry, "How long cached responses stay fresh")
	f.String("redis-addr", config.DefaultRedisAddr, "Redis address for the redis cache backend")
	f.String("postgres-dsn", "", "Connection string for the postgres cache backend")
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	v, err := newViper(cmd)
	if err != nil {
		return err
	}
	cfg, err := buildConfig(cmd, v)
	if err != nil {
		return err
	}
	cfg.StartURL = args[0]

	if err := cfg.Validate(); err != nil {
		return configError(err)
	}

	logger := setupLogger(cmd, cfg)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runCrawl(ctx, cfg, cmd.OutOrStdout(), logger)
}

// runCrawl wires the collaborators described by cfg, crawls, and writes
// the statistics. Statistics are written for interrupted crawls too.
func runCrawl(ctx context.Context, cfg *config.Config, stdout io.Writer, logger *slog.Logger) (err error) {
	httpFetcher, err := fetcher.New(fetcher.Options{
		UserAgent:   cfg.UserAgent,
		Timeout:     cfg.Timeout,
		MaxRetries:  cfg.MaxRetries,
		Backoff:     cfg.Backoff,
		MaxBodySize: cfg.MaxBodySize,
		ProxyURL:    cfg.ProxyURL,
		Sites: func(host string) (string, map[string]string) {
			site := cfg.SiteFor(host)
			return site.Cookie, site.Headers
		},
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP client: %w", err)
	}
	defer func() {
		err = errors.Join(err, httpFetcher.Close())
	}()

	opts := []crawler.Option{
		crawler.WithMaxDepth(cfg.MaxDepth),
		crawler.WithConcurrency(cfg.Concurrency),
		crawler.WithWorkers(cfg.EffectiveWorkers()),
		crawler.WithDelay(cfg.Delay),
		crawler.WithAllowSubdomains(cfg.AllowSubdomains),
		crawler.WithAllowExternal(cfg.AllowExternal),
		crawler.WithMaxPages(cfg.MaxPages),
		crawler.WithRateLimit(cfg.RateLimit),
		crawler.WithIgnorePatterns(cfg.IgnorePatterns),
		crawler.WithFollowPatterns(cfg.FollowPatterns),
		crawler.WithLogger(logger),
	}

	if cfg.RespectRobots {
		opts = append(opts, crawler.WithRobots(robots.New(httpFetcher, cfg.UserAgent, robots.WithLogger(logger))))
	}
	if cfg.UseSitemap {
		opts = append(opts, crawler.WithSitemap(sitemap.New(httpFetcher,
			sitemap.WithMaxSubsitemaps(cfg.MaxSubsitemaps),
			sitemap.WithTimeout(cfg.SitemapTimeout),
			sitemap.WithLogger(logger),
		)))
	}

	if cfg.UseCache {
		responses := openCache(ctx, cfg, logger)
		defer func() {
			err = errors.Join(err, responses.Close())
		}()
		opts = append(opts, crawler.WithCache(responses))
	}

	pageSink, links, err := buildSinks(cfg, stdout, logger)
	if err != nil {
		return err
	}
	opts = append(opts, crawler.WithSink(pageSink))

	if cfg.MetricsAddr != "" {
		recorder := metrics.NewRecorder()
		opts = append(opts, crawler.WithRecorder(recorder))

		metricsCtx, stopMetrics := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := metrics.NewServer(cfg.MetricsAddr, recorder.Registry(), logger).Serve(metricsCtx); err != nil {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			stopMetrics()
			<-done
		}()
	}

	c := crawler.New(httpFetcher, parser.New(), opts...)

	fmt.Fprintf(stdout, "Starting crawl from %s with max depth %d\n", cfg.StartURL, cfg.MaxDepth)
	stats, crawlErr := c.Crawl(ctx, cfg.StartURL)
	if stats == nil {
		return crawlErr
	}

	if links != nil {
		if err := links.WriteFile(cfg.CollectLinksFile); err != nil {
			return errors.Join(crawlErr, err)
		}
		logger.Info("links written", "path", cfg.CollectLinksFile, "links", links.Len())
	}

	if err := writeReport(cfg, stats, stdout); err != nil {
		return errors.Join(crawlErr, err)
	}
	return crawlErr
}

// openCache opens the response cache. A store that cannot be opened
// degrades the cache to memory only.
func openCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) *cache.Cache {
	return cache.New(
		cache.WithExpiry(cfg.CacheExpiry),
		cache.WithLogger(logger),
		cache.WithStore(func() (cache.Store, error) {
			return cache.OpenStore(ctx, storeConfig(cfg))
		}),
	)
}

func storeConfig(cfg *config.Config) cache.StoreConfig {
	return cache.StoreConfig{
		Backend:     cfg.CacheBackend,
		Dir:         cfg.CacheDir,
		RedisAddr:   cfg.RedisAddr,
		PostgresDSN: cfg.PostgresDSN,
	}
}

// buildSinks creates the page sinks enabled in cfg. links is non-nil when
// link collection is enabled.
func buildSinks(cfg *config.Config, stdout io.Writer, logger *slog.Logger) (crawler.Sink, *sink.LinkCollector, error) {
	var sinks []crawler.Sink
	if cfg.PrintPages {
		sinks = append(sinks, sink.NewConsole(stdout))
	}
	if cfg.OutputDir != "" {
		w, err := sink.NewJSONWriter(cfg.OutputDir, logger)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, w)
	}

	var links *sink.LinkCollector
	if cfg.CollectLinksFile != "" {
		links = sink.NewLinkCollector()
		sinks = append(sinks, links)
	}
	return sink.Multi(sinks...), links, nil
}

// writeReport writes stats in the configured format to the report file or
// to stdout.
func writeReport(cfg *config.Config, stats *crawler.Stats, stdout io.Writer) error {
	output := stdout
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create report directory: %w", err)
			}
		}
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()
		output = f
	}

	w, err := report.New(cfg.ReportFormat, output, getVersion())
	if err != nil {
		return err
	}
	if _, err := w.Write(stats); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
