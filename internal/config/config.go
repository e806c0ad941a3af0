package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "scraper"

	// DefaultMaxDepth is the maximum crawl depth. The start page is depth 1.
	DefaultMaxDepth = 3

	// DefaultConcurrency is the number of fetches allowed in flight at once.
	DefaultConcurrency = 10

	// DefaultDelay is the politeness delay before each network fetch.
	// A robots.txt Crawl-delay larger than this wins.
	DefaultDelay = 100 * time.Millisecond

	// DefaultTimeout is the per-request timeout of the HTTP client.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is how many times a request is retried on a
	// retryable status or a transport error.
	DefaultMaxRetries = 3

	// DefaultBackoff is the base of the exponential retry backoff.
	DefaultBackoff = 300 * time.Millisecond

	// DefaultMaxBodySize limits how much of a response body is read.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultUserAgent identifies the crawler in HTTP requests and is the
	// agent matched against robots.txt groups.
	DefaultUserAgent = "ScraperBot (https://github.com/spiralhouse/scraper)"

	// DefaultMaxSubsitemaps is how many sub-sitemaps of a sitemap index are fetched.
	DefaultMaxSubsitemaps = 5

	// DefaultSitemapTimeout bounds the whole sitemap discovery.
	DefaultSitemapTimeout = 30 * time.Second

	// DefaultCacheExpiry is how long a cached response stays fresh.
	DefaultCacheExpiry = 24 * time.Hour

	// DefaultCacheBackend is the persistent cache tier used when caching is enabled.
	DefaultCacheBackend = CacheBackendSQLite

	// DefaultRedisAddr is the address used by the redis cache backend.
	DefaultRedisAddr = "127.0.0.1:6379"

	// DefaultReportFormat is the format of the statistics summary.
	DefaultReportFormat = ReportFormatText
)

// Cache backends.
const (
	CacheBackendSQLite   = "sqlite"
	CacheBackendRedis    = "redis"
	CacheBackendPostgres = "postgres"
)

// Report formats.
const (
	ReportFormatText     = "text"
	ReportFormatJSON     = "json"
	ReportFormatMarkdown = "markdown"
)

// Config holds all configuration options for a crawl.
// It is populated from defaults, the config file, the environment and CLI
// flags, and then passed down explicitly rather than kept as global state.
type Config struct {
	// StartURL is the seed URL of the crawl. Its host is the base domain.
	StartURL string

	// MaxDepth is the maximum traversal depth. The start URL is depth 1.
	MaxDepth int

	// AllowSubdomains admits hosts ending in "." + base domain.
	AllowSubdomains bool

	// AllowExternal admits any host.
	AllowExternal bool

	// Concurrency is the number of simultaneous network fetches.
	Concurrency int

	// Workers is the size of the worker pool draining the frontier.
	// Zero means twice Concurrency.
	Workers int

	// Delay is waited before every network fetch.
	Delay time.Duration

	// RateLimit caps requests per second across all workers. Zero disables it.
	RateLimit float64

	// MaxPages stops dispatching new URLs after this many. Zero means unlimited.
	MaxPages int

	// IgnorePatterns are glob patterns of URL paths never followed.
	IgnorePatterns []string

	// FollowPatterns restrict followed links to matching URL paths when set.
	FollowPatterns []string

	// UserAgent is sent with every request and matched against robots.txt.
	UserAgent string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// MaxRetries is the number of retries for retryable responses.
	MaxRetries int

	// Backoff is the base delay of the exponential retry backoff.
	Backoff time.Duration

	// MaxBodySize is the maximum number of body bytes read per response.
	MaxBodySize int64

	// ProxyURL routes requests through an http, https or socks5 proxy.
	ProxyURL string

	// RespectRobots enables the robots.txt policy.
	RespectRobots bool

	// UseSitemap seeds the crawl with URLs from /sitemap.xml.
	UseSitemap bool

	// MaxSubsitemaps is the number of sub-sitemaps fetched from a sitemap index.
	MaxSubsitemaps int

	// SitemapTimeout bounds the whole sitemap discovery.
	SitemapTimeout time.Duration

	// UseCache enables the response cache.
	UseCache bool

	// CacheBackend selects the persistent cache tier.
	CacheBackend string

	// CacheDir is the directory of the sqlite cache database.
	// Defaults to the XDG cache directory.
	CacheDir string

	// CacheExpiry is how long cached responses stay fresh.
	CacheExpiry time.Duration

	// RedisAddr is the address of the redis cache backend.
	RedisAddr string

	// PostgresDSN is the connection string of the postgres cache backend.
	PostgresDSN string

	// OutputDir receives one JSON file per crawled page when set.
	OutputDir string

	// PrintPages prints every crawled page to stdout.
	PrintPages bool

	// CollectLinksFile receives every discovered link, one per line, when set.
	CollectLinksFile string

	// ReportFormat is the format of the statistics summary.
	ReportFormat string

	// ReportFile receives the statistics summary instead of stdout when set.
	ReportFile string

	// MetricsAddr serves Prometheus metrics on this address when set.
	MetricsAddr string

	// Verbose enables debug logging.
	Verbose bool

	// JSONLog switches the log output to JSON.
	JSONLog bool

	// ConfigFilePath is the explicit config file path. When empty,
	// .scraper.yaml is searched in the working directory and then home.
	ConfigFilePath string

	// Sites holds per-host request settings loaded from the config file.
	Sites map[string]SiteConfig
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		MaxDepth:        DefaultMaxDepth,
		AllowSubdomains: true,
		Concurrency:     DefaultConcurrency,
		Delay:           DefaultDelay,
		UserAgent:       DefaultUserAgent,
		Timeout:         DefaultTimeout,
		MaxRetries:      DefaultMaxRetries,
		Backoff:         DefaultBackoff,
		MaxBodySize:     DefaultMaxBodySize,
		RespectRobots:   true,
		MaxSubsitemaps:  DefaultMaxSubsitemaps,
		SitemapTimeout:  DefaultSitemapTimeout,
		UseCache:        true,
		CacheBackend:    DefaultCacheBackend,
		CacheDir:        XDGCacheDir(),
		CacheExpiry:     DefaultCacheExpiry,
		RedisAddr:       DefaultRedisAddr,
		ReportFormat:    DefaultReportFormat,
	}
}

// EffectiveWorkers returns the worker pool size, applying the default of
// twice the concurrency limit.
func (c *Config) EffectiveWorkers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return 2 * c.Concurrency
}

// XDGConfigDir returns the XDG config directory for scraper.
// On Linux: ~/.config/scraper
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for scraper.
// On Linux: ~/.cache/scraper
// On macOS: ~/Library/Caches/scraper
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	if c.StartURL == "" {
		return ErrNoStartURL
	}
	u, err := url.Parse(c.StartURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidStartURL
	}

	if err := c.ValidateCrawl(); err != nil {
		return err
	}
	return c.ValidateCache()
}

// ValidateCrawl checks the crawl limits and politeness settings.
func (c *Config) ValidateCrawl() error {
	switch {
	case c.MaxDepth < 1:
		return ErrInvalidDepth
	case c.Concurrency <= 0:
		return ErrInvalidConcurrency
	case c.Workers < 0:
		return ErrInvalidWorkers
	case c.Delay < 0:
		return ErrInvalidDelay
	case c.RateLimit < 0:
		return ErrInvalidRateLimit
	case c.MaxPages < 0:
		return ErrInvalidMaxPages
	case c.Timeout <= 0:
		return ErrInvalidTimeout
	case c.MaxSubsitemaps < 1:
		return ErrInvalidMaxSubsitemaps
	case c.SitemapTimeout <= 0:
		return ErrInvalidSitemapTimeout
	}

	switch c.ReportFormat {
	case ReportFormatText, ReportFormatJSON, ReportFormatMarkdown:
	default:
		return ErrUnknownReportFormat
	}
	return nil
}

// ValidateCache checks the cache settings. It is also used by the cache
// maintenance commands, which take no start URL.
func (c *Config) ValidateCache() error {
	if c.CacheExpiry <= 0 {
		return ErrInvalidCacheExpiry
	}
	switch c.CacheBackend {
	case CacheBackendSQLite, CacheBackendRedis:
	case CacheBackendPostgres:
		if c.PostgresDSN == "" {
			return ErrMissingPostgresDSN
		}
	default:
		return ErrUnknownCacheBackend
	}
	return nil
}
