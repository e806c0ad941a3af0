package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".scraper.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// Duration is a time.Duration that unmarshals from YAML either as a Go
// duration string ("1.5s", "24h") or as a number of seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	value := strings.TrimSpace(node.Value)
	if value == "" {
		*d = 0
		return nil
	}
	if seconds, err := strconv.ParseFloat(value, 64); err == nil {
		*d = Duration(seconds * float64(time.Second))
		return nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// File represents the structure of the .scraper.yaml configuration file.
// Every field is optional; only set fields override the defaults.
type File struct {
	Crawl   CrawlSection          `yaml:"crawl,omitempty"`
	Sitemap SitemapSection        `yaml:"sitemap,omitempty"`
	Cache   CacheSection          `yaml:"cache,omitempty"`
	Output  OutputSection         `yaml:"output,omitempty"`
	Sites   map[string]SiteConfig `yaml:"sites,omitempty"`
}

// CrawlSection configures traversal and request behavior.
type CrawlSection struct {
	Depth           *int      `yaml:"depth,omitempty"`
	Concurrency     *int      `yaml:"concurrency,omitempty"`
	Workers         *int      `yaml:"workers,omitempty"`
	Delay           *Duration `yaml:"delay,omitempty"`
	RateLimit       *float64  `yaml:"rate_limit,omitempty"`
	MaxPages        *int      `yaml:"max_pages,omitempty"`
	Ignore          []string  `yaml:"ignore,omitempty"`
	Follow          []string  `yaml:"follow,omitempty"`
	AllowSubdomains *bool     `yaml:"allow_subdomains,omitempty"`
	AllowExternal   *bool     `yaml:"allow_external,omitempty"`
	RespectRobots   *bool     `yaml:"respect_robots,omitempty"`
	UserAgent       string    `yaml:"user_agent,omitempty"`
	Timeout         *Duration `yaml:"timeout,omitempty"`
	MaxRetries      *int      `yaml:"max_retries,omitempty"`
	Proxy           string    `yaml:"proxy,omitempty"`
}

// SitemapSection configures sitemap seeding.
type SitemapSection struct {
	Enabled        *bool     `yaml:"enabled,omitempty"`
	MaxSubsitemaps *int      `yaml:"max_subsitemaps,omitempty"`
	Timeout        *Duration `yaml:"timeout,omitempty"`
}

// CacheSection configures the response cache.
type CacheSection struct {
	Enabled     *bool     `yaml:"enabled,omitempty"`
	Backend     string    `yaml:"backend,omitempty"`
	Dir         string    `yaml:"dir,omitempty"`
	Expiry      *Duration `yaml:"expiry,omitempty"`
	RedisAddr   string    `yaml:"redis_addr,omitempty"`
	PostgresDSN string    `yaml:"postgres_dsn,omitempty"`
}

// OutputSection configures sinks and reports.
type OutputSection struct {
	Dir          string `yaml:"dir,omitempty"`
	PrintPages   *bool  `yaml:"print_pages,omitempty"`
	CollectLinks string `yaml:"collect_links,omitempty"`
	Report       string `yaml:"report,omitempty"`
	ReportFile   string `yaml:"report_file,omitempty"`
	MetricsAddr  string `yaml:"metrics_addr,omitempty"`
}

// LoadConfigFile loads a YAML configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if cf.Sites == nil {
		cf.Sites = make(map[string]SiteConfig)
	}
	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .scraper.yaml in the current directory
// 3. Look for .scraper.yaml in the user's home directory
// 4. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), "config.yaml"))

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// Apply overlays the values set in the file onto cfg.
func (cf *File) Apply(cfg *Config) {
	c := cf.Crawl
	setInt(&cfg.MaxDepth, c.Depth)
	setInt(&cfg.Concurrency, c.Concurrency)
	setInt(&cfg.Workers, c.Workers)
	setDuration(&cfg.Delay, c.Delay)
	if c.RateLimit != nil {
		cfg.RateLimit = *c.RateLimit
	}
	setInt(&cfg.MaxPages, c.MaxPages)
	if len(c.Ignore) > 0 {
		cfg.IgnorePatterns = c.Ignore
	}
	if len(c.Follow) > 0 {
		cfg.FollowPatterns = c.Follow
	}
	setBool(&cfg.AllowSubdomains, c.AllowSubdomains)
	setBool(&cfg.AllowExternal, c.AllowExternal)
	setBool(&cfg.RespectRobots, c.RespectRobots)
	setString(&cfg.UserAgent, c.UserAgent)
	setDuration(&cfg.Timeout, c.Timeout)
	setInt(&cfg.MaxRetries, c.MaxRetries)
	setString(&cfg.ProxyURL, c.Proxy)

	s := cf.Sitemap
	setBool(&cfg.UseSitemap, s.Enabled)
	setInt(&cfg.MaxSubsitemaps, s.MaxSubsitemaps)
	setDuration(&cfg.SitemapTimeout, s.Timeout)

	k := cf.Cache
	setBool(&cfg.UseCache, k.Enabled)
	setString(&cfg.CacheBackend, k.Backend)
	setString(&cfg.CacheDir, k.Dir)
	setDuration(&cfg.CacheExpiry, k.Expiry)
	setString(&cfg.RedisAddr, k.RedisAddr)
	setString(&cfg.PostgresDSN, k.PostgresDSN)

	o := cf.Output
	setString(&cfg.OutputDir, o.Dir)
	setBool(&cfg.PrintPages, o.PrintPages)
	setString(&cfg.CollectLinksFile, o.CollectLinks)
	setString(&cfg.ReportFormat, o.Report)
	setString(&cfg.ReportFile, o.ReportFile)
	setString(&cfg.MetricsAddr, o.MetricsAddr)

	if len(cf.Sites) > 0 {
		if cfg.Sites == nil {
			cfg.Sites = make(map[string]SiteConfig, len(cf.Sites))
		}
		for host, site := range cf.Sites {
			cfg.Sites[strings.ToLower(host)] = site
		}
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *Duration) {
	if v != nil {
		*dst = time.Duration(*v)
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
