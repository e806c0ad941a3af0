package crawler

import (
	"log/slog"
	"time"
)

// Default option values.
const (
	DefaultMaxDepth    = 3
	DefaultConcurrency = 10
	DefaultDelay       = 100 * time.Millisecond
)

// Option configures a Crawler.
type Option func(*Crawler)

// WithMaxDepth sets the deepest level crawled. Seeds are depth 1, so a
// max depth of 1 crawls only the seeds.
func WithMaxDepth(depth int) Option {
	return func(c *Crawler) {
		if depth > 0 {
			c.maxDepth = depth
		}
	}
}

// WithConcurrency sets how many fetches may be in flight at once.
func WithConcurrency(n int) Option {
	return func(c *Crawler) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithWorkers sets the size of the worker pool. The default is twice the
// concurrency.
func WithWorkers(n int) Option {
	return func(c *Crawler) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithDelay sets the minimum wait before each network fetch.
func WithDelay(d time.Duration) Option {
	return func(c *Crawler) {
		if d >= 0 {
			c.delay = d
		}
	}
}

// WithAllowSubdomains admits subdomains of the start host.
func WithAllowSubdomains(allow bool) Option {
	return func(c *Crawler) {
		c.allowSubdomains = allow
	}
}

// WithAllowExternal admits every host.
func WithAllowExternal(allow bool) Option {
	return func(c *Crawler) {
		c.allowExternal = allow
	}
}

// WithMaxPages stops dispatching after n URLs have been visited.
// Zero means no limit.
func WithMaxPages(n int) Option {
	return func(c *Crawler) {
		if n >= 0 {
			c.maxPages = n
		}
	}
}

// WithRateLimit caps network fetches per second across all workers.
// Zero disables the limit.
func WithRateLimit(perSecond float64) Option {
	return func(c *Crawler) {
		if perSecond >= 0 {
			c.rateLimit = perSecond
		}
	}
}

// WithIgnorePatterns skips discovered links whose path matches any glob
// pattern, e.g. "/admin/*" or "*.pdf".
func WithIgnorePatterns(patterns []string) Option {
	return func(c *Crawler) {
		c.filter.ignore = patterns
	}
}

// WithFollowPatterns restricts discovered links to paths matching at least
// one glob pattern. Ignore patterns still take precedence.
func WithFollowPatterns(patterns []string) Option {
	return func(c *Crawler) {
		c.filter.follow = patterns
	}
}

// WithCache sets the response cache.
func WithCache(rc ResponseCache) Option {
	return func(c *Crawler) {
		if rc != nil {
			c.cache = rc
		}
	}
}

// WithRobots sets the robots.txt policy.
func WithRobots(p RobotsPolicy) Option {
	return func(c *Crawler) {
		if p != nil {
			c.robots = p
		}
	}
}

// WithSitemap sets the sitemap discoverer and enables sitemap seeding.
func WithSitemap(d SitemapDiscoverer) Option {
	return func(c *Crawler) {
		if d != nil {
			c.sitemap = d
			c.useSitemap = true
		}
	}
}

// WithSitemapSeeding turns sitemap seeding on or off without replacing
// the discoverer.
func WithSitemapSeeding(enabled bool) Option {
	return func(c *Crawler) {
		c.useSitemap = enabled
	}
}

// WithSink sets the page sink.
func WithSink(s Sink) Option {
	return func(c *Crawler) {
		if s != nil {
			c.sink = s
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Crawler) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		if logger != nil {
			c.logger = logger
		}
	}
}
