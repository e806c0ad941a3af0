package robots

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/sync/singleflight"

	"github.com/spiralhouse/scraper/internal/fetcher"
)

// Fetcher retrieves robots.txt documents.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetcher.Response, error)
}

// ruleset is the memoized outcome for one host. data is nil when the fetch failed.
type ruleset struct {
	data *robotstxt.RobotsData
}

func (r *ruleset) failed() bool {
	return r.data == nil
}

// Policy enforces robots.txt rules for one user agent.
// It is safe for concurrent use.
type Policy struct {
	fetcher      Fetcher
	userAgent    string
	defaultDelay time.Duration
	logger       *slog.Logger

	// mu guards rules.
	mu    sync.Mutex
	rules map[string]*ruleset

	// flights collapses concurrent first queries for the same host.
	flights singleflight.Group
}

// Option configures a Policy.
type Option func(*Policy)

// WithDefaultDelay sets the delay returned when robots.txt declares none.
func WithDefaultDelay(d time.Duration) Option {
	return func(p *Policy) {
		if d >= 0 {
			p.defaultDelay = d
		}
	}
}

// WithLogger sets the logger for fetch failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Policy) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a Policy that fetches robots.txt through f and matches
// groups against userAgent.
func New(f Fetcher, userAgent string, opts ...Option) *Policy {
	p := &Policy{
		fetcher:   f,
		userAgent: userAgent,
		logger:    slog.New(slog.DiscardHandler),
		rules:     make(map[string]*ruleset),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Allowed reports whether the user agent may fetch rawURL. URLs that cannot
// be parsed, and hosts whose robots.txt could not be fetched, are allowed.
func (p *Policy) Allowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true
	}

	rs := p.ruleset(ctx, u)
	if rs.failed() {
		return true
	}
	return rs.data.TestAgent(u.RequestURI(), p.userAgent)
}

// CrawlDelay returns the Crawl-delay declared for the user agent on
// rawURL's host, or the default delay when none is declared or the fetch failed.
func (p *Policy) CrawlDelay(ctx context.Context, rawURL string) time.Duration {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return p.defaultDelay
	}

	rs := p.ruleset(ctx, u)
	if rs.failed() {
		return p.defaultDelay
	}
	group := rs.data.FindGroup(p.userAgent)
	if group == nil || group.CrawlDelay <= 0 {
		return p.defaultDelay
	}
	return group.CrawlDelay
}

// Known reports whether a ruleset or failure marker is cached for host.
func (p *Policy) Known(host string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.rules[strings.ToLower(host)]
	return ok
}

func (p *Policy) ruleset(ctx context.Context, u *url.URL) *ruleset {
	host := strings.ToLower(u.Host)

	p.mu.Lock()
	rs, ok := p.rules[host]
	p.mu.Unlock()
	if ok {
		return rs
	}

	v, _, _ := p.flights.Do(host, func() (any, error) {
		p.mu.Lock()
		if rs, ok := p.rules[host]; ok {
			p.mu.Unlock()
			return rs, nil
		}
		p.mu.Unlock()

		rs := p.fetch(ctx, u.Scheme, host)
		// A crawl being torn down is not a verdict on the host.
		if ctx.Err() == nil {
			p.mu.Lock()
			p.rules[host] = rs
			p.mu.Unlock()
		}
		return rs, nil
	})
	return v.(*ruleset)
}

func (p *Policy) fetch(ctx context.Context, scheme, host string) *ruleset {
	robotsURL := RobotsURL(scheme, host)

	resp, err := p.fetcher.Fetch(ctx, robotsURL)
	if err != nil {
		p.logger.Warn("robots.txt fetch failed, allowing all", "url", robotsURL, "error", err)
		return &ruleset{}
	}

	switch resp.StatusCode {
	case http.StatusOK:
		data, err := robotstxt.FromString(resp.Content)
		if err != nil {
			p.logger.Warn("robots.txt parse failed, allowing all", "url", robotsURL, "error", err)
			return &ruleset{}
		}
		return &ruleset{data: data}
	case http.StatusNotFound:
		data, _ := robotstxt.FromStatusAndString(http.StatusNotFound, "") //nolint:errcheck // 4xx never fails
		return &ruleset{data: data}
	default:
		p.logger.Warn("robots.txt unexpected status, allowing all", "url", robotsURL, "status", resp.StatusCode)
		return &ruleset{}
	}
}

// RobotsURL returns scheme://host/robots.txt.
func RobotsURL(scheme, host string) string {
	return scheme + "://" + host + "/robots.txt"
}

// AllowAll is the policy used when robots.txt is ignored.
type AllowAll struct{}

// Allowed always returns true.
func (AllowAll) Allowed(context.Context, string) bool { return true }

// CrawlDelay always returns zero.
func (AllowAll) CrawlDelay(context.Context, string) time.Duration { return 0 }
