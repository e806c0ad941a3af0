package sitemap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spiralhouse/scraper/internal/fetcher"
)

// Default option values.
const (
	DefaultMaxSubsitemaps = 5
	DefaultTimeout        = 30 * time.Second
)

// Fetcher retrieves sitemap documents.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetcher.Response, error)
}

// Discovery expands a domain's sitemap into a set of URLs.
// It is safe for concurrent use.
type Discovery struct {
	fetcher        Fetcher
	maxSubsitemaps int
	timeout        time.Duration
	logger         *slog.Logger
}

// Option configures a Discovery.
type Option func(*Discovery)

// WithMaxSubsitemaps caps how many child sitemaps of an index are fetched.
func WithMaxSubsitemaps(n int) Option {
	return func(d *Discovery) {
		if n > 0 {
			d.maxSubsitemaps = n
		}
	}
}

// WithTimeout sets the wall-clock budget for one Discover call.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Discovery) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Discovery) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New creates a Discovery that fetches through f.
func New(f Fetcher, opts ...Option) *Discovery {
	d := &Discovery{
		fetcher:        f,
		maxSubsitemaps: DefaultMaxSubsitemaps,
		timeout:        DefaultTimeout,
		logger:         slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// URL returns scheme://host/sitemap.xml for domainURL.
func URL(domainURL string) (string, error) {
	u, err := url.Parse(domainURL)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidDomainURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidDomainURL, domainURL)
	}
	return u.Scheme + "://" + u.Host + "/sitemap.xml", nil
}

// Discover returns the sorted set of page URLs listed by the sitemap of
// domainURL's host. It returns early with a partial result when the
// timeout expires or ctx is cancelled, and an empty result on failure.
func (d *Discovery) Discover(ctx context.Context, domainURL string) []string {
	sitemapURL, err := URL(domainURL)
	if err != nil {
		d.logger.Warn("sitemap discovery skipped", "error", err)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	found := &urlSet{urls: make(map[string]struct{})}
	if ctx.Err() != nil {
		return nil
	}

	doc, ok := d.fetchDocument(ctx, sitemapURL)
	if !ok {
		return nil
	}

	if doc.Kind == KindURLSet {
		found.addEntries(doc.Entries)
		d.logger.Info("sitemap parsed", "url", sitemapURL, "urls", found.len())
		return found.list()
	}

	children := doc.Sitemaps
	if len(children) > d.maxSubsitemaps {
		d.logger.Debug("sitemap index truncated", "url", sitemapURL,
			"listed", len(children), "fetching", d.maxSubsitemaps)
		children = children[:d.maxSubsitemaps]
	}

	var g errgroup.Group
	for _, child := range children {
		if ctx.Err() != nil {
			d.logger.Warn("sitemap deadline reached, not starting remaining sub-sitemaps", "url", child)
			break
		}
		g.Go(func() error {
			sub, ok := d.fetchDocument(ctx, child)
			if !ok {
				return nil
			}
			if sub.Kind == KindIndex {
				d.logger.Debug("nested sitemap index ignored", "url", child)
				return nil
			}
			found.addEntries(sub.Entries)
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		d.logger.Warn("sitemap discovery timed out, returning partial result",
			"url", sitemapURL, "urls", found.len())
	}

	d.logger.Info("sitemap index expanded", "url", sitemapURL,
		"sitemaps", len(children), "urls", found.len())
	return found.list()
}

// fetchDocument fetches and parses one sitemap. ok is false when the fetch
// failed, the status was not 200, the body was empty, or parsing failed.
func (d *Discovery) fetchDocument(ctx context.Context, sitemapURL string) (*Document, bool) {
	resp, err := d.fetcher.Fetch(ctx, sitemapURL)
	if err != nil {
		d.logger.Warn("sitemap fetch failed", "url", sitemapURL, "error", err)
		return nil, false
	}
	if resp.StatusCode != http.StatusOK || resp.Content == "" {
		d.logger.Warn("sitemap unavailable", "url", sitemapURL, "status", resp.StatusCode)
		return nil, false
	}

	doc, err := Parse(strings.NewReader(resp.Content), sitemapURL)
	if err != nil {
		d.logger.Warn("sitemap parse failed", "url", sitemapURL, "error", err)
		return nil, false
	}
	return doc, true
}

// urlSet collects URLs from concurrent sub-sitemap fetches.
type urlSet struct {
	mu   sync.Mutex
	urls map[string]struct{}
}

func (s *urlSet) addEntries(entries []Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.urls[e.Loc] = struct{}{}
	}
}

func (s *urlSet) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.urls)
}

func (s *urlSet) list() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.urls))
	for u := range s.urls {
		out = append(out, u)
	}
	slices.Sort(out)
	return out
}

// Nop is the discoverer used when sitemap seeding is disabled.
type Nop struct{}

// Discover always returns nil.
func (Nop) Discover(context.Context, string) []string { return nil }
