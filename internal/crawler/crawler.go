package crawler

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/spiralhouse/scraper/internal/cache"
	"github.com/spiralhouse/scraper/internal/robots"
	"github.com/spiralhouse/scraper/internal/sitemap"
)

// Crawler crawls a site from a start URL. A Crawler may be reused for
// several runs; concurrent Crawl calls on one Crawler are serialized.
type Crawler struct {
	fetcher Fetcher
	parser  Parser

	maxDepth        int
	concurrency     int
	workers         int
	delay           time.Duration
	allowSubdomains bool
	allowExternal   bool
	maxPages        int
	rateLimit       float64
	useSitemap      bool
	filter          pathFilter

	cache    ResponseCache
	robots   RobotsPolicy
	sitemap  SitemapDiscoverer
	sink     Sink
	recorder Recorder
	logger   *slog.Logger

	// runMu serializes Crawl calls.
	runMu sync.Mutex
}

// New creates a Crawler that fetches with f and parses with p.
func New(f Fetcher, p Parser, opts ...Option) *Crawler {
	c := &Crawler{
		fetcher:         f,
		parser:          p,
		maxDepth:        DefaultMaxDepth,
		concurrency:     DefaultConcurrency,
		delay:           DefaultDelay,
		allowSubdomains: true,
		robots:          robots.AllowAll{},
		sitemap:         sitemap.Nop{},
		sink:            nopSink{},
		recorder:        nopRecorder{},
		logger:          slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.workers == 0 {
		c.workers = 2 * c.concurrency
	}
	if c.cache == nil {
		c.cache = cache.New(cache.WithLogger(c.logger))
	}
	return c
}

// run is the state of one Crawl call.
type run struct {
	baseDomain string
	frontier   *frontier
	permits    *semaphore.Weighted
	limiter    *rate.Limiter
	counters   counters
	logger     *slog.Logger
}

// Crawl crawls from startURL until every reachable admitted URL within
// the depth limit has been processed. If ctx is cancelled, Crawl stops
// dispatching, waits for busy workers to return, and returns the partial
// statistics together with ctx.Err().
func (c *Crawler) Crawl(ctx context.Context, startURL string) (*Stats, error) {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	start, baseDomain, err := NormalizeStartURL(startURL)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		RunID:     uuid.NewString(),
		StartURL:  start,
		StartTime: time.Now(),
	}
	logger := c.logger.With("run_id", stats.RunID)

	limit := rate.Inf
	if c.rateLimit > 0 {
		limit = rate.Limit(c.rateLimit)
	}
	r := &run{
		baseDomain: baseDomain,
		frontier:   newFrontier(c.maxDepth, c.maxPages),
		permits:    semaphore.NewWeighted(int64(c.concurrency)),
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logger,
	}

	logger.Info("crawl started", "start_url", start, "max_depth", c.maxDepth,
		"concurrency", c.concurrency, "workers", c.workers)

	seeds := []string{start}
	if c.useSitemap {
		found := c.sitemap.Discover(ctx, start)
		used := c.admitSeeds(found, baseDomain)
		seeds = append(seeds, used...)

		nFound, nUsed := len(found), len(used)
		stats.SitemapURLsFound = &nFound
		stats.SitemapURLsUsed = &nUsed
		logger.Info("sitemap seeds", "found", nFound, "used", nUsed)
	}
	c.recorder.FrontierChanged(r.frontier.push(1, seeds...))

	stop := context.AfterFunc(ctx, r.frontier.close)
	defer stop()

	var g errgroup.Group
	for range c.workers {
		g.Go(func() error {
			c.work(ctx, r)
			return nil
		})
	}
	_ = g.Wait()

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	stats.TotalURLs, stats.DiscoveredURLs = r.frontier.counts()
	r.counters.fill(stats)

	if err := ctx.Err(); err != nil {
		stats.Interrupted = true
		logger.Warn("crawl interrupted", "pages_crawled", stats.PagesCrawled,
			"total_urls", stats.TotalURLs, "error", err)
		return stats, err
	}

	logger.Info("crawl finished", "pages_crawled", stats.PagesCrawled,
		"pages_skipped", stats.PagesSkipped, "total_urls", stats.TotalURLs,
		"duration", stats.Duration)
	return stats, nil
}

// admitSeeds normalizes sitemap URLs and keeps those passing domain
// admission, sorted and without duplicates.
func (c *Crawler) admitSeeds(found []string, baseDomain string) []string {
	seen := make(map[string]struct{}, len(found))
	used := make([]string, 0, len(found))
	for _, raw := range found {
		u, ok := normalizeSeed(raw)
		if !ok || !IsAllowedDomain(u, baseDomain, c.allowSubdomains, c.allowExternal) {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		used = append(used, u)
	}
	slices.Sort(used)
	return used
}

func (c *Crawler) work(ctx context.Context, r *run) {
	for {
		t, ok := r.frontier.next()
		if !ok {
			return
		}
		c.process(ctx, r, t)
		r.frontier.done()
	}
}

// process runs the full cycle for one dispatched URL.
func (c *Crawler) process(ctx context.Context, r *run, t task) {
	if t.depth > c.maxDepth || ctx.Err() != nil {
		return
	}

	if !c.robots.Allowed(ctx, t.url) {
		r.counters.disallowed.Add(1)
		c.recorder.URLProcessed(OutcomeDisallowed)
		r.logger.Debug("disallowed by robots.txt", "url", t.url)
		return
	}
	delay := max(c.delay, c.robots.CrawlDelay(ctx, t.url))

	content, status, ok := c.load(ctx, r, t.url, delay)
	if !ok {
		return
	}
	r.counters.crawled.Add(1)

	parsed := c.parser.Parse(t.url, content)
	page := &PageResult{
		URL:        t.url,
		StatusCode: status,
		Title:      parsed.Title,
		Depth:      t.depth,
		Metadata:   parsed.Metadata,
		Links:      parsed.Links,
	}
	c.sink.PageCrawled(t.url, page)
	r.logger.Debug("page crawled", "url", t.url, "depth", t.depth, "links", len(parsed.Links))

	children := make([]string, 0, len(parsed.Links))
	for _, link := range parsed.Links {
		u, ok := normalizeSeed(link)
		if !ok {
			continue
		}
		if IsAllowedDomain(u, r.baseDomain, c.allowSubdomains, c.allowExternal) && c.filter.allows(u) {
			children = append(children, u)
		}
	}
	c.recorder.FrontierChanged(r.frontier.push(t.depth+1, children...))
}

// load returns the page content from the cache, or fetches it after the
// politeness delay under a fetch permit. ok is false when the page has no
// usable content.
func (c *Crawler) load(ctx context.Context, r *run, url string, delay time.Duration) (content string, status int, ok bool) {
	if e, hit := c.cache.Get(ctx, url); hit {
		r.counters.skipped.Add(1)
		c.recorder.URLProcessed(OutcomeCached)
		r.logger.Debug("using cached response", "url", url)
		return e.Content, e.StatusCode, true
	}

	if err := wait(ctx, delay); err != nil {
		return "", 0, false
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return "", 0, false
	}
	if err := r.permits.Acquire(ctx, 1); err != nil {
		return "", 0, false
	}
	started := time.Now()
	resp, err := c.fetcher.Fetch(ctx, url)
	r.permits.Release(1)

	if resp != nil {
		status = resp.StatusCode
	}
	c.recorder.FetchObserved(status, time.Since(started), err)

	if ctx.Err() != nil {
		return "", 0, false
	}
	if err != nil || status != http.StatusOK || resp.Content == "" {
		r.counters.failed.Add(1)
		c.recorder.URLProcessed(OutcomeFailed)
		r.logger.Warn("fetch failed", "url", url, "status", status, "error", err)
		return "", 0, false
	}

	c.cache.Set(ctx, url, resp.Content, resp.StatusCode, resp.Headers)
	c.recorder.URLProcessed(OutcomeFetched)
	return resp.Content, resp.StatusCode, true
}

// wait blocks for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
