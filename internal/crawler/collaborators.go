package crawler

import (
	"context"
	"time"

	"github.com/spiralhouse/scraper/internal/cache"
	"github.com/spiralhouse/scraper/internal/fetcher"
	"github.com/spiralhouse/scraper/internal/parser"
)

// Fetcher retrieves pages. An error is treated as a failed fetch with no
// content and status 0.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetcher.Response, error)
}

// Parser extracts links, title and metadata from page content.
// It must return a non-nil result, empty for malformed input.
type Parser interface {
	Parse(baseURL, content string) *parser.Result
}

// RobotsPolicy answers robots.txt queries.
type RobotsPolicy interface {
	Allowed(ctx context.Context, rawURL string) bool
	CrawlDelay(ctx context.Context, rawURL string) time.Duration
}

// SitemapDiscoverer returns candidate seed URLs for a domain.
type SitemapDiscoverer interface {
	Discover(ctx context.Context, domainURL string) []string
}

// ResponseCache stores successful responses between runs.
type ResponseCache interface {
	Get(ctx context.Context, url string) (*cache.Entry, bool)
	Set(ctx context.Context, url, content string, statusCode int, headers map[string]string)
}

// Sink receives every crawled page. Implementations absorb their own
// failures and must be safe for concurrent use.
type Sink interface {
	PageCrawled(url string, page *PageResult)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(url string, page *PageResult)

// PageCrawled calls f(url, page).
func (f SinkFunc) PageCrawled(url string, page *PageResult) {
	f(url, page)
}

type nopSink struct{}

func (nopSink) PageCrawled(string, *PageResult) {}

// Outcome classifies what happened to a dispatched URL.
type Outcome string

// Outcomes reported to the Recorder.
const (
	OutcomeFetched    Outcome = "fetched"
	OutcomeCached     Outcome = "cached"
	OutcomeDisallowed Outcome = "disallowed"
	OutcomeFailed     Outcome = "failed"
)

// Recorder observes crawl progress, typically for metrics export.
// Implementations must be safe for concurrent use.
type Recorder interface {
	// URLProcessed is called once per dispatched URL.
	URLProcessed(outcome Outcome)

	// FetchObserved is called after every network fetch. status is 0 when
	// err is non-nil.
	FetchObserved(status int, elapsed time.Duration, err error)

	// FrontierChanged reports the number of queued URLs.
	FrontierChanged(queued int)
}

type nopRecorder struct{}

func (nopRecorder) URLProcessed(Outcome) {}

func (nopRecorder) FetchObserved(int, time.Duration, error) {}

func (nopRecorder) FrontierChanged(int) {}
