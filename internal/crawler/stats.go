package crawler

import (
	"sync/atomic"
	"time"
)

// Stats summarizes one Crawl call.
type Stats struct {
	// RunID identifies the run in logs and reports.
	RunID string `json:"run_id"`

	// StartURL is the normalized start URL.
	StartURL string `json:"start_url"`

	// PagesCrawled counts pages with usable content, fetched or cached.
	PagesCrawled int `json:"pages_crawled"`

	// PagesSkipped counts pages served from the cache instead of fetched.
	PagesSkipped int `json:"pages_skipped"`

	// PagesDisallowed counts URLs denied by robots.txt.
	PagesDisallowed int `json:"pages_disallowed"`

	// PagesFailed counts fetches that errored, returned a non-200 status
	// or returned an empty body.
	PagesFailed int `json:"pages_failed"`

	// TotalURLs is the number of URLs dispatched to a worker.
	TotalURLs int `json:"total_urls"`

	// DiscoveredURLs additionally counts URLs seen but never dispatched,
	// because they were beyond the depth limit or the run stopped early.
	DiscoveredURLs int `json:"discovered_urls"`

	// SitemapURLsFound and SitemapURLsUsed are nil unless sitemap seeding
	// was enabled.
	SitemapURLsFound *int `json:"sitemap_urls_found,omitempty"`
	SitemapURLsUsed  *int `json:"sitemap_urls_used,omitempty"`

	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration_ns"`

	// Interrupted is set when the context was cancelled before the
	// frontier drained.
	Interrupted bool `json:"interrupted"`
}

// PagesPerSecond returns PagesCrawled divided by the run duration.
func (s *Stats) PagesPerSecond() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.PagesCrawled) / s.Duration.Seconds()
}

// counters are the per-run tallies updated by workers.
type counters struct {
	crawled    atomic.Int64
	skipped    atomic.Int64
	disallowed atomic.Int64
	failed     atomic.Int64
}

func (c *counters) fill(s *Stats) {
	s.PagesCrawled = int(c.crawled.Load())
	s.PagesSkipped = int(c.skipped.Load())
	s.PagesDisallowed = int(c.disallowed.Load())
	s.PagesFailed = int(c.failed.Load())
}
