// Package crawler implements the crawl orchestrator.
//
// # Architecture
//
// A Crawler drains a frontier of {URL, depth} tasks with a fixed pool of
// workers. Each worker owns the whole cycle for one URL: robots.txt check,
// cache lookup, politeness delay, fetch under a concurrency permit, parse,
// sink notification and enqueueing of admitted child links at depth+1.
// Crawl returns once the frontier is empty and every worker is idle.
//
// # Deduplication
//
// The frontier moves a URL into the visited set in the same critical
// section that hands it to a worker, so a URL is dispatched at most once
// per run no matter how many pages link to it.
//
// # Collaborators
//
// Robots policy, sitemap discovery, sink, cache and metrics recorder are
// interfaces. When an option does not supply one, a no-op implementation
// is used so the traversal never checks for presence:
//
//   - RobotsPolicy: robots.AllowAll
//   - SitemapDiscoverer: sitemap.Nop
//   - Sink: a sink that does nothing
//   - ResponseCache: a memory-only cache.Cache
//   - Recorder: a recorder that does nothing
//
// # Usage
//
//	c := crawler.New(httpFetcher, parser.New(),
//		crawler.WithMaxDepth(2),
//		crawler.WithRobots(policy),
//	)
//	stats, err := c.Crawl(ctx, "https://example.com")
package crawler
