// Package main provides the entry point for the scraper CLI.
//
// scraper crawls a website from a start URL, following links within the
// allowed domains up to a maximum depth. It honors robots.txt, can seed the
// crawl from sitemap.xml, and caches responses between runs.
//
// Usage:
//
//	scraper crawl https://example.com
//	scraper crawl --use-sitemap --output-dir pages https://example.com
//	scraper cache clear-expired
//
// See --help for all available options.
package main

// main is the entry point for scraper.
func main() {
	Execute()
}
