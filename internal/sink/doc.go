// Package sink provides the page sinks used by the scraper CLI.
//
// A sink receives every crawled page from the crawler:
//   - Console prints a short summary of each page
//   - JSONWriter stores each page as an indented JSON file
//   - LinkCollector accumulates every link seen during a run
//
// Multi fans one page out to several sinks. All sinks are safe for
// concurrent use and absorb their own failures.
package sink
