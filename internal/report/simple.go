package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/spiralhouse/scraper/internal/crawler"
)

// SimpleWriter outputs human-readable statistics for terminal display.
type SimpleWriter struct {
	baseWriter

	// verbose adds the run ID and the start and end times.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the statistics in human-readable format.
func (w *SimpleWriter) Write(stats *crawler.Stats) (int, error) {
	var sb strings.Builder

	sb.WriteString("\n===== Crawling Statistics =====\n")
	if w.verbose {
		fmt.Fprintf(&sb, "Run ID: %s\n", stats.RunID)
		fmt.Fprintf(&sb, "Start URL: %s\n", stats.StartURL)
		fmt.Fprintf(&sb, "Started: %s\n", stats.StartTime.Format(timeLayout))
		fmt.Fprintf(&sb, "Finished: %s\n", stats.EndTime.Format(timeLayout))
	}

	fmt.Fprintf(&sb, "Pages Crawled: %d\n", stats.PagesCrawled)
	fmt.Fprintf(&sb, "Pages Skipped (from cache): %d\n", stats.PagesSkipped)
	fmt.Fprintf(&sb, "Pages Disallowed (robots.txt): %d\n", stats.PagesDisallowed)
	fmt.Fprintf(&sb, "Pages Failed: %d\n", stats.PagesFailed)
	fmt.Fprintf(&sb, "Total URLs Visited: %d\n", stats.TotalURLs)
	fmt.Fprintf(&sb, "URLs Discovered: %d\n", stats.DiscoveredURLs)

	if stats.SitemapURLsFound != nil {
		fmt.Fprintf(&sb, "Sitemap URLs Found: %d\n", *stats.SitemapURLsFound)
	}
	if stats.SitemapURLsUsed != nil {
		fmt.Fprintf(&sb, "Sitemap URLs Used: %d\n", *stats.SitemapURLsUsed)
	}

	fmt.Fprintf(&sb, "Duration: %.2f seconds\n", stats.Duration.Seconds())
	fmt.Fprintf(&sb, "Pages per Second: %.2f\n", stats.PagesPerSecond())
	if stats.Interrupted {
		sb.WriteString("Status: INTERRUPTED (partial results)\n")
	}
	sb.WriteString("==============================\n\n")

	return io.WriteString(w.output, sb.String())
}
