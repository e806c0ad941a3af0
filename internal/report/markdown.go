package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/spiralhouse/scraper/internal/crawler"
)

// MarkdownWriter outputs statistics in Markdown format.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the statistics in Markdown format.
func (w *MarkdownWriter) Write(stats *crawler.Stats) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, stats)
	w.writeCounts(md, stats)
	w.writeSitemap(md, stats)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the run information table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, stats *crawler.Stats) {
	md.H1("Crawl Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Start URL", "`" + stats.StartURL + "`"},
			{"Run ID", "`" + stats.RunID + "`"},
			{"Started", stats.StartTime.Format(timeLayout)},
			{"Duration", fmt.Sprintf("%.2f seconds", stats.Duration.Seconds())},
			{"Pages per Second", fmt.Sprintf("%.2f", stats.PagesPerSecond())},
			{"Status", statusText(stats)},
		},
	})
	md.PlainText("")
}

func statusText(stats *crawler.Stats) string {
	if stats.Interrupted {
		return "⚠️ Interrupted (partial results)"
	}
	return "✅ Complete"
}

// writeCounts writes the page outcome table, chart and alert.
func (w *MarkdownWriter) writeCounts(md *markdown.Markdown, stats *crawler.Stats) {
	md.H2("Pages")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows: [][]string{
			{"Crawled", strconv.Itoa(stats.PagesCrawled)},
			{"Skipped (from cache)", strconv.Itoa(stats.PagesSkipped)},
			{"Disallowed (robots.txt)", strconv.Itoa(stats.PagesDisallowed)},
			{"Failed", strconv.Itoa(stats.PagesFailed)},
			{"**Total URLs Visited**", "**" + strconv.Itoa(stats.TotalURLs) + "**"},
			{"URLs Discovered", strconv.Itoa(stats.DiscoveredURLs)},
		},
	})
	md.PlainText("")

	if stats.TotalURLs > 0 {
		w.writePieChart(md, stats)
	}
	w.writeAlert(md, stats)
}

// writePieChart writes a mermaid pie chart of URL outcomes. Cached pages
// are part of the crawled count, so the fetched slice excludes them.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, stats *crawler.Stats) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("URL Outcomes"),
		piechart.WithShowData(true),
	)

	if fetched := stats.PagesCrawled - stats.PagesSkipped; fetched > 0 {
		chart.LabelAndIntValue("Fetched", uint64(fetched))
	}
	if stats.PagesSkipped > 0 {
		chart.LabelAndIntValue("Cached", uint64(stats.PagesSkipped))
	}
	if stats.PagesDisallowed > 0 {
		chart.LabelAndIntValue("Disallowed", uint64(stats.PagesDisallowed))
	}
	if stats.PagesFailed > 0 {
		chart.LabelAndIntValue("Failed", uint64(stats.PagesFailed))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, stats *crawler.Stats) {
	switch {
	case stats.Interrupted:
		md.Warningf("Crawl was interrupted after %d page(s); counts are partial.", stats.PagesCrawled)
	case stats.PagesFailed > 0:
		md.Importantf("%d page(s) failed to load.", stats.PagesFailed)
	case stats.PagesCrawled == 0:
		md.Note("No pages were crawled.")
	default:
		md.Tip("All dispatched pages were processed.")
	}
	md.PlainText("")
}

// writeSitemap writes sitemap seeding counters when seeding was enabled.
func (w *MarkdownWriter) writeSitemap(md *markdown.Markdown, stats *crawler.Stats) {
	if stats.SitemapURLsFound == nil {
		return
	}

	used := 0
	if stats.SitemapURLsUsed != nil {
		used = *stats.SitemapURLsUsed
	}

	md.H2("Sitemap")
	md.PlainText("")
	md.BulletList(
		fmt.Sprintf("URLs found: %d", *stats.SitemapURLsFound),
		fmt.Sprintf("URLs used as seeds: %d", used),
	)
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [scraper](https://github.com/spiralhouse/scraper)*")
}
