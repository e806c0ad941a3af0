package sink

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spiralhouse/scraper/internal/crawler"
)

// Console prints a summary of every crawled page.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsole creates a Console that prints to out.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// PageCrawled prints the page title, status, depth and link count.
func (c *Console) PageCrawled(url string, page *crawler.PageResult) {
	title := page.Title
	if title == "" {
		title = "No title"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\n--- Page Crawled: %s ---\n", url)
	fmt.Fprintf(&sb, "Title: %s\n", title)
	fmt.Fprintf(&sb, "Status: %d\n", page.StatusCode)
	fmt.Fprintf(&sb, "Depth: %d\n", page.Depth)
	fmt.Fprintf(&sb, "Links found: %d\n", len(page.Links))
	sb.WriteString(strings.Repeat("-", 50))
	sb.WriteString("\n")

	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = io.WriteString(c.out, sb.String())
}
