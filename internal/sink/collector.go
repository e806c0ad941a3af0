package sink

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/spiralhouse/scraper/internal/crawler"
)

// LinkCollector accumulates the set of links found on all crawled pages.
type LinkCollector struct {
	mu    sync.Mutex
	links map[string]struct{}
}

// NewLinkCollector creates an empty LinkCollector.
func NewLinkCollector() *LinkCollector {
	return &LinkCollector{links: make(map[string]struct{})}
}

// PageCrawled adds the links of page to the set.
func (c *LinkCollector) PageCrawled(_ string, page *crawler.PageResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, link := range page.Links {
		c.links[link] = struct{}{}
	}
}

// Len returns the number of distinct links collected.
func (c *LinkCollector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.links)
}

// Links returns the collected links in sorted order.
func (c *LinkCollector) Links() []string {
	c.mu.Lock()
	links := make([]string, 0, len(c.links))
	for link := range c.links {
		links = append(links, link)
	}
	c.mu.Unlock()

	slices.Sort(links)
	return links
}

// WriteFile writes the collected links to path, one per line.
func (c *LinkCollector) WriteFile(path string) error {
	links := c.Links()
	var sb strings.Builder
	for _, link := range links {
		sb.WriteString(link)
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o600); err != nil {
		return fmt.Errorf("failed to write links to %s: %w", path, err)
	}
	return nil
}
