package testsite

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spiralhouse/scraper/internal/crawler"
	"github.com/spiralhouse/scraper/internal/fetcher"
	"github.com/spiralhouse/scraper/internal/parser"
	"github.com/spiralhouse/scraper/internal/robots"
	"github.com/spiralhouse/scraper/internal/sitemap"
)

func smallOptions() Options {
	return Options{
		Seed:            7,
		TopLevelPages:   3,
		Sections:        2,
		PagesPerSection: 3,
		MaxDepth:        3,
		MaxChildren:     2,
		DisallowRatio:   1,
		BaseURL:         "http://localhost:8080",
	}
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	t.Run("deterministic for a seed", func(t *testing.T) {
		t.Parallel()

		a, b := Generate(smallOptions()), Generate(smallOptions())
		if !slices.Equal(a.Paths(), b.Paths()) {
			t.Fatal("expected identical page sets")
		}
		for p, content := range a.Pages {
			if !bytes.Equal(content, b.Pages[p]) {
				t.Errorf("content of %s differs", p)
			}
		}
	})

	t.Run("has the expected top-level structure", func(t *testing.T) {
		t.Parallel()

		site := Generate(smallOptions())
		for _, p := range []string{
			"/index.html",
			"/page1.html", "/page3.html",
			"/section1/index.html", "/section2/page3.html",
			"/page1/sub1.html",
		} {
			if _, ok := site.Pages[p]; !ok {
				t.Errorf("expected page %s", p)
			}
		}
		if _, ok := site.Pages["/page4.html"]; ok {
			t.Error("unexpected page beyond TopLevelPages")
		}
	})

	t.Run("only deep pages are disallowed", func(t *testing.T) {
		t.Parallel()

		site := Generate(smallOptions())
		if len(site.Disallowed) == 0 {
			t.Fatal("expected depth-3 pages to be disallowed")
		}
		for _, p := range site.Disallowed {
			// A depth-3 page is the third generation of sub pages.
			if strings.Count(p, "sub") < 3 {
				t.Errorf("shallow page disallowed: %s", p)
			}
			if _, ok := site.Pages[p]; !ok {
				t.Errorf("disallowed path %s is not a page", p)
			}
		}
	})

	t.Run("pages carry title and description", func(t *testing.T) {
		t.Parallel()

		res := parser.New().Parse("http://localhost:8080/section1/page2.html",
			string(Generate(smallOptions()).Pages["/section1/page2.html"]))
		if res.Title != "Section 1 - page2" {
			t.Errorf("unexpected title %q", res.Title)
		}
		if res.Metadata["description"] != "Test page for web crawler - Depth 1" {
			t.Errorf("unexpected description %q", res.Metadata["description"])
		}
		if !slices.Contains(res.Links, "http://localhost:8080/section2/") {
			t.Errorf("expected navigation links, got %v", res.Links)
		}
	})
}

func TestRobotsTxt(t *testing.T) {
	t.Parallel()

	opts := smallOptions()
	opts.CrawlDelay = 100 * time.Millisecond
	site := Generate(opts)

	robots := string(site.RobotsTxt())
	if !strings.HasPrefix(robots, "User-agent: *\nCrawl-delay: 0.1\n") {
		t.Errorf("unexpected robots.txt header:\n%s", robots)
	}
	for _, p := range site.Disallowed {
		if !strings.Contains(robots, "Disallow: "+p+"\n") {
			t.Errorf("expected Disallow for %s", p)
		}
	}

	opts.CrawlDelay = 0
	if strings.Contains(string(Generate(opts).RobotsTxt()), "Crawl-delay") {
		t.Error("expected no Crawl-delay when zero")
	}
}

func TestSitemap(t *testing.T) {
	t.Parallel()

	site := Generate(smallOptions())
	doc, err := sitemap.Parse(bytes.NewReader(site.Sitemap("http://example.com/")), "http://example.com/sitemap.xml")
	if err != nil {
		t.Fatalf("generated sitemap does not parse: %v", err)
	}
	if doc.Kind != sitemap.KindURLSet {
		t.Fatalf("expected urlset, got %v", doc.Kind)
	}

	var locs []string
	for _, e := range doc.Entries {
		locs = append(locs, e.Loc)
		if e.Priority == nil {
			t.Errorf("expected priority for %s", e.Loc)
		}
	}
	if len(locs) != len(site.Pages)-len(site.Disallowed) {
		t.Errorf("expected %d entries, got %d", len(site.Pages)-len(site.Disallowed), len(locs))
	}
	if !slices.Contains(locs, "http://example.com/") || !slices.Contains(locs, "http://example.com/section1/") {
		t.Errorf("expected index pages listed by directory, got %v", locs)
	}
	for _, p := range site.Disallowed {
		if slices.Contains(locs, "http://example.com"+p) {
			t.Errorf("disallowed page %s listed in sitemap", p)
		}
	}
}

func TestHandler(t *testing.T) {
	t.Parallel()

	site := Generate(smallOptions())
	srv := httptest.NewServer(site.Handler())
	defer srv.Close()

	tests := []struct {
		path        string
		status      int
		contentType string
		contains    string
	}{
		{"/", http.StatusOK, "text/html", "Main - index"},
		{"/section2/", http.StatusOK, "text/html", "Section 2 - index"},
		{"/page2.html", http.StatusOK, "text/html", "Main - page2"},
		{"/robots.txt", http.StatusOK, "text/plain", "User-agent: *"},
		{"/sitemap.xml", http.StatusOK, "application/xml", srv.URL + "/page1.html"},
		{"/missing.html", http.StatusNotFound, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			resp, err := http.Get(srv.URL + tt.path) //nolint:gosec,noctx
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close() //nolint:errcheck
			body, _ := io.ReadAll(resp.Body) //nolint:errcheck

			if resp.StatusCode != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, resp.StatusCode)
			}
			if tt.contentType != "" && !strings.HasPrefix(resp.Header.Get("Content-Type"), tt.contentType) {
				t.Errorf("expected content type %s, got %s", tt.contentType, resp.Header.Get("Content-Type"))
			}
			if !strings.Contains(string(body), tt.contains) {
				t.Errorf("expected body to contain %q", tt.contains)
			}
		})
	}
}

func TestWrite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	site := Generate(smallOptions())
	if err := site.Write(dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, p := range append(site.Paths(), "/robots.txt", "/sitemap.xml") {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(p))); err != nil {
			t.Errorf("expected file for %s: %v", p, err)
		}
	}

	sm, err := os.ReadFile(filepath.Join(dir, "sitemap.xml"))
	if err != nil {
		t.Fatalf("failed to read sitemap: %v", err)
	}
	if !strings.Contains(string(sm), "http://localhost:8080/page1.html") {
		t.Error("expected sitemap locations under BaseURL")
	}
}

// TestCrawlGeneratedSite crawls the generated site with robots.txt and
// sitemap seeding over real HTTP.
func TestCrawlGeneratedSite(t *testing.T) {
	t.Parallel()

	site := Generate(smallOptions())
	srv := httptest.NewServer(site.Handler())
	defer srv.Close()

	f, err := fetcher.New(fetcher.Options{Timeout: 5 * time.Second, MaxRetries: -1})
	if err != nil {
		t.Fatalf("failed to create fetcher: %v", err)
	}
	defer f.Close() //nolint:errcheck

	var (
		mu      sync.Mutex
		crawled []string
	)
	sink := crawler.SinkFunc(func(url string, _ *crawler.PageResult) {
		mu.Lock()
		defer mu.Unlock()
		crawled = append(crawled, url)
	})

	c := crawler.New(f, parser.New(),
		crawler.WithMaxDepth(10),
		crawler.WithConcurrency(4),
		crawler.WithDelay(0),
		crawler.WithRobots(robots.New(f, fetcher.DefaultUserAgent)),
		crawler.WithSitemap(sitemap.New(f)),
		crawler.WithSink(sink),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	stats, err := c.Crawl(ctx, srv.URL)
	if err != nil {
		t.Fatalf("crawl failed: %v", err)
	}

	var want []string
	for _, p := range site.Paths() {
		if !site.IsDisallowed(p) {
			want = append(want, srv.URL+URLPath(p))
		}
	}
	slices.Sort(crawled)

	if !slices.Equal(crawled, want) {
		t.Errorf("crawled pages differ from allowed pages\n got: %v\nwant: %v", crawled, want)
	}
	if stats.PagesCrawled != len(want) {
		t.Errorf("expected %d pages crawled, got %d", len(want), stats.PagesCrawled)
	}
	if stats.PagesDisallowed != len(site.Disallowed) {
		t.Errorf("expected %d pages disallowed, got %d", len(site.Disallowed), stats.PagesDisallowed)
	}
	if stats.PagesFailed != 0 {
		t.Errorf("expected no failures, got %d", stats.PagesFailed)
	}
	if stats.SitemapURLsUsed == nil || *stats.SitemapURLsUsed != len(want) {
		t.Errorf("expected every allowed page as a sitemap seed, got %v", stats.SitemapURLsUsed)
	}
	if stats.TotalURLs != len(want)+len(site.Disallowed) {
		t.Errorf("expected %d URLs visited, got %d", len(want)+len(site.Disallowed), stats.TotalURLs)
	}
}
