package main

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spiralhouse/scraper/internal/report"
	"github.com/spiralhouse/scraper/internal/testsite"
)

func newTestSite(t *testing.T) (*testsite.Site, *httptest.Server) {
	t.Helper()

	site := testsite.Generate(testsite.Options{
		Seed:            3,
		TopLevelPages:   2,
		Sections:        2,
		PagesPerSection: 2,
		MaxDepth:        2,
		MaxChildren:     2,
		DisallowRatio:   0,
		BaseURL:         "http://localhost:8080",
	})
	srv := httptest.NewServer(site.Handler())
	t.Cleanup(srv.Close)
	return site, srv
}

// writeConfig writes a config file so crawls never pick up a
// .scraper.yaml from the home directory.
func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "scraper.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func readJSONReport(t *testing.T, path string) report.JSONReport {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read report: %v", err)
	}
	var r report.JSONReport
	if err := json.Unmarshal(data, &r); err != nil {
		t.Fatalf("invalid JSON report: %v", err)
	}
	if r.Stats == nil {
		t.Fatal("expected stats in report")
	}
	return r
}

func TestNewCrawlCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCrawlCmd()

	tests := []struct {
		name      string
		shorthand string
		defValue  string
	}{
		{name: "depth", shorthand: "d", defValue: "3"},
		{name: "concurrency", shorthand: "c", defValue: "10"},
		{name: "delay", defValue: "100ms"},
		{name: "timeout", shorthand: "t", defValue: "30s"},
		{name: "use-sitemap", defValue: "false"},
		{name: "no-cache", defValue: "false"},
		{name: "cache-backend", defValue: "sqlite"},
		{name: "report", defValue: "text"},
		{name: "ignore", defValue: "[]"},
		{name: "metrics-addr", defValue: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			flag := cmd.Flags().Lookup(tt.name)
			if flag == nil {
				t.Fatalf("expected %s flag", tt.name)
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("expected shorthand %q, got %q", tt.shorthand, flag.Shorthand)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("expected default %q, got %q", tt.defValue, flag.DefValue)
			}
		})
	}
}

func TestRunCrawlCmd(t *testing.T) {
	t.Parallel()

	t.Run("crawls the site and writes every output", func(t *testing.T) {
		t.Parallel()

		site, srv := newTestSite(t)
		configPath := writeConfig(t, "crawl:\n  depth: 10\n  delay: 0s\n")
		dir := t.TempDir()
		reportPath := filepath.Join(dir, "report.json")
		linksPath := filepath.Join(dir, "links.txt")
		pagesDir := filepath.Join(dir, "pages")

		out, err := executeRoot(t, "crawl",
			"--config", configPath,
			"--no-cache",
			"--use-sitemap",
			"--print-pages",
			"--output-dir", pagesDir,
			"--collect-links", linksPath,
			"--report", "json",
			"--report-file", reportPath,
			srv.URL,
		)
		if err != nil {
			t.Fatalf("crawl failed: %v", err)
		}

		if !strings.Contains(out, "Starting crawl from "+srv.URL+" with max depth 10") {
			t.Errorf("expected start message with the configured depth, got %q", out)
		}
		if !strings.Contains(out, "--- Page Crawled: "+srv.URL) {
			t.Errorf("expected printed pages, got %q", out)
		}

		r := readJSONReport(t, reportPath)
		if r.Stats.PagesCrawled != len(site.Pages) {
			t.Errorf("expected %d pages crawled, got %d", len(site.Pages), r.Stats.PagesCrawled)
		}
		if r.Stats.PagesFailed != 0 || r.Stats.Interrupted {
			t.Errorf("unexpected failures %d or interruption", r.Stats.PagesFailed)
		}
		if r.Stats.SitemapURLsFound == nil || *r.Stats.SitemapURLsFound != len(site.Pages) {
			t.Errorf("expected %d sitemap URLs, got %v", len(site.Pages), r.Stats.SitemapURLsFound)
		}

		files, err := os.ReadDir(pagesDir)
		if err != nil {
			t.Fatalf("failed to read output dir: %v", err)
		}
		if len(files) != len(site.Pages) {
			t.Errorf("expected %d page files, got %d", len(site.Pages), len(files))
		}

		links, err := os.ReadFile(linksPath)
		if err != nil {
			t.Fatalf("failed to read links file: %v", err)
		}
		if !strings.Contains(string(links), srv.URL+"/") {
			t.Errorf("expected collected links on the test server, got %q", links)
		}
	})

	t.Run("second crawl is served from the cache", func(t *testing.T) {
		t.Parallel()

		site, srv := newTestSite(t)
		configPath := writeConfig(t, "crawl:\n  depth: 10\n  delay: 0s\n")
		cacheDir := t.TempDir()
		reportPath := filepath.Join(t.TempDir(), "report.json")

		args := []string{"crawl",
			"--config", configPath,
			"--cache-dir", cacheDir,
			"--report", "json",
			"--report-file", reportPath,
			srv.URL,
		}

		if _, err := executeRoot(t, args...); err != nil {
			t.Fatalf("first crawl failed: %v", err)
		}
		first := readJSONReport(t, reportPath)
		if first.Stats.PagesSkipped != 0 {
			t.Errorf("expected an empty cache on the first crawl, got %d skipped", first.Stats.PagesSkipped)
		}

		if _, err := executeRoot(t, args...); err != nil {
			t.Fatalf("second crawl failed: %v", err)
		}
		second := readJSONReport(t, reportPath)
		if second.Stats.PagesCrawled != len(site.Pages) {
			t.Errorf("expected %d pages crawled, got %d", len(site.Pages), second.Stats.PagesCrawled)
		}
		if second.Stats.PagesSkipped != second.Stats.PagesCrawled {
			t.Errorf("expected every page from the cache, got %d of %d",
				second.Stats.PagesSkipped, second.Stats.PagesCrawled)
		}
	})

	t.Run("text report goes to stdout", func(t *testing.T) {
		t.Parallel()

		_, srv := newTestSite(t)
		configPath := writeConfig(t, "crawl:\n  delay: 0s\n")

		out, err := executeRoot(t, "crawl", "--config", configPath, "--no-cache", "--depth", "1", srv.URL)
		if err != nil {
			t.Fatalf("crawl failed: %v", err)
		}
		for _, want := range []string{"===== Crawling Statistics =====", "Pages Crawled: 1", "Pages per Second:"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q, got %q", want, out)
			}
		}
	})

	t.Run("rejects invalid configuration", func(t *testing.T) {
		t.Parallel()

		configPath := writeConfig(t, "")
		tests := []struct {
			name string
			args []string
		}{
			{name: "zero depth", args: []string{"--depth", "0"}},
			{name: "unknown report format", args: []string{"--report", "xml"}},
			{name: "unknown cache backend", args: []string{"--cache-backend", "memcached"}},
		}
		for _, tt := range tests {
			args := append([]string{"crawl", "--config", configPath}, tt.args...)
			args = append(args, "http://127.0.0.1:1/")
			_, err := executeRoot(t, args...)
			if err == nil || !strings.Contains(err.Error(), "configuration error") {
				t.Errorf("%s: expected configuration error, got %v", tt.name, err)
			}
		}
	})

	t.Run("missing explicit config file", func(t *testing.T) {
		t.Parallel()

		missing := filepath.Join(t.TempDir(), "missing.yaml")
		_, err := executeRoot(t, "crawl", "--config", missing, "http://127.0.0.1:1/")
		if err == nil {
			t.Error("expected error for a missing config file")
		}
	})

	t.Run("requires a URL", func(t *testing.T) {
		t.Parallel()

		if _, err := executeRoot(t, "crawl"); err == nil {
			t.Error("expected error without a URL argument")
		}
	})
}
