package testsite

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"html/template"
	"math/rand/v2"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// Default generation parameters.
const (
	DefaultTopLevelPages   = 8
	DefaultSections        = 6
	DefaultPagesPerSection = 7
	DefaultMaxDepth        = 3
	DefaultMaxChildren     = 3
	DefaultCrawlDelay      = 100 * time.Millisecond
	DefaultBaseURL         = "http://localhost:8080"
)

// Options controls the shape of the generated site.
type Options struct {
	Seed            uint64
	TopLevelPages   int
	Sections        int
	PagesPerSection int

	// MaxDepth is the deepest level of child pages below a top-level page
	// or section index.
	MaxDepth int

	// MaxChildren is the upper bound of child pages per parent.
	MaxChildren int

	// DisallowRatio is the probability that a page at depth 3 or deeper
	// is disallowed in robots.txt.
	DisallowRatio float64

	// CrawlDelay is written to robots.txt. Zero omits the directive.
	CrawlDelay time.Duration

	// BaseURL prefixes the sitemap locations written by Write.
	BaseURL string
}

// DefaultOptions returns the default generation parameters.
func DefaultOptions() Options {
	return Options{
		Seed:            1,
		TopLevelPages:   DefaultTopLevelPages,
		Sections:        DefaultSections,
		PagesPerSection: DefaultPagesPerSection,
		MaxDepth:        DefaultMaxDepth,
		MaxChildren:     DefaultMaxChildren,
		DisallowRatio:   0.3,
		CrawlDelay:      DefaultCrawlDelay,
		BaseURL:         DefaultBaseURL,
	}
}

// Site is a generated website.
type Site struct {
	// Pages maps URL paths such as "/section1/page2.html" to HTML content.
	Pages map[string][]byte

	// Disallowed lists the paths excluded by robots.txt, sorted.
	Disallowed []string

	opts Options
}

// Generate builds a site from opts.
func Generate(opts Options) *Site {
	g := &generator{
		opts:  opts,
		rng:   rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
		pages: make(map[string][]byte),
	}
	g.build()

	slices.Sort(g.disallowed)
	return &Site{Pages: g.pages, Disallowed: g.disallowed, opts: opts}
}

// Paths returns every page path in sorted order.
func (s *Site) Paths() []string {
	paths := make([]string, 0, len(s.Pages))
	for p := range s.Pages {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// IsDisallowed reports whether robots.txt disallows p.
func (s *Site) IsDisallowed(p string) bool {
	_, found := slices.BinarySearch(s.Disallowed, p)
	return found
}

// URLPath returns the path a crawler reaches page p under: index pages
// are linked by their directory.
func URLPath(p string) string {
	if path.Base(p) == "index.html" {
		return strings.TrimSuffix(p, "index.html")
	}
	return p
}

// RobotsTxt returns the robots.txt content.
func (s *Site) RobotsTxt() []byte {
	var sb strings.Builder
	sb.WriteString("User-agent: *\n")
	if s.opts.CrawlDelay > 0 {
		fmt.Fprintf(&sb, "Crawl-delay: %g\n", s.opts.CrawlDelay.Seconds())
	}
	for _, p := range s.Disallowed {
		fmt.Fprintf(&sb, "Disallow: %s\n", p)
	}
	return []byte(sb.String())
}

type sitemapURL struct {
	Loc        string  `xml:"loc"`
	ChangeFreq string  `xml:"changefreq"`
	Priority   float64 `xml:"priority"`
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"http://www.sitemaps.org/schemas/sitemap/0.9 urlset"`
	URLs    []sitemapURL `xml:"url"`
}

// Sitemap returns a sitemap.xml listing every allowed page under baseURL.
func (s *Site) Sitemap(baseURL string) []byte {
	baseURL = strings.TrimSuffix(baseURL, "/")
	freqs := []string{"daily", "weekly", "monthly"}

	set := sitemapURLSet{}
	for i, p := range s.Paths() {
		if s.IsDisallowed(p) {
			continue
		}
		priority := 0.5
		if strings.Count(p, "/") <= 2 {
			priority = 0.8
		}
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        baseURL + URLPath(p),
			ChangeFreq: freqs[i%len(freqs)],
			Priority:   priority,
		})
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	_ = enc.Encode(set)
	buf.WriteByte('\n')
	return buf.Bytes()
}

// Handler serves the site. sitemap.xml locations use the request host.
func (s *Site) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = w.Write(s.RobotsTxt())
			return
		case "/sitemap.xml":
			w.Header().Set("Content-Type", "application/xml")
			_, _ = w.Write(s.Sitemap("http://" + r.Host))
			return
		}

		p := r.URL.Path
		if strings.HasSuffix(p, "/") {
			p += "index.html"
		}
		content, ok := s.Pages[p]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(content)
	})
}

// Write stores the site under dir, including robots.txt and sitemap.xml.
func (s *Site) Write(dir string) error {
	files := map[string][]byte{
		"/robots.txt":  s.RobotsTxt(),
		"/sitemap.xml": s.Sitemap(s.opts.BaseURL),
	}
	for p, content := range s.Pages {
		files[p] = content
	}

	for p, content := range files {
		target := filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(p, "/")))
		if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", p, err)
		}
		if err := os.WriteFile(target, content, 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", p, err)
		}
	}
	return nil
}

type generator struct {
	opts       Options
	rng        *rand.Rand
	pages      map[string][]byte
	disallowed []string
}

func (g *generator) build() {
	g.addPage("/index.html", 0, "", true)
	for i := 1; i <= g.opts.TopLevelPages; i++ {
		g.addPage(fmt.Sprintf("/page%d.html", i), 0, "", true)
	}
	for s := 1; s <= g.opts.Sections; s++ {
		section := fmt.Sprintf("section%d", s)
		g.addPage("/"+section+"/index.html", 0, section, true)
		for i := 1; i <= g.opts.PagesPerSection; i++ {
			g.addPage(fmt.Sprintf("/%s/page%d.html", section, i), 1, section, false)
		}
	}
}

// addPage renders the page at p and, when withChildren is set, its child
// pages down to MaxDepth.
func (g *generator) addPage(p string, depth int, section string, withChildren bool) {
	if depth >= 3 && g.rng.Float64() < g.opts.DisallowRatio {
		g.disallowed = append(g.disallowed, p)
	}

	var children []link
	if withChildren && depth < g.opts.MaxDepth && g.opts.MaxChildren > 0 {
		dir := strings.TrimSuffix(p, ".html")
		if path.Base(p) == "index.html" {
			dir = path.Dir(p)
		}
		n := 1 + g.rng.IntN(g.opts.MaxChildren)
		for i := 1; i <= n; i++ {
			child := path.Join(dir, fmt.Sprintf("sub%d.html", i))
			children = append(children, link{Href: child, Text: fmt.Sprintf("Child page %d (depth %d)", i, depth+1)})
			g.addPage(child, depth+1, section, true)
		}
	}

	if depth <= 1 && g.opts.Sections > 0 && g.opts.PagesPerSection > 0 && g.rng.Float64() < 0.7 {
		s := 1 + g.rng.IntN(g.opts.Sections)
		i := 1 + g.rng.IntN(g.opts.PagesPerSection)
		children = append(children, link{
			Href: fmt.Sprintf("/section%d/page%d.html", s, i),
			Text: fmt.Sprintf("Random link to Section %d", s),
		})
	}

	g.pages[p] = g.render(p, depth, section, children)
}

type link struct {
	Href string
	Text string
}

type pageData struct {
	Title    string
	Heading  string
	Depth    int
	Category string
	Nav      []link
	Links    []link
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>{{.Title}}</title>
    <meta name="description" content="Test page for web crawler - Depth {{.Depth}}">
    <meta property="og:title" content="{{.Title}}">
</head>
<body>
    <header><nav><ul>{{range .Nav}}
        <li><a href="{{.Href}}">{{.Text}}</a></li>{{end}}
    </ul></nav></header>
    <main>
        <h1>{{.Heading}}</h1>
        <p>This is a test page at depth {{.Depth}}.</p>
        <p>Category: {{.Category}}</p>
        {{if .Links}}<h2>Subpages</h2><ul>{{range .Links}}
            <li><a href="{{.Href}}">{{.Text}}</a></li>{{end}}
        </ul>{{else}}<p>No subpages available.</p>{{end}}
    </main>
    <footer><p>Test Site for Web Crawler - Page depth: {{.Depth}}</p></footer>
</body>
</html>
`))

func (g *generator) render(p string, depth int, section string, links []link) []byte {
	name := strings.TrimSuffix(path.Base(p), ".html")
	category := "Main"
	if section != "" {
		category = "Section " + strings.TrimPrefix(section, "section")
	}

	data := pageData{
		Title:    category + " - " + name,
		Heading:  category + " - " + name,
		Depth:    depth,
		Category: category,
		Nav:      g.navigation(p),
		Links:    links,
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		panic(fmt.Sprintf("testsite: render %s: %v", p, err))
	}
	return buf.Bytes()
}

func (g *generator) navigation(current string) []link {
	nav := []link{{Href: "/", Text: "Home"}}
	for i := 1; i <= g.opts.TopLevelPages; i++ {
		href := fmt.Sprintf("/page%d.html", i)
		if href != current {
			nav = append(nav, link{Href: href, Text: fmt.Sprintf("Page %d", i)})
		}
	}
	for s := 1; s <= g.opts.Sections; s++ {
		nav = append(nav, link{Href: fmt.Sprintf("/section%d/", s), Text: fmt.Sprintf("Section %d", s)})
	}
	return nav
}
