package parser

import (
	"net/url"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// linkSelector matches every element whose URL attribute is followed.
const linkSelector = "a[href], img[src], script[src], link[href]"

// Result is the information extracted from one page.
type Result struct {
	// Links holds absolute http(s) URLs without fragments, deduplicated and sorted.
	Links []string

	// Title is the trimmed text of the first <title> element.
	Title string

	// Metadata maps lower-cased meta name or property to content.
	Metadata map[string]string
}

// HTMLParser implements the crawler's page parser. It holds no state and
// is safe for concurrent use.
type HTMLParser struct{}

// New creates an HTMLParser.
func New() *HTMLParser {
	return &HTMLParser{}
}

// Parse extracts links, title and metadata from content. Relative links are
// resolved against baseURL.
func (p *HTMLParser) Parse(baseURL, content string) *Result {
	result := &Result{
		Links:    []string{},
		Metadata: make(map[string]string),
	}
	if strings.TrimSpace(content) == "" {
		return result
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return result
	}

	root, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return result
	}
	doc := goquery.NewDocumentFromNode(root)

	// <base href> changes the resolution base for the whole document.
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if ref, err := url.Parse(strings.TrimSpace(href)); err == nil {
			base = base.ResolveReference(ref)
		}
	}

	result.Title = strings.TrimSpace(doc.Find("title").First().Text())
	result.Links = extractLinks(doc, base)
	result.Metadata = extractMetadata(doc)
	return result
}

func extractLinks(doc *goquery.Document, base *url.URL) []string {
	seen := make(map[string]struct{})
	doc.Find(linkSelector).Each(func(_ int, s *goquery.Selection) {
		attr := "href"
		if goquery.NodeName(s) == "img" || goquery.NodeName(s) == "script" {
			attr = "src"
		}
		raw, _ := s.Attr(attr)
		if link, ok := Normalize(base, raw); ok {
			seen[link] = struct{}{}
		}
	})

	links := make([]string, 0, len(seen))
	for link := range seen {
		links = append(links, link)
	}
	slices.Sort(links)
	return links
}

// Normalize resolves href against base and drops the fragment. It reports
// false for empty and fragment-only references, for schemes other than
// http and https, and for results without a host.
func Normalize(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if ref.Scheme != "" && ref.Scheme != "http" && ref.Scheme != "https" {
		return "", false
	}

	u := base.ResolveReference(ref)
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", false
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), true
}

func extractMetadata(doc *goquery.Document) map[string]string {
	lower := cases.Lower(language.Und)
	meta := make(map[string]string)

	doc.Find("meta[content]").Each(func(_ int, s *goquery.Selection) {
		content, _ := s.Attr("content")
		if content == "" {
			return
		}
		key, _ := s.Attr("name")
		if key == "" {
			key, _ = s.Attr("property")
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return
		}
		meta[lower.String(key)] = content
	})
	return meta
}
