package sitemap

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
)

// Kind identifies the root element of a sitemap document.
type Kind int

const (
	// KindURLSet is a regular sitemap listing page URLs.
	KindURLSet Kind = iota
	// KindIndex is a sitemap index listing child sitemaps.
	KindIndex
)

// String returns the root element name for k.
func (k Kind) String() string {
	if k == KindIndex {
		return "sitemapindex"
	}
	return "urlset"
}

// Entry is one <url> element of a urlset.
type Entry struct {
	Loc        string
	LastMod    string
	ChangeFreq string
	// Priority is nil when absent or not a number.
	Priority *float64
}

// Document is a parsed sitemap. Entries is set for a urlset and Sitemaps
// for an index, both with locations resolved to absolute URLs.
type Document struct {
	Kind     Kind
	Entries  []Entry
	Sitemaps []string
}

type xmlDocument struct {
	XMLName  xml.Name
	URLs     []xmlURL     `xml:"url"`
	Sitemaps []xmlSitemap `xml:"sitemap"`
}

type xmlURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

type xmlSitemap struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod"`
}

// Parse decodes a sitemap or sitemap index read from r. Relative <loc>
// values are resolved against baseURL; entries without a usable <loc> are
// skipped. Any root other than sitemapindex is read as a urlset.
func Parse(r io.Reader, baseURL string) (*Document, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}

	var raw xmlDocument
	if err := xml.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDocument
		}
		return nil, fmt.Errorf("failed to decode sitemap: %w", err)
	}

	doc := &Document{Kind: KindURLSet}
	if strings.EqualFold(raw.XMLName.Local, "sitemapindex") {
		doc.Kind = KindIndex
		for _, sm := range raw.Sitemaps {
			if loc, ok := resolve(base, sm.Loc); ok {
				doc.Sitemaps = append(doc.Sitemaps, loc)
			}
		}
		return doc, nil
	}

	for _, u := range raw.URLs {
		loc, ok := resolve(base, u.Loc)
		if !ok {
			continue
		}
		doc.Entries = append(doc.Entries, Entry{
			Loc:        loc,
			LastMod:    strings.TrimSpace(u.LastMod),
			ChangeFreq: strings.TrimSpace(u.ChangeFreq),
			Priority:   parsePriority(u.Priority),
		})
	}
	return doc, nil
}

func resolve(base *url.URL, loc string) (string, bool) {
	loc = strings.TrimSpace(loc)
	if loc == "" {
		return "", false
	}
	ref, err := url.Parse(loc)
	if err != nil {
		return "", false
	}
	return base.ResolveReference(ref).String(), true
}

func parsePriority(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	p, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &p
}
