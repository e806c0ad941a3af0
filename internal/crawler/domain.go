package crawler

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// IsAllowedDomain reports whether rawURL may be crawled from a run whose
// start host is baseDomain. The host must equal baseDomain, or be a
// subdomain of it when allowSubdomains is set; allowExternal admits any
// host. URLs that cannot be parsed or have no host are rejected.
func IsAllowedDomain(rawURL, baseDomain string, allowSubdomains, allowExternal bool) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Host)
	base := strings.ToLower(baseDomain)

	if host == base {
		return true
	}
	if allowSubdomains && strings.HasSuffix(host, "."+base) {
		return true
	}
	return allowExternal
}

// NormalizeStartURL turns user input into the canonical start URL and
// returns it with its base domain (lower-cased host, port included).
// A missing scheme defaults to http. The fragment is dropped and an empty
// path becomes "/".
func NormalizeStartURL(raw string) (normalized, baseDomain string, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", fmt.Errorf("%w: empty", ErrInvalidStartURL)
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrInvalidStartURL, err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidStartURL, u.Scheme)
	}
	if u.Hostname() == "" {
		return "", "", fmt.Errorf("%w: missing host in %q", ErrInvalidStartURL, raw)
	}

	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String(), u.Host, nil
}

// normalizeSeed canonicalizes a sitemap URL or discovered link the same
// way as the start URL so all of them dedupe against each other. Unusable
// URLs are reported as false.
func normalizeSeed(raw string) (string, bool) {
	if !strings.Contains(raw, "://") {
		return "", false
	}
	normalized, _, err := NormalizeStartURL(raw)
	if err != nil {
		return "", false
	}
	return normalized, true
}

// pathFilter decides whether a discovered link is followed based on glob
// patterns matched against its path. Ignore patterns win over follow
// patterns; with no follow patterns every path not ignored is followed.
type pathFilter struct {
	ignore []string
	follow []string
}

func (f pathFilter) allows(rawURL string) bool {
	if len(f.ignore) == 0 && len(f.follow) == 0 {
		return true
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	path := u.Path
	if path == "" {
		path = "/"
	}

	for _, pattern := range f.ignore {
		if matchPattern(pattern, path) {
			return false
		}
	}
	if len(f.follow) == 0 {
		return true
	}
	for _, pattern := range f.follow {
		if matchPattern(pattern, path) {
			return true
		}
	}
	return false
}

// matchPattern reports whether path matches a glob pattern.
//
//   - "/admin/*" matches "/admin" and everything below it
//   - "*.pdf" matches any path ending in .pdf
//   - other patterns use filepath.Match, where * stays within one segment
//     and ? matches one character
func matchPattern(pattern, path string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}

	if ext, ok := strings.CutPrefix(pattern, "*"); ok && strings.HasPrefix(ext, ".") && !strings.ContainsAny(ext, "*?[") {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}

	if matched, err := filepath.Match(pattern, path); err == nil && matched {
		return true
	}

	// Patterns without a slash also match the last path segment.
	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		if matched, err := filepath.Match(pattern, filepath.Base(path)); err == nil && matched {
			return true
		}
	}
	return false
}
