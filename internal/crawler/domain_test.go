package crawler

import (
	"errors"
	"testing"
)

func TestIsAllowedDomain(t *testing.T) {
	t.Parallel()

	const base = "example.com"
	same := "https://example.com/x"
	sub := "https://sub.example.com/x"
	external := "https://other.org/x"

	tests := []struct {
		name            string
		url             string
		allowSubdomains bool
		allowExternal   bool
		want            bool
	}{
		{"same host, no flags", same, false, false, true},
		{"same host, subdomains", same, true, false, true},
		{"same host, external", same, false, true, true},
		{"same host, both", same, true, true, true},

		{"subdomain, no flags", sub, false, false, false},
		{"subdomain, subdomains", sub, true, false, true},
		{"subdomain, external", sub, false, true, true},
		{"subdomain, both", sub, true, true, true},

		{"external, no flags", external, false, false, false},
		{"external, subdomains", external, true, false, false},
		{"external, external", external, false, true, true},
		{"external, both", external, true, true, true},

		{"case insensitive host", "https://EXAMPLE.com/x", false, false, true},
		{"suffix without dot is not a subdomain", "https://badexample.com/", true, false, false},
		{"port must match", "https://example.com:8443/", false, false, false},
		{"relative URL has no host", "/x", true, true, false},
		{"unparseable URL", "http://[::1", true, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := IsAllowedDomain(tt.url, base, tt.allowSubdomains, tt.allowExternal)
			if got != tt.want {
				t.Errorf("IsAllowedDomain(%q, %q, %v, %v) = %v, want %v",
					tt.url, base, tt.allowSubdomains, tt.allowExternal, got, tt.want)
			}
		})
	}
}

func TestNormalizeStartURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		in       string
		want     string
		wantBase string
		wantErr  bool
	}{
		{name: "adds default scheme", in: "example.com", want: "http://example.com/", wantBase: "example.com"},
		{name: "lower-cases scheme and host", in: "HTTPS://Example.COM/Path", want: "https://example.com/Path", wantBase: "example.com"},
		{name: "drops fragment", in: "http://example.com/a#top", want: "http://example.com/a", wantBase: "example.com"},
		{name: "keeps port in base domain", in: "http://127.0.0.1:8080", want: "http://127.0.0.1:8080/", wantBase: "127.0.0.1:8080"},
		{name: "keeps query", in: "http://example.com/?q=1", want: "http://example.com/?q=1", wantBase: "example.com"},
		{name: "trims whitespace", in: "  http://example.com/ ", want: "http://example.com/", wantBase: "example.com"},
		{name: "empty", in: "", wantErr: true},
		{name: "unsupported scheme", in: "ftp://example.com/", wantErr: true},
		{name: "missing host", in: "http:///path", wantErr: true},
		{name: "unparseable", in: "http://[::1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, base, err := NormalizeStartURL(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidStartURL) {
					t.Errorf("expected ErrInvalidStartURL, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want || base != tt.wantBase {
				t.Errorf("NormalizeStartURL(%q) = %q, %q; want %q, %q", tt.in, got, base, tt.want, tt.wantBase)
			}
		})
	}
}

func TestMatchPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern string
		path    string
		want    bool
	}{
		{"prefix match", "/admin/*", "/admin/dashboard", true},
		{"prefix exact", "/admin/*", "/admin", true},
		{"prefix nested", "/admin/*", "/admin/users/edit", true},
		{"prefix no match", "/admin/*", "/user/profile", false},
		{"prefix partial word", "/admin/*", "/administrator", false},

		{"extension", "*.pdf", "/docs/file.pdf", true},
		{"extension nested", "*.pdf", "/a/b/c/report.pdf", true},
		{"extension no match", "*.pdf", "/docs/file.txt", false},

		{"exact", "/logout", "/logout", true},
		{"exact no match", "/logout", "/login", false},

		{"single char wildcard", "/api/v?/users", "/api/v1/users", true},
		{"single char wildcard too long", "/api/v?/users", "/api/v10/users", false},

		{"root", "/", "/", true},
		{"root does not match prefix", "/admin/*", "/", false},
		{"filename glob", "report-*", "/files/report-2024", true},
		{"bad pattern", "[", "/x", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := matchPattern(tt.pattern, tt.path); got != tt.want {
				t.Errorf("matchPattern(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
			}
		})
	}
}

func TestPathFilter(t *testing.T) {
	t.Parallel()

	t.Run("no patterns allows all", func(t *testing.T) {
		t.Parallel()

		if !(pathFilter{}).allows("http://example.com/any/path") {
			t.Error("expected all URLs to be allowed")
		}
	})

	t.Run("ignore patterns block matching URLs", func(t *testing.T) {
		t.Parallel()

		f := pathFilter{ignore: []string{"/admin/*", "*.pdf"}}
		tests := []struct {
			url  string
			want bool
		}{
			{"http://example.com/admin/users", false},
			{"http://example.com/docs/file.pdf", false},
			{"http://example.com/public/page", true},
		}
		for _, tt := range tests {
			if got := f.allows(tt.url); got != tt.want {
				t.Errorf("allows(%q) = %v, want %v", tt.url, got, tt.want)
			}
		}
	})

	t.Run("ignore takes precedence over follow", func(t *testing.T) {
		t.Parallel()

		f := pathFilter{ignore: []string{"/api/internal/*"}, follow: []string{"/api/*"}}
		tests := []struct {
			url  string
			want bool
		}{
			{"http://example.com/api/v1/users", true},
			{"http://example.com/api/internal/secret", false},
			{"http://example.com/public/page", false},
		}
		for _, tt := range tests {
			if got := f.allows(tt.url); got != tt.want {
				t.Errorf("allows(%q) = %v, want %v", tt.url, got, tt.want)
			}
		}
	})

	t.Run("empty path treated as root", func(t *testing.T) {
		t.Parallel()

		if !(pathFilter{follow: []string{"/"}}).allows("http://example.com") {
			t.Error("expected empty path to match root pattern")
		}
	})
}
