package fetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/proxy"
	"golang.org/x/net/publicsuffix"
)

// maxRedirects is the number of redirects followed before the last
// response is returned as is.
const maxRedirects = 10

// SiteSettings returns the cookie and extra headers to send to host.
type SiteSettings func(host string) (cookie string, headers map[string]string)

// newHTTPClient builds the client used by HTTPFetcher.
func newHTTPClient(timeout time.Duration, proxyURL string, sites SiteSettings) (*http.Client, error) {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: time.Second,
		// Bodies are decoded by HTTPFetcher, which also handles brotli.
		DisableCompression: true,
	}

	if strings.TrimSpace(proxyURL) != "" {
		if err := configureProxy(transport, proxyURL); err != nil {
			return nil, err
		}
	}

	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List}) //nolint:errcheck // cookiejar.New never fails

	var rt http.RoundTripper = transport
	if sites != nil {
		rt = &headerInjectingTransport{base: transport, sites: sites}
	}

	return &http.Client{
		Transport: rt,
		Timeout:   timeout,
		Jar:       jar,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}, nil
}

// configureProxy routes transport through proxyURL. HTTP proxies use the
// standard Proxy hook; SOCKS5 proxies replace the dialer.
func configureProxy(transport *http.Transport, proxyURL string) error {
	u, err := url.Parse(proxyURL)
	if err != nil || u.Host == "" {
		return ErrInvalidProxyURL
	}

	switch u.Scheme {
	case "http", "https":
		transport.Proxy = http.ProxyURL(u)
	case "socks5", "socks5h":
		dialer, err := proxy.FromURL(u, proxy.Direct)
		if err != nil {
			return fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			transport.DialContext = cd.DialContext
		} else {
			transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}
		}
	default:
		return ErrInvalidProxyURL
	}
	return nil
}

// headerInjectingTransport adds the configured cookie and headers of the
// request's host.
type headerInjectingTransport struct {
	base  http.RoundTripper
	sites SiteSettings
}

// RoundTrip implements http.RoundTripper.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	cookie, headers := t.sites(req.URL.Hostname())
	if cookie == "" && len(headers) == 0 {
		return t.base.RoundTrip(req)
	}

	clone := req.Clone(req.Context())
	if cookie != "" {
		if existing := clone.Header.Get("Cookie"); existing != "" {
			clone.Header.Set("Cookie", existing+"; "+cookie)
		} else {
			clone.Header.Set("Cookie", cookie)
		}
	}
	for k, v := range headers {
		clone.Header.Set(k, v)
	}
	return t.base.RoundTrip(clone)
}
