package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"
)

// Default option values.
const (
	DefaultUserAgent   = "ScraperBot (https://github.com/spiralhouse/scraper)"
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultBackoff     = 300 * time.Millisecond
	DefaultMaxBodySize = 10 * 1024 * 1024
)

// retryableStatus lists the statuses that are retried with backoff.
var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// defaultHeaders are sent with every request unless overridden per site.
var defaultHeaders = map[string]string{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.5",
	"Accept-Encoding":           "gzip, deflate, br",
	"Upgrade-Insecure-Requests": "1",
}

// Response is a fetched page.
type Response struct {
	// URL is the final URL after redirects.
	URL string

	// StatusCode is the HTTP status code.
	StatusCode int

	// Content is the decoded body, converted to UTF-8 for text types.
	Content string

	// Headers holds one value per header name; repeated headers are joined with ", ".
	Headers map[string]string
}

// Options configures an HTTPFetcher.
type Options struct {
	// UserAgent is sent with every request.
	UserAgent string

	// Timeout bounds each attempt.
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt.
	// Negative disables retries.
	MaxRetries int

	// Backoff is the delay before the first retry; it doubles each retry.
	Backoff time.Duration

	// MaxBodySize truncates bodies larger than this many bytes.
	MaxBodySize int64

	// ProxyURL routes requests through an http, https or socks5 proxy.
	ProxyURL string

	// Sites supplies per-host cookies and headers.
	Sites SiteSettings

	// Logger receives retry diagnostics.
	Logger *slog.Logger
}

// HTTPFetcher fetches pages over HTTP. It is safe for concurrent use.
type HTTPFetcher struct {
	client      *http.Client
	userAgent   string
	maxRetries  int
	backoff     time.Duration
	maxBodySize int64
	logger      *slog.Logger

	// sleep waits for d or until ctx is done.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an HTTPFetcher. Zero options take their defaults.
func New(opts Options) (*HTTPFetcher, error) {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Backoff <= 0 {
		opts.Backoff = DefaultBackoff
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = DefaultMaxBodySize
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	client, err := newHTTPClient(opts.Timeout, opts.ProxyURL, opts.Sites)
	if err != nil {
		return nil, err
	}

	return &HTTPFetcher{
		client:      client,
		userAgent:   opts.UserAgent,
		maxRetries:  opts.MaxRetries,
		backoff:     opts.Backoff,
		maxBodySize: opts.MaxBodySize,
		logger:      opts.Logger,
		sleep:       sleepContext,
	}, nil
}

// Fetch GETs rawURL. Retryable statuses and transport errors are retried;
// when retries run out the last response is returned, or the last error if
// no response was received.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	for attempt := 0; ; attempt++ {
		resp, err := f.do(ctx, rawURL)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		retry := err != nil || retryableStatus[resp.StatusCode]
		if !retry || attempt >= f.maxRetries {
			return resp, err
		}

		wait := f.backoff << attempt
		f.logger.Debug("retrying request", "url", rawURL, "attempt", attempt+1, "wait", wait, "error", err)
		if err := f.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

func (f *HTTPFetcher) do(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	for k, v := range defaultHeaders {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := f.readBody(resp)
	if err != nil {
		return nil, err
	}

	headers := make(map[string]string, len(resp.Header))
	for k, v := range resp.Header {
		headers[k] = strings.Join(v, ", ")
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &Response{
		URL:        finalURL,
		StatusCode: resp.StatusCode,
		Content:    body,
		Headers:    headers,
	}, nil
}

// readBody decodes the content encoding, truncates at maxBodySize and
// converts text bodies to UTF-8.
func (f *HTTPFetcher) readBody(resp *http.Response) (string, error) {
	var reader io.Reader = resp.Body

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return "", fmt.Errorf("gzip decode: %w", err)
		}
		defer gz.Close()
		reader = gz
	case "deflate":
		fl := flate.NewReader(resp.Body)
		defer fl.Close()
		reader = fl
	case "br":
		reader = brotli.NewReader(resp.Body)
	}

	body, err := io.ReadAll(io.LimitReader(reader, f.maxBodySize))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if isText(contentType) {
		body = toUTF8(body, contentType)
	}
	return string(body), nil
}

// toUTF8 converts body using the charset from the Content-Type header, a
// BOM or an HTML meta tag. Valid UTF-8 without an explicit charset is kept.
func toUTF8(body []byte, contentType string) []byte {
	enc, name, certain := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" || (!certain && utf8.Valid(body)) {
		return body
	}
	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return body
	}
	return decoded
}

func isText(contentType string) bool {
	ct := strings.ToLower(contentType)
	return ct == "" ||
		strings.HasPrefix(ct, "text/") ||
		strings.Contains(ct, "html") ||
		strings.Contains(ct, "xml") ||
		strings.Contains(ct, "json")
}

// Close releases idle connections.
func (f *HTTPFetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
