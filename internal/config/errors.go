package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so callers can use
// errors.Is() while still printing a human-readable message.
var (
	// ErrNoStartURL is returned when no start URL is given.
	ErrNoStartURL = errors.New("no start URL specified")

	// ErrInvalidStartURL is returned when the start URL is not an absolute
	// http or https URL.
	ErrInvalidStartURL = errors.New("invalid start URL: must be an http or https URL with a host")

	// ErrInvalidDepth is returned when the maximum depth is below 1.
	// Depth 1 means only the start page is crawled.
	ErrInvalidDepth = errors.New("invalid depth: must be at least 1")

	// ErrInvalidConcurrency is returned when the concurrency limit is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidWorkers is returned when the worker count is negative.
	ErrInvalidWorkers = errors.New("invalid workers: must be non-negative")

	// ErrInvalidDelay is returned when the request delay is negative.
	// Use 0 for no delay between requests.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidRateLimit is returned when the rate limit is negative.
	ErrInvalidRateLimit = errors.New("invalid rate limit: must be non-negative")

	// ErrInvalidMaxPages is returned when the page cap is negative.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxSubsitemaps is returned when max subsitemaps is below 1.
	ErrInvalidMaxSubsitemaps = errors.New("invalid max subsitemaps: must be at least 1")

	// ErrInvalidSitemapTimeout is returned when the sitemap timeout is not positive.
	ErrInvalidSitemapTimeout = errors.New("invalid sitemap timeout: must be positive")

	// ErrInvalidCacheExpiry is returned when the cache expiry is not positive.
	ErrInvalidCacheExpiry = errors.New("invalid cache expiry: must be positive")

	// ErrUnknownCacheBackend is returned for a cache backend other than
	// sqlite, redis or postgres.
	ErrUnknownCacheBackend = errors.New("unknown cache backend: must be sqlite, redis or postgres")

	// ErrMissingPostgresDSN is returned when the postgres backend is chosen
	// without a DSN.
	ErrMissingPostgresDSN = errors.New("postgres cache backend requires a DSN")

	// ErrUnknownReportFormat is returned for a report format other than
	// text, json or markdown.
	ErrUnknownReportFormat = errors.New("unknown report format: must be text, json or markdown")
)
