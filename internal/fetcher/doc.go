// Package fetcher performs the HTTP requests of a crawl.
//
// HTTPFetcher retries throttled and failed requests with exponential
// backoff, decodes gzip, deflate and brotli bodies, converts text bodies to
// UTF-8, and can route traffic through an http or socks5 proxy. Per-host
// cookies and headers are injected by the transport.
package fetcher
