// Package metrics exports crawl progress as Prometheus metrics.
//
// Recorder implements crawler.Recorder on a private registry, so several
// recorders can coexist in one process and in tests. Server exposes the
// registry on /metrics next to a /healthz probe.
package metrics
