package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/spiralhouse/scraper/internal/crawler"
)

const namespace = "scraper"

// Recorder holds the crawl metrics.
type Recorder struct {
	registry *prometheus.Registry

	urlsProcessed *prometheus.CounterVec
	fetchesTotal  *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	frontierSize  prometheus.Gauge
}

// NewRecorder creates a Recorder with its own registry, which also carries
// the Go runtime and process collectors.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		urlsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "urls_processed_total",
			Help:      "URLs dispatched to a worker, by outcome.",
		}, []string{"outcome"}),
		fetchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "Network fetches, by HTTP status code. Transport errors use code \"error\".",
		}, []string{"code"}),
		fetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of network fetches including retries.",
			Buckets:   prometheus.DefBuckets,
		}),
		frontierSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "frontier_urls",
			Help:      "URLs queued and waiting for a worker.",
		}),
	}
}

// Registry returns the registry holding the crawl metrics.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// URLProcessed implements crawler.Recorder.
func (r *Recorder) URLProcessed(outcome crawler.Outcome) {
	r.urlsProcessed.WithLabelValues(string(outcome)).Inc()
}

// FetchObserved implements crawler.Recorder.
func (r *Recorder) FetchObserved(status int, elapsed time.Duration, err error) {
	code := strconv.Itoa(status)
	if err != nil {
		code = "error"
	}
	r.fetchesTotal.WithLabelValues(code).Inc()
	r.fetchDuration.Observe(elapsed.Seconds())
}

// FrontierChanged implements crawler.Recorder.
func (r *Recorder) FrontierChanged(queued int) {
	r.frontierSize.Set(float64(queued))
}
