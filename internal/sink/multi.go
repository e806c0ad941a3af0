package sink

import "github.com/spiralhouse/scraper/internal/crawler"

// MultiSink hands each page to every sink in order.
type MultiSink struct {
	sinks []crawler.Sink
}

// Multi combines sinks. Nil sinks are dropped.
func Multi(sinks ...crawler.Sink) *MultiSink {
	m := &MultiSink{sinks: make([]crawler.Sink, 0, len(sinks))}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Len returns the number of combined sinks.
func (m *MultiSink) Len() int {
	return len(m.sinks)
}

// PageCrawled forwards the page to every sink.
func (m *MultiSink) PageCrawled(url string, page *crawler.PageResult) {
	for _, s := range m.sinks {
		s.PageCrawled(url, page)
	}
}
