package report

import (
	"encoding/json"
	"io"

	"github.com/spiralhouse/scraper/internal/crawler"
)

// JSONWriter outputs statistics in JSON format.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the statistics in JSON format.
func (w *JSONWriter) Write(stats *crawler.Stats) (int, error) {
	return w.writeJSON(stats)
}

func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}

// JSONReport wraps the statistics with output metadata.
type JSONReport struct {
	// Version is the scraper version that produced the report.
	Version string `json:"version"`

	// Stats are the crawl statistics.
	Stats *crawler.Stats `json:"stats"`

	// DurationSeconds is Stats.Duration in seconds.
	DurationSeconds float64 `json:"duration_seconds"`

	// PagesPerSecond is the crawl throughput.
	PagesPerSecond float64 `json:"pages_per_second"`
}

// NewJSONReport creates a JSONReport wrapper with version information.
func NewJSONReport(stats *crawler.Stats, version string) *JSONReport {
	return &JSONReport{
		Version:         version,
		Stats:           stats,
		DurationSeconds: stats.Duration.Seconds(),
		PagesPerSecond:  stats.PagesPerSecond(),
	}
}

// FullJSONWriter outputs statistics inside a JSONReport wrapper.
type FullJSONWriter struct {
	*JSONWriter

	version string
}

// NewFullJSONWriter creates a writer for wrapped statistics.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write outputs the statistics wrapped with metadata.
func (w *FullJSONWriter) Write(stats *crawler.Stats) (int, error) {
	return w.writeJSON(NewJSONReport(stats, w.version))
}
