package cache

import (
	"encoding/json"
	"fmt"
	"maps"
	"time"
)

// Entry is one cached response.
type Entry struct {
	// URL is the cache key.
	URL string

	// Content is the decoded response body.
	Content string

	// StatusCode is the HTTP status of the response.
	StatusCode int

	// Headers are the response headers, one value per name.
	Headers map[string]string

	// Timestamp is when the entry was written. Persistent stores keep
	// whole seconds only.
	Timestamp time.Time
}

func (e *Entry) clone() *Entry {
	c := *e
	c.Headers = maps.Clone(e.Headers)
	return &c
}

// record is the serialized form shared by the Redis backend and the
// header column of the SQL backends.
type record struct {
	URL        string            `json:"url"`
	Content    string            `json:"content"`
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers"`
	Timestamp  int64             `json:"timestamp"`
}

func newRecord(e *Entry) record {
	return record{
		URL:        e.URL,
		Content:    e.Content,
		StatusCode: e.StatusCode,
		Headers:    e.Headers,
		Timestamp:  e.Timestamp.Unix(),
	}
}

func (r record) entry() *Entry {
	return &Entry{
		URL:        r.URL,
		Content:    r.Content,
		StatusCode: r.StatusCode,
		Headers:    r.Headers,
		Timestamp:  time.Unix(r.Timestamp, 0),
	}
}

// encodeHeaders serializes headers as a JSON object. Keys come out sorted.
func encodeHeaders(h map[string]string) (string, error) {
	if h == nil {
		h = map[string]string{}
	}
	data, err := json.Marshal(h)
	if err != nil {
		return "", fmt.Errorf("failed to serialize headers: %w", err)
	}
	return string(data), nil
}

func decodeHeaders(s string) (map[string]string, error) {
	headers := map[string]string{}
	if s == "" {
		return headers, nil
	}
	if err := json.Unmarshal([]byte(s), &headers); err != nil {
		return nil, fmt.Errorf("failed to parse headers: %w", err)
	}
	return headers, nil
}
