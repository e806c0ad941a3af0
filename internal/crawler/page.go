package crawler

// PageResult describes one successfully crawled page. It is handed to the
// Sink and must not be modified afterwards.
type PageResult struct {
	URL        string            `json:"url"`
	StatusCode int               `json:"status_code"`
	Title      string            `json:"title"`
	Depth      int               `json:"depth"`
	Metadata   map[string]string `json:"metadata"`
	// Links holds every link extracted from the page, before domain admission.
	Links []string `json:"links"`
}
