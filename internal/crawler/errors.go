package crawler

import "errors"

// ErrInvalidStartURL is returned by Crawl when the start URL cannot be
// parsed, is not http(s), or has no host.
var ErrInvalidStartURL = errors.New("invalid start URL")
