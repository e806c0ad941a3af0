package sitemap

import "errors"

var (
	// ErrInvalidDomainURL is returned by URL when the domain URL has no scheme or host.
	ErrInvalidDomainURL = errors.New("invalid domain URL")

	// ErrEmptyDocument is returned by Parse for a document with no root element.
	ErrEmptyDocument = errors.New("empty sitemap document")
)
