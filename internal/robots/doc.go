// Package robots answers robots.txt permission and crawl-delay queries.
//
// Rules are fetched from scheme://host/robots.txt the first time a host is
// queried and kept for the lifetime of the Policy. A missing robots.txt
// allows everything; a failed fetch is remembered and also allows
// everything, so a host is never asked twice.
package robots
