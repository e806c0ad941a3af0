// Package testsite generates a synthetic website for exercising the
// crawler: a home page, top-level pages, sections with their own pages,
// and nested child pages down to a configurable depth. Some deep pages are
// disallowed in robots.txt and left out of sitemap.xml.
//
// Generation is deterministic for a given seed. The site can be written to
// a directory or served directly with Handler.
package testsite
