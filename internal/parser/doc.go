// Package parser extracts links, the title and meta tags from HTML pages.
//
// Parsing uses golang.org/x/net/html, which tolerates the malformed markup
// common on the web, with goquery selectors on top of the parsed tree.
// A page that cannot be parsed yields an empty Result rather than an error,
// so one bad page never stops a crawl.
package parser
