// Package sitemap discovers seed URLs from a domain's sitemap.xml.
//
// A plain urlset yields its <loc> entries directly. A sitemap index is
// expanded one level: the first N child sitemaps in document order are
// fetched concurrently and their entries unioned. The whole operation runs
// under a wall-clock deadline; when it expires, the URLs collected so far
// are returned. Discovery never fails: fetch and parse problems are logged
// and produce an empty or partial result.
package sitemap
