// Package cache implements the two-tier response cache used by the crawler.
//
// The memory tier is a read-through accelerator in front of an optional
// persistent Store (SQLite by default, Redis or PostgreSQL on request).
// Entries expire a fixed duration after they were written. A Store that
// cannot be opened is not fatal: the Cache keeps working from memory and
// Persistent reports false.
package cache
