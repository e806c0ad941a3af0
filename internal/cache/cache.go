package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultExpiry is how long an entry stays fresh when WithExpiry is not given.
const DefaultExpiry = 24 * time.Hour

// Store is the persistent tier of the Cache.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the entry for url, or nil and no error when absent.
	Get(ctx context.Context, url string) (*Entry, error)

	// Put inserts or replaces the entry keyed by its URL.
	Put(ctx context.Context, entry *Entry) error

	// Delete removes the entry for url. Deleting a missing entry is not an error.
	Delete(ctx context.Context, url string) error

	// DeleteOlderThan removes every entry written at or before cutoff and
	// returns the removed URLs.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]string, error)

	// Clear removes every entry.
	Clear(ctx context.Context) error

	// Close releases the backing connection.
	Close() error
}

// Cache maps URLs to their last fetched response across two tiers.
// It is safe for concurrent use.
type Cache struct {
	// mu guards memory.
	mu     sync.Mutex
	memory map[string]*Entry

	// store is the persistent tier, nil when running memory-only.
	store Store

	expiry time.Duration
	now    func() time.Time
	logger *slog.Logger
	opener func() (Store, error)
}

// Option configures a Cache.
type Option func(*Cache)

// WithExpiry sets how long entries stay fresh.
func WithExpiry(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.expiry = d
		}
	}
}

// WithStore enables the persistent tier. open is called once by New; if it
// fails the Cache runs memory-only.
func WithStore(open func() (Store, error)) Option {
	return func(c *Cache) {
		c.opener = open
	}
}

// WithLogger sets the logger for degraded-mode warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a Cache. Without WithStore it is memory-only.
func New(opts ...Option) *Cache {
	c := &Cache{
		memory: make(map[string]*Entry),
		expiry: DefaultExpiry,
		now:    time.Now,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.opener != nil {
		store, err := c.opener()
		if err != nil {
			c.logger.Warn("persistent cache unavailable, using memory only", "error", err)
		} else {
			c.store = store
		}
		c.opener = nil
	}
	return c
}

// Persistent reports whether the persistent tier is in use.
func (c *Cache) Persistent() bool {
	return c.store != nil
}

// Expiry returns the freshness window.
func (c *Cache) Expiry() time.Duration {
	return c.expiry
}

func (c *Cache) fresh(e *Entry, now time.Time) bool {
	return now.Sub(e.Timestamp) < c.expiry
}

// Get returns a fresh entry for url. Stale entries found on the way are
// evicted from the tier that held them. Persistent-tier errors are logged
// and reported as a miss.
func (c *Cache) Get(ctx context.Context, url string) (*Entry, bool) {
	now := c.now()

	c.mu.Lock()
	if e, ok := c.memory[url]; ok {
		if c.fresh(e, now) {
			c.mu.Unlock()
			return e.clone(), true
		}
		delete(c.memory, url)
	}
	c.mu.Unlock()

	if c.store == nil {
		return nil, false
	}

	e, err := c.store.Get(ctx, url)
	if err != nil {
		c.logger.Warn("cache read failed", "url", url, "error", err)
		return nil, false
	}
	if e == nil {
		return nil, false
	}
	if !c.fresh(e, now) {
		if err := c.store.Delete(ctx, url); err != nil {
			c.logger.Warn("cache eviction failed", "url", url, "error", err)
		}
		return nil, false
	}

	c.mu.Lock()
	c.memory[url] = e
	c.mu.Unlock()
	return e.clone(), true
}

// Has reports whether a fresh entry exists for url, with the same
// eviction side effects as Get.
func (c *Cache) Has(ctx context.Context, url string) bool {
	_, ok := c.Get(ctx, url)
	return ok
}

// Set stores a response in both tiers with a fresh timestamp, replacing
// any previous entry for url. A persistent-tier failure is logged and the
// memory tier still holds the entry.
func (c *Cache) Set(ctx context.Context, url, content string, statusCode int, headers map[string]string) {
	e := &Entry{
		URL:        url,
		Content:    content,
		StatusCode: statusCode,
		Headers:    headers,
		Timestamp:  c.now(),
	}
	e = e.clone()

	c.mu.Lock()
	c.memory[url] = e
	c.mu.Unlock()

	if c.store == nil {
		return
	}
	if err := c.store.Put(ctx, e); err != nil {
		c.logger.Warn("cache write failed", "url", url, "error", err)
	}
}

// Clear empties both tiers.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.memory = make(map[string]*Entry)
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear persistent cache: %w", err)
	}
	return nil
}

// ClearExpired removes stale entries from both tiers and returns how many
// distinct URLs were removed. A URL stale in both tiers counts once.
func (c *Cache) ClearExpired(ctx context.Context) (int, error) {
	now := c.now()
	removed := make(map[string]struct{})

	c.mu.Lock()
	for url, e := range c.memory {
		if !c.fresh(e, now) {
			delete(c.memory, url)
			removed[url] = struct{}{}
		}
	}
	c.mu.Unlock()

	if c.store != nil {
		urls, err := c.store.DeleteOlderThan(ctx, now.Add(-c.expiry))
		if err != nil {
			return len(removed), fmt.Errorf("failed to clear expired entries: %w", err)
		}
		for _, url := range urls {
			removed[url] = struct{}{}
		}
	}
	return len(removed), nil
}

// Len returns the number of entries in the memory tier.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.memory)
}

// Close releases the persistent tier. The Cache must not be used afterwards.
func (c *Cache) Close() error {
	if c.store == nil {
		return nil
	}
	err := c.store.Close()
	c.store = nil
	return err
}
