package cache

import (
	"os"
	"testing"
	"time"
)

// storeContract runs the behavior every Store must share.
func storeContract(t *testing.T, store Store) {
	t.Helper()
	ctx := t.Context()

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	now := time.Unix(1_700_000_000, 0)
	if err := store.Put(ctx, &Entry{URL: "https://example.com/", Content: "home", StatusCode: 200,
		Headers: map[string]string{"Content-Type": "text/html"}, Timestamp: now}); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := store.Put(ctx, &Entry{URL: "https://example.com/old", Content: "old", StatusCode: 200,
		Timestamp: now.Add(-48 * time.Hour)}); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	got, err := store.Get(ctx, "https://example.com/")
	if err != nil || got == nil {
		t.Fatalf("expected entry, got %v %v", got, err)
	}
	if got.Content != "home" || got.Headers["Content-Type"] != "text/html" || !got.Timestamp.Equal(now) {
		t.Errorf("unexpected entry: %+v", got)
	}

	urls, err := store.DeleteOlderThan(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("delete older failed: %v", err)
	}
	if len(urls) != 1 || urls[0] != "https://example.com/old" {
		t.Errorf("expected old entry removed, got %v", urls)
	}

	if err := store.Delete(ctx, "https://example.com/"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if got, _ := store.Get(ctx, "https://example.com/"); got != nil {
		t.Error("expected entry to be deleted")
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("SCRAPER_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SCRAPER_TEST_REDIS_ADDR not set")
	}

	store, err := OpenRedis(t.Context(), addr, "scraper:test:")
	if err != nil {
		t.Fatalf("failed to open redis: %v", err)
	}
	defer store.Close()

	storeContract(t, store)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("SCRAPER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SCRAPER_TEST_POSTGRES_DSN not set")
	}

	store, err := OpenPostgres(t.Context(), dsn)
	if err != nil {
		t.Fatalf("failed to open postgres: %v", err)
	}
	defer store.Close()

	storeContract(t, store)
}

func TestSQLiteStoreContract(t *testing.T) {
	t.Parallel()

	store, err := OpenSQLite(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	storeContract(t, store)
}
