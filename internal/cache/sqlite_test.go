package cache

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"
)

func TestOpenSQLite(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "newdir", "subdir")
		store, err := OpenSQLite(dir)
		if err != nil {
			t.Fatalf("failed to open store: %v", err)
		}
		defer store.Close()

		if _, err := os.Stat(filepath.Join(dir, SQLiteFile)); err != nil {
			t.Errorf("database file was not created: %v", err)
		}
		if store.Path() != filepath.Join(dir, SQLiteFile) {
			t.Errorf("unexpected path %q", store.Path())
		}
	})

	t.Run("fails when directory cannot be created", func(t *testing.T) {
		t.Parallel()

		blocker := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(blocker, nil, 0600); err != nil {
			t.Fatalf("failed to write blocker: %v", err)
		}
		if _, err := OpenSQLite(filepath.Join(blocker, "cache")); err == nil {
			t.Error("expected error")
		}
	})
}

func TestSQLiteStore(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) *SQLiteStore {
		t.Helper()
		store, err := OpenSQLite(t.TempDir())
		if err != nil {
			t.Fatalf("failed to open store: %v", err)
		}
		t.Cleanup(func() { _ = store.Close() })
		return store
	}

	t.Run("get missing returns nil", func(t *testing.T) {
		t.Parallel()

		e, err := setup(t).Get(t.Context(), "nope")
		if err != nil || e != nil {
			t.Errorf("expected nil, nil; got %v, %v", e, err)
		}
	})

	t.Run("put is an upsert", func(t *testing.T) {
		t.Parallel()

		store := setup(t)
		ts := time.Unix(1_700_000_000, 0)
		first := &Entry{URL: "u", Content: "one", StatusCode: 200, Headers: map[string]string{"A": "1"}, Timestamp: ts}
		second := &Entry{URL: "u", Content: "two", StatusCode: 404, Headers: map[string]string{"B": "2"}, Timestamp: ts.Add(time.Minute)}

		if err := store.Put(t.Context(), first); err != nil {
			t.Fatalf("put failed: %v", err)
		}
		if err := store.Put(t.Context(), second); err != nil {
			t.Fatalf("put failed: %v", err)
		}

		got, err := store.Get(t.Context(), "u")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.Content != "two" || got.StatusCode != 404 {
			t.Errorf("expected second write to win, got %+v", got)
		}
		if _, ok := got.Headers["A"]; ok || got.Headers["B"] != "2" {
			t.Errorf("expected headers replaced, got %v", got.Headers)
		}
		if !got.Timestamp.Equal(ts.Add(time.Minute)) {
			t.Errorf("expected timestamp %v, got %v", ts.Add(time.Minute), got.Timestamp)
		}
	})

	t.Run("nil headers round trip as empty", func(t *testing.T) {
		t.Parallel()

		store := setup(t)
		if err := store.Put(t.Context(), &Entry{URL: "u", Content: "c", StatusCode: 200, Timestamp: time.Now()}); err != nil {
			t.Fatalf("put failed: %v", err)
		}
		got, err := store.Get(t.Context(), "u")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.Headers == nil || len(got.Headers) != 0 {
			t.Errorf("expected empty header map, got %v", got.Headers)
		}
	})

	t.Run("delete older than returns removed urls", func(t *testing.T) {
		t.Parallel()

		store := setup(t)
		now := time.Unix(1_700_000_000, 0)
		for url, age := range map[string]time.Duration{"a": 3 * time.Hour, "b": 2 * time.Hour, "c": time.Minute} {
			if err := store.Put(t.Context(), &Entry{URL: url, Content: url, StatusCode: 200, Timestamp: now.Add(-age)}); err != nil {
				t.Fatalf("put failed: %v", err)
			}
		}

		urls, err := store.DeleteOlderThan(t.Context(), now.Add(-time.Hour))
		if err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		sort.Strings(urls)
		if len(urls) != 2 || urls[0] != "a" || urls[1] != "b" {
			t.Errorf("expected [a b], got %v", urls)
		}
		if e, _ := store.Get(t.Context(), "c"); e == nil {
			t.Error("expected fresh entry to remain")
		}
	})

	t.Run("closed store reports errors", func(t *testing.T) {
		t.Parallel()

		store, err := OpenSQLite(t.TempDir())
		if err != nil {
			t.Fatalf("failed to open store: %v", err)
		}
		_ = store.Close()

		if _, err := store.Get(t.Context(), "u"); err == nil {
			t.Error("expected error from closed store")
		}
	})
}

func TestOpenStore(t *testing.T) {
	t.Parallel()

	t.Run("unknown backend", func(t *testing.T) {
		t.Parallel()
		_, err := OpenStore(t.Context(), StoreConfig{Backend: "memcached"})
		if !errors.Is(err, ErrUnknownBackend) {
			t.Errorf("expected ErrUnknownBackend, got %v", err)
		}
	})

	t.Run("postgres requires dsn", func(t *testing.T) {
		t.Parallel()
		_, err := OpenStore(t.Context(), StoreConfig{Backend: BackendPostgres})
		if !errors.Is(err, ErrMissingDSN) {
			t.Errorf("expected ErrMissingDSN, got %v", err)
		}
	})

	t.Run("sqlite is the default", func(t *testing.T) {
		t.Parallel()
		store, err := OpenStore(t.Context(), StoreConfig{Dir: t.TempDir()})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer store.Close()
		if _, ok := store.(*SQLiteStore); !ok {
			t.Errorf("expected *SQLiteStore, got %T", store)
		}
	})

	t.Run("failed open returns a nil interface", func(t *testing.T) {
		t.Parallel()
		store, err := OpenStore(t.Context(), StoreConfig{Backend: BackendRedis, RedisAddr: "127.0.0.1:1"})
		if err == nil {
			_ = store.Close()
			t.Skip("something is listening on 127.0.0.1:1")
		}
		if store != nil {
			t.Errorf("expected nil store, got %#v", store)
		}
	})
}
