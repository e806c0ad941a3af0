package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteFile is the database file name created inside the cache directory.
const SQLiteFile = "cache.db"

// SQLiteStore is the default persistent tier: one SQLite file per cache
// directory, shared between runs.
type SQLiteStore struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// path is the path to the SQLite database file.
	path string
}

// OpenSQLite opens or creates the cache database in dir.
func OpenSQLite(dir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	path := filepath.Join(dir, SQLiteFile)

	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLiteStore{db: db, path: path}

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS cache (
		url TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		status_code INTEGER NOT NULL,
		headers TEXT NOT NULL,
		timestamp INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_cache_timestamp ON cache(timestamp);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Get returns the entry for url, or nil when absent.
func (s *SQLiteStore) Get(ctx context.Context, url string) (*Entry, error) {
	query := `SELECT url, content, status_code, headers, timestamp FROM cache WHERE url = ?`

	var (
		e         Entry
		headers   string
		timestamp int64
	)
	err := s.db.QueryRowContext(ctx, query, url).Scan(&e.URL, &e.Content, &e.StatusCode, &headers, &timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cache entry: %w", err)
	}

	if e.Headers, err = decodeHeaders(headers); err != nil {
		return nil, err
	}
	e.Timestamp = time.Unix(timestamp, 0)
	return &e, nil
}

// Put inserts or replaces the entry for entry.URL.
func (s *SQLiteStore) Put(ctx context.Context, entry *Entry) error {
	headers, err := encodeHeaders(entry.Headers)
	if err != nil {
		return err
	}

	query := `
	INSERT INTO cache (url, content, status_code, headers, timestamp)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(url) DO UPDATE SET
		content = excluded.content,
		status_code = excluded.status_code,
		headers = excluded.headers,
		timestamp = excluded.timestamp
	`
	if _, err := s.db.ExecContext(ctx, query,
		entry.URL, entry.Content, entry.StatusCode, headers, entry.Timestamp.Unix(),
	); err != nil {
		return fmt.Errorf("failed to upsert cache entry: %w", err)
	}
	return nil
}

// Delete removes the entry for url.
func (s *SQLiteStore) Delete(ctx context.Context, url string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cache WHERE url = ?`, url); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// DeleteOlderThan removes entries written at or before cutoff.
func (s *SQLiteStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `SELECT url FROM cache WHERE timestamp <= ?`, cutoff.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query expired entries: %w", err)
	}

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan expired entry: %w", err)
		}
		urls = append(urls, url)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM cache WHERE timestamp <= ?`, cutoff.Unix()); err != nil {
		return nil, fmt.Errorf("failed to delete expired entries: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return urls, nil
}

// Clear removes every entry.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cache`); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
