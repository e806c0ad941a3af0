package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps cache entries in a "cache" table, for crawls that
// share one cache between machines.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn and creates the table when missing.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS cache (
		url TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		status_code INTEGER NOT NULL,
		headers TEXT NOT NULL,
		timestamp BIGINT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_cache_timestamp ON cache(timestamp);
	`
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Get returns the entry for url, or nil when absent.
func (s *PostgresStore) Get(ctx context.Context, url string) (*Entry, error) {
	var (
		e         Entry
		headers   string
		timestamp int64
	)
	err := s.pool.QueryRow(ctx,
		`SELECT url, content, status_code, headers, timestamp FROM cache WHERE url = $1`, url,
	).Scan(&e.URL, &e.Content, &e.StatusCode, &headers, &timestamp)
	if errors.Is(err, pgx.ErrNoRows) {
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
func (s *PostgresStore) Put(ctx context.Context, entry *Entry) error {
	headers, err := encodeHeaders(entry.Headers)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
	INSERT INTO cache (url, content, status_code, headers, timestamp)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (url) DO UPDATE SET
		content = EXCLUDED.content,
		status_code = EXCLUDED.status_code,
		headers = EXCLUDED.headers,
		timestamp = EXCLUDED.timestamp
	`, entry.URL, entry.Content, entry.StatusCode, headers, entry.Timestamp.Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert cache entry: %w", err)
	}
	return nil
}

// Delete removes the entry for url.
func (s *PostgresStore) Delete(ctx context.Context, url string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM cache WHERE url = $1`, url); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// DeleteOlderThan removes entries written at or before cutoff.
func (s *PostgresStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := s.pool.Query(ctx, `DELETE FROM cache WHERE timestamp <= $1 RETURNING url`, cutoff.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to delete expired entries: %w", err)
	}
	urls, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to read deleted entries: %w", err)
	}
	return urls, nil
}

// Clear removes every entry.
func (s *PostgresStore) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM cache`); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
