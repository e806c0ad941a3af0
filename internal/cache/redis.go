package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces cache keys in a shared Redis database.
const DefaultRedisPrefix = "scraper:cache:"

// RedisStore keeps one JSON document per URL under prefix+url.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// OpenRedis connects to addr and verifies the connection with PING.
func OpenRedis(ctx context.Context, addr, prefix string) (*RedisStore, error) {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

func (s *RedisStore) key(url string) string {
	return s.prefix + url
}

// Get returns the entry for url, or nil when absent.
func (s *RedisStore) Get(ctx context.Context, url string) (*Entry, error) {
	data, err := s.client.Get(ctx, s.key(url)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}

	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	if r.Headers == nil {
		r.Headers = map[string]string{}
	}
	return r.entry(), nil
}

// Put replaces the document for entry.URL.
func (s *RedisStore) Put(ctx context.Context, entry *Entry) error {
	data, err := json.Marshal(newRecord(entry))
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := s.client.Set(ctx, s.key(entry.URL), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Delete removes the document for url.
func (s *RedisStore) Delete(ctx context.Context, url string) error {
	if err := s.client.Del(ctx, s.key(url)).Err(); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// DeleteOlderThan scans the prefix and removes documents written at or
// before cutoff.
func (s *RedisStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]string, error) {
	var urls []string
	err := s.scan(ctx, func(key string) error {
		entry, err := s.Get(ctx, strings.TrimPrefix(key, s.prefix))
		if err != nil || entry == nil {
			return err
		}
		if entry.Timestamp.Unix() > cutoff.Unix() {
			return nil
		}
		if err := s.client.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("failed to delete expired entry: %w", err)
		}
		urls = append(urls, entry.URL)
		return nil
	})
	return urls, err
}

// Clear removes every document under the prefix.
func (s *RedisStore) Clear(ctx context.Context) error {
	return s.scan(ctx, func(key string) error {
		return s.client.Del(ctx, key).Err()
	})
}

func (s *RedisStore) scan(ctx context.Context, fn func(key string) error) error {
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := fn(iter.Val()); err != nil {
			return err
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}
	return nil
}

// Close closes the client connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
