package cache

import (
	"context"
	"fmt"
)

// Backend names accepted by OpenStore.
const (
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// StoreConfig selects and configures a persistent backend.
type StoreConfig struct {
	// Backend is one of BackendSQLite, BackendRedis or BackendPostgres.
	// Empty means BackendSQLite.
	Backend string

	// Dir is the SQLite cache directory.
	Dir string

	// RedisAddr is the Redis server address.
	RedisAddr string

	// RedisPrefix namespaces Redis keys. Empty means DefaultRedisPrefix.
	RedisPrefix string

	// PostgresDSN is the PostgreSQL connection string.
	PostgresDSN string
}

// OpenStore opens the backend named in cfg.
func OpenStore(ctx context.Context, cfg StoreConfig) (Store, error) {
	var (
		store Store
		err   error
	)
	switch cfg.Backend {
	case "", BackendSQLite:
		store, err = openSQLiteStore(cfg.Dir)
	case BackendRedis:
		store, err = openRedisStore(ctx, cfg.RedisAddr, cfg.RedisPrefix)
	case BackendPostgres:
		if cfg.PostgresDSN == "" {
			return nil, ErrMissingDSN
		}
		store, err = openPostgresStore(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}

// The wrappers keep a typed nil pointer from turning into a non-nil Store.

func openSQLiteStore(dir string) (Store, error) {
	s, err := OpenSQLite(dir)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func openRedisStore(ctx context.Context, addr, prefix string) (Store, error) {
	s, err := OpenRedis(ctx, addr, prefix)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func openPostgresStore(ctx context.Context, dsn string) (Store, error) {
	s, err := OpenPostgres(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return s, nil
}
