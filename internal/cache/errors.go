package cache

import "errors"

var (
	// ErrUnknownBackend is returned by OpenStore for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown cache backend")

	// ErrMissingDSN is returned by OpenStore when the postgres backend has no DSN.
	ErrMissingDSN = errors.New("postgres cache backend requires a DSN")
)
