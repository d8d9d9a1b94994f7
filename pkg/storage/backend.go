// Package storage provides the key-value persistence backends that
// storage-backed hooks write through. Backends are dumb byte stores with
// optional TTL; serialization and merge policy live in the hooks that use
// them.
//
// The default backend is MemoryBackend. RedisBackend, SQLBackend, and
// S3Backend cover multi-server deployments. Instrument and Trace wrap any
// backend with Prometheus metrics and OpenTelemetry spans.
package storage

import (
	"context"
	"time"
)

// Backend is a key-value persistence backend. Implementations must be safe
// for concurrent use.
type Backend interface {
	// Set stores value under key. A non-zero ttl expires the entry; zero
	// means no expiry. An existing entry is overwritten.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get retrieves the value for key.
	// Returns (nil, nil) when the key is absent or expired.
	// Returns (nil, err) on backend errors.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes key. Absent keys are not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources. Operations after Close return
	// ErrClosed.
	Close() error
}

// ErrClosed is returned for operations on a closed backend.
type ErrClosed struct{}

func (e ErrClosed) Error() string {
	return "storage: backend is closed"
}

// NotFoundError is used by implementations that need an explicit error for
// a missing key. Get returns (nil, nil) for missing keys, not this error.
type NotFoundError struct {
	Key string
}

func (e NotFoundError) Error() string {
	return "storage: key not found: " + e.Key
}
