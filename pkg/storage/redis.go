package storage

import (
	"context"
	"errors"
	"time"
)

// RedisClient is the subset of Redis operations the backend needs. It is
// declared here so the module does not depend on a specific Redis driver;
// it is compatible with github.com/redis/go-redis/v9.
type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) RedisStatusCmd
	Get(ctx context.Context, key string) RedisStringCmd
	Del(ctx context.Context, keys ...string) RedisIntCmd
	Close() error
}

// RedisStatusCmd is a Redis status command result.
type RedisStatusCmd interface {
	Err() error
}

// RedisStringCmd is a Redis string command result.
type RedisStringCmd interface {
	Bytes() ([]byte, error)
	Err() error
}

// RedisIntCmd is a Redis int command result.
type RedisIntCmd interface {
	Err() error
}

// ErrRedisNil mirrors redis.Nil from go-redis: the key does not exist.
var ErrRedisNil = errors.New("redis: nil")

// RedisBackend stores entries in Redis, keyed under a configurable prefix.
// Suitable for multi-server deployments with shared state.
type RedisBackend struct {
	client RedisClient
	prefix string
	closed bool
}

// RedisOption configures RedisBackend behavior.
type RedisOption func(*redisConfig)

type redisConfig struct {
	prefix string
}

// WithRedisPrefix sets the key prefix. Default: "loom:state:".
func WithRedisPrefix(prefix string) RedisOption {
	return func(c *redisConfig) {
		c.prefix = prefix
	}
}

// NewRedisBackend creates a Redis-backed Backend over client.
func NewRedisBackend(client RedisClient, opts ...RedisOption) *RedisBackend {
	cfg := &redisConfig{
		prefix: "loom:state:",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &RedisBackend{
		client: client,
		prefix: cfg.prefix,
	}
}

// Set stores value with Redis-native expiry.
func (r *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if r.closed {
		return ErrClosed{}
	}
	return r.client.Set(ctx, r.prefix+key, value, ttl).Err()
}

// Get returns the value, or (nil, nil) when the key is absent. Redis expires
// entries itself, so absence covers expiry too.
func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if r.closed {
		return nil, ErrClosed{}
	}

	b, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, ErrRedisNil) || err.Error() == ErrRedisNil.Error() {
			return nil, nil
		}
		return nil, err
	}
	return b, nil
}

// Delete removes key.
func (r *RedisBackend) Delete(ctx context.Context, key string) error {
	if r.closed {
		return ErrClosed{}
	}
	return r.client.Del(ctx, r.prefix+key).Err()
}

// Close closes the underlying client.
func (r *RedisBackend) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.client.Close()
}

var _ Backend = (*RedisBackend)(nil)
