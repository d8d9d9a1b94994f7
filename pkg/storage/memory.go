package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryBackend is an in-memory Backend. It is the default and suits
// single-server deployments; use RedisBackend or SQLBackend when state must
// survive the process or span servers.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	closed  bool
	done    chan struct{}
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// MemoryOption configures MemoryBackend behavior.
type MemoryOption func(*memoryConfig)

type memoryConfig struct {
	janitorInterval time.Duration
}

// WithJanitorInterval sets how often expired entries are swept.
// Default: 1 minute.
func WithJanitorInterval(d time.Duration) MemoryOption {
	return func(c *memoryConfig) {
		c.janitorInterval = d
	}
}

// NewMemoryBackend creates an in-memory backend with a background sweep for
// expired entries.
func NewMemoryBackend(opts ...MemoryOption) *MemoryBackend {
	cfg := &memoryConfig{
		janitorInterval: time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	b := &MemoryBackend{
		entries: make(map[string]*memoryEntry),
		done:    make(chan struct{}),
	}
	go b.janitor(cfg.janitorInterval)
	return b
}

// Set stores a copy of value under key.
func (b *MemoryBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed{}
	}

	// Copy so caller mutations don't leak into the store.
	cp := make([]byte, len(value))
	copy(cp, value)

	e := &memoryEntry{value: cp}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	b.entries[key] = e
	return nil
}

// Get returns the stored value, or (nil, nil) when absent or expired.
func (b *MemoryBackend) Get(ctx context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, ErrClosed{}
	}

	e, ok := b.entries[key]
	if !ok {
		return nil, nil
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		return nil, nil
	}

	cp := make([]byte, len(e.value))
	copy(cp, e.value)
	return cp, nil
}

// Delete removes key.
func (b *MemoryBackend) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed{}
	}
	delete(b.entries, key)
	return nil
}

// Close stops the janitor and drops all entries.
func (b *MemoryBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	close(b.done)
	b.entries = nil
	return nil
}

// Len returns the number of live entries. Intended for tests and metrics.
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	now := time.Now()
	n := 0
	for _, e := range b.entries {
		if e.expiresAt.IsZero() || now.Before(e.expiresAt) {
			n++
		}
	}
	return n
}

func (b *MemoryBackend) janitor(interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-b.done:
			return
		case <-ticker.C:
			b.sweep()
		}
	}
}

func (b *MemoryBackend) sweep() {
	now := time.Now()

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	for key, e := range b.entries {
		if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
			delete(b.entries, key)
		}
	}
}

var _ Backend = (*MemoryBackend)(nil)
