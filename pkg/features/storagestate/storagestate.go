// Package storagestate synchronizes reactive state with a key-value
// storage backend. Values persist as JSON envelopes carrying a timestamp,
// so concurrent writers (another tab, another server) can be merged with a
// configurable strategy.
package storagestate

import (
	"context"
	"encoding/json"
	"reflect"
	"sync"
	"time"

	"github.com/loomui/loom/pkg/reactive"
	"github.com/loomui/loom/pkg/storage"
)

// BackendKey is the owner-context key for the storage backend. The host
// sets it on the root owner; hooks resolve it on first render.
var BackendKey = &struct{ name string }{"StorageBackend"}

// MergeStrategy resolves conflicts between the local value and a value
// arriving from the backend or another session.
type MergeStrategy int

const (
	// LWW keeps whichever value has the newer timestamp (default).
	LWW MergeStrategy = iota

	// BackendWins always takes the remote value.
	BackendWins

	// LocalWins always keeps the local value and re-persists it.
	LocalWins
)

// envelope is the persisted wire form.
type envelope struct {
	Value     json.RawMessage `json:"value"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// StorageState is reactive state persisted under a backend key.
type StorageState[T any] struct {
	key          string
	defaultValue T
	signal       *reactive.Signal[T]
	backend      storage.Backend

	mu        sync.Mutex
	updatedAt time.Time

	mergeStrategy MergeStrategy
	onConflict    func(local, remote T) T
	ttl           time.Duration
	debounce      time.Duration

	timerMu sync.Mutex
	timer   *time.Timer

	// broadcast notifies other sessions after a local write.
	broadcast func(key string, value T, updatedAt time.Time)
}

// Use binds state to key on the backend from the owner context. On first
// render the persisted value, if any, replaces the default.
//
// Call unconditionally during render; the instance is hook-slot stabilized.
func Use[T any](key string, defaultValue T) *StorageState[T] {
	var backend storage.Backend
	if v := reactive.GetContext(BackendKey); v != nil {
		if b, ok := v.(storage.Backend); ok {
			backend = b
		}
	}
	return UseWith(key, defaultValue, backend)
}

// UseWith is Use with an explicit backend, for hosts that don't use owner
// context and for tests. A nil backend leaves the state memory-only.
func UseWith[T any](key string, defaultValue T, backend storage.Backend) *StorageState[T] {
	reactive.TrackHook(reactive.HookStorageState)

	slot := reactive.UseHookSlot()
	var s *StorageState[T]
	first := false
	if slot != nil {
		existing, ok := slot.(*StorageState[T])
		if !ok {
			panic("loom: hook slot type mismatch for StorageState")
		}
		s = existing
	} else {
		first = true
		s = &StorageState[T]{}
		reactive.SetHookSlot(s)
	}

	if first {
		s.key = key
		s.defaultValue = defaultValue
		s.backend = backend
		s.mergeStrategy = LWW

		initial := defaultValue
		if loaded, at, ok := s.load(); ok {
			initial = loaded
			s.updatedAt = at
		}
		s.signal = reactive.NewSignal(initial)
	}

	return s
}

// Get returns the current value, subscribing the active listener.
func (s *StorageState[T]) Get() T {
	return s.signal.Get()
}

// Peek returns the current value without subscribing.
func (s *StorageState[T]) Peek() T {
	return s.signal.Peek()
}

// Set updates the value, persists it, and broadcasts the write.
func (s *StorageState[T]) Set(value T) {
	now := time.Now()

	s.signal.Set(value)

	s.mu.Lock()
	s.updatedAt = now
	s.mu.Unlock()

	if s.broadcast != nil {
		s.broadcast(s.key, value, now)
	}
	s.schedulePersist(value, now)
}

// Update atomically transforms the value and persists the result.
func (s *StorageState[T]) Update(fn func(T) T) {
	s.signal.Update(fn)
	s.Set(s.signal.Peek())
}

// Reset restores and persists the default value.
func (s *StorageState[T]) Reset() {
	s.Set(s.defaultValue)
}

// IsSet reports whether the current value differs from the default.
func (s *StorageState[T]) IsSet() bool {
	return !reflect.DeepEqual(s.Peek(), s.defaultValue)
}

// Key returns the backend key.
func (s *StorageState[T]) Key() string {
	return s.key
}

// UpdatedAt returns the timestamp of the last accepted write.
func (s *StorageState[T]) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// MergeWith sets the conflict strategy.
func (s *StorageState[T]) MergeWith(strategy MergeStrategy) *StorageState[T] {
	s.mergeStrategy = strategy
	return s
}

// OnConflict installs a custom conflict handler, which takes precedence
// over the merge strategy.
func (s *StorageState[T]) OnConflict(fn func(local, remote T) T) *StorageState[T] {
	s.onConflict = fn
	return s
}

// TTL sets the backend entry lifetime. Zero means no expiry.
func (s *StorageState[T]) TTL(d time.Duration) *StorageState[T] {
	s.ttl = d
	return s
}

// Debounce delays persistence by d, coalescing rapid writes. The signal
// and broadcast still update immediately.
func (s *StorageState[T]) Debounce(d time.Duration) *StorageState[T] {
	s.debounce = d
	return s
}

// Broadcast installs the cross-session notifier called after local writes.
func (s *StorageState[T]) Broadcast(fn func(key string, value T, updatedAt time.Time)) *StorageState[T] {
	s.broadcast = fn
	return s
}

// SetFromRemote applies a value arriving from another session or the
// backend, resolving conflicts per the configured strategy. The losing side
// is discarded; a LocalWins resolution re-persists the local value.
func (s *StorageState[T]) SetFromRemote(value T, remoteUpdatedAt time.Time) {
	local := s.signal.Peek()

	s.mu.Lock()
	localAt := s.updatedAt
	s.mu.Unlock()

	resolved, rewrite := s.resolve(local, value, localAt, remoteUpdatedAt)

	s.signal.Set(resolved)

	s.mu.Lock()
	if remoteUpdatedAt.After(s.updatedAt) {
		s.updatedAt = remoteUpdatedAt
	}
	at := s.updatedAt
	s.mu.Unlock()

	if rewrite {
		s.schedulePersist(resolved, at)
	}
}

// resolve returns the winning value and whether it must be written back.
func (s *StorageState[T]) resolve(local, remote T, localAt, remoteAt time.Time) (T, bool) {
	if s.onConflict != nil {
		return s.onConflict(local, remote), true
	}

	switch s.mergeStrategy {
	case BackendWins:
		return remote, false
	case LocalWins:
		return local, true
	default: // LWW
		if remoteAt.After(localAt) {
			return remote, false
		}
		return local, true
	}
}

// load reads and decodes the persisted envelope.
func (s *StorageState[T]) load() (T, time.Time, bool) {
	var zero T
	if s.backend == nil || s.key == "" {
		return zero, time.Time{}, false
	}

	data, err := s.backend.Get(s.stdContext(), s.key)
	if err != nil || data == nil {
		return zero, time.Time{}, false
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return zero, time.Time{}, false
	}

	var value T
	if err := json.Unmarshal(env.Value, &value); err != nil {
		return zero, time.Time{}, false
	}
	return value, env.UpdatedAt, true
}

func (s *StorageState[T]) schedulePersist(value T, at time.Time) {
	if s.backend == nil || s.key == "" {
		return
	}

	if s.debounce > 0 {
		s.timerMu.Lock()
		defer s.timerMu.Unlock()

		if s.timer != nil {
			s.timer.Stop()
		}
		s.timer = time.AfterFunc(s.debounce, func() {
			s.persist(value, at)
		})
		return
	}

	s.persist(value, at)
}

func (s *StorageState[T]) persist(value T, at time.Time) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	data, err := json.Marshal(envelope{Value: raw, UpdatedAt: at})
	if err != nil {
		return
	}
	_ = s.backend.Set(s.stdContext(), s.key, data, s.ttl)
}

// stdContext returns the host session context when one is active.
func (s *StorageState[T]) stdContext() context.Context {
	if ctx := reactive.UseCtx(); ctx != nil {
		if std := ctx.StdContext(); std != nil {
			return std
		}
	}
	return context.Background()
}
