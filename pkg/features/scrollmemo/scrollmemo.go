// Package scrollmemo remembers scroll offsets per route key and restores
// them when the same key mounts again, so list pages reopened from a detail
// view land where the user left off.
package scrollmemo

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/loomui/loom/pkg/hooks"
	"github.com/loomui/loom/pkg/reactive"
	"github.com/loomui/loom/pkg/storage"
	"github.com/loomui/loom/pkg/vdom"
)

// StoreKey is the owner-context key a session's position store is published
// under. Without one the package-level store is used, which is shared by
// every session in the process.
var StoreKey = &struct{ name string }{"scrollmemo.store"}

// Position is a recorded scroll offset in CSS pixels.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Store holds positions for one session.
type Store struct {
	mu        sync.RWMutex
	positions map[string]Position
}

// NewStore creates an empty position store.
func NewStore() *Store {
	return &Store{positions: make(map[string]Position)}
}

// Get returns the position recorded for key.
func (s *Store) Get(key string) (Position, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.positions[key]
	return p, ok
}

// Put records the position for key.
func (s *Store) Put(key string, p Position) {
	s.mu.Lock()
	s.positions[key] = p
	s.mu.Unlock()
}

// Delete removes the position for key.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	delete(s.positions, key)
	s.mu.Unlock()
}

var defaultStore = NewStore()

// ScrollMemo tracks the scroll position for one route key.
type ScrollMemo struct {
	key   string
	store *Store

	mu       sync.Mutex
	backend  storage.Backend
	ttl      time.Duration
	debounce time.Duration
	behavior string

	pos *reactive.Signal[Position]
}

// Use creates or reuses the scroll memo for routeKey. The saved position is
// loaded from the session store, and from the persistence backend when one
// is configured, on first render.
func Use(routeKey string) *ScrollMemo {
	reactive.TrackHook(reactive.HookScrollMemo)

	if existing := reactive.UseHookSlot(); existing != nil {
		if m, ok := existing.(*ScrollMemo); ok {
			return m
		}
	}

	store := defaultStore
	if v := reactive.GetContext(StoreKey); v != nil {
		if s, ok := v.(*Store); ok {
			store = s
		}
	}

	m := &ScrollMemo{
		key:      routeKey,
		store:    store,
		behavior: "auto",
	}
	p, _ := store.Get(routeKey)
	m.pos = reactive.NewSignal(p)
	reactive.SetHookSlot(m)

	return m
}

// Persist mirrors positions into backend under "scroll:"+key with the given
// TTL. The backend is read once, immediately, to hydrate a position the
// session store does not have yet.
func (m *ScrollMemo) Persist(backend storage.Backend, ttl time.Duration) *ScrollMemo {
	m.mu.Lock()
	m.backend = backend
	m.ttl = ttl
	m.mu.Unlock()

	if _, ok := m.store.Get(m.key); !ok && backend != nil {
		if data, err := backend.Get(context.Background(), m.storageKey()); err == nil && data != nil {
			var p Position
			if err := json.Unmarshal(data, &p); err == nil {
				m.store.Put(m.key, p)
				m.pos.Set(p)
			}
		}
	}
	return m
}

// Debounce sets how long the client waits after scrolling stops before
// reporting. Zero reports on every scroll event.
func (m *ScrollMemo) Debounce(d time.Duration) *ScrollMemo {
	m.mu.Lock()
	m.debounce = d
	m.mu.Unlock()
	return m
}

// Smooth makes restoration animate instead of jumping.
func (m *ScrollMemo) Smooth() *ScrollMemo {
	m.mu.Lock()
	m.behavior = "smooth"
	m.mu.Unlock()
	return m
}

// Attr returns the client hook attribute. Attach it to the scroll container;
// the client restores the saved offset on mount and reports new offsets as
// the user scrolls.
func (m *ScrollMemo) Attr() vdom.Attr {
	p := m.pos.Peek()
	m.mu.Lock()
	cfg := map[string]any{
		"key":      m.key,
		"x":        p.X,
		"y":        p.Y,
		"behavior": m.behavior,
	}
	if m.debounce > 0 {
		cfg["debounce"] = m.debounce.Milliseconds()
	}
	m.mu.Unlock()
	return hooks.Hook("ScrollMemo", cfg)
}

// OnScroll returns the event handler that records reported offsets. Bind it
// alongside Attr.
func (m *ScrollMemo) OnScroll() vdom.EventHandler {
	return hooks.OnEvent("scrollmemo:"+m.key, func(e hooks.HookEvent) {
		m.Record(Position{X: e.Int("x"), Y: e.Int("y")})
	})
}

// Record saves a position, updating the session store and the persistence
// backend when configured.
func (m *ScrollMemo) Record(p Position) {
	m.store.Put(m.key, p)
	m.pos.Set(p)

	m.mu.Lock()
	backend := m.backend
	ttl := m.ttl
	m.mu.Unlock()
	if backend == nil {
		return
	}

	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := backend.Set(context.Background(), m.storageKey(), data, ttl); err != nil {
		slog.Warn("scrollmemo: persist failed", "key", m.key, "error", err)
	}
}

// Position returns the saved position, subscribing the caller.
func (m *ScrollMemo) Position() Position {
	return m.pos.Get()
}

// Clear forgets the saved position everywhere.
func (m *ScrollMemo) Clear() {
	m.store.Delete(m.key)
	m.pos.Set(Position{})

	m.mu.Lock()
	backend := m.backend
	m.mu.Unlock()
	if backend != nil {
		if err := backend.Delete(context.Background(), m.storageKey()); err != nil {
			slog.Warn("scrollmemo: delete failed", "key", m.key, "error", err)
		}
	}
}

func (m *ScrollMemo) storageKey() string {
	return "scroll:" + m.key
}
