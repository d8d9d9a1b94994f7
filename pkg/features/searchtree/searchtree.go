// Package searchtree memoizes filtered tree reconstruction across renders.
//
// Rebuilding a fiber search on every render is wasteful when the underlying
// forest rarely changes, and the forest slices themselves carry no identity
// a cache could key on. Callers therefore supply a version token alongside
// the forest; the hook recomputes only when the token or the callback
// identities change.
package searchtree

import (
	"reflect"
	"sync"

	"github.com/loomui/loom/pkg/fiber"
	"github.com/loomui/loom/pkg/reactive"
)

// Source supplies the forest to search plus a version token. Producers bump
// the token whenever the forest's contents change; an unchanged token means
// the cached result is still valid.
type Source[T any] func() (forest []*fiber.Node[T], version uint64)

// SearchTree caches one fiber search keyed on the source's version token.
type SearchTree[T, R any] struct {
	source    Source[T]
	predicate fiber.Predicate[T]
	transform fiber.Transform[T, R]

	mu       sync.Mutex
	hasRun   bool
	version  uint64
	predPtr  uintptr
	transPtr uintptr
	result   *fiber.Result[T, R]
	err      error

	// rev is bumped after each recompute so dependents holding stale
	// output re-render.
	rev *reactive.Signal[uint64]
}

// Use creates or reuses the search-tree hook for the current hook slot.
// Callbacks are compared by identity: passing a different predicate or
// transform function invalidates the cache, so hoist them out of the render
// body when the search should stay cached.
func Use[T, R any](source Source[T], predicate fiber.Predicate[T], transform fiber.Transform[T, R]) *SearchTree[T, R] {
	reactive.TrackHook(reactive.HookSearchTree)

	var st *SearchTree[T, R]
	if existing := reactive.UseHookSlot(); existing != nil {
		st, _ = existing.(*SearchTree[T, R])
	}
	if st == nil {
		st = &SearchTree[T, R]{
			rev: reactive.NewSignal(uint64(0)),
		}
		reactive.SetHookSlot(st)
	}

	st.mu.Lock()
	st.source = source
	st.predicate = predicate
	st.transform = transform
	st.mu.Unlock()

	return st
}

// New creates a standalone search tree outside any render scope.
func New[T, R any](source Source[T], predicate fiber.Predicate[T], transform fiber.Transform[T, R]) *SearchTree[T, R] {
	return &SearchTree[T, R]{
		source:    source,
		predicate: predicate,
		transform: transform,
		rev:       reactive.NewSignal(uint64(0)),
	}
}

// Result returns the current search result, recomputing if the version
// token or callbacks changed since the last call. The caller is subscribed
// to future recomputations.
func (st *SearchTree[T, R]) Result() (*fiber.Result[T, R], error) {
	st.ensure()
	st.rev.Get()

	st.mu.Lock()
	defer st.mu.Unlock()
	return st.result, st.err
}

// Tree returns the reconstructed output forest, subscribing the caller.
// A failed search yields nil.
func (st *SearchTree[T, R]) Tree() []*fiber.Node[R] {
	res, err := st.Result()
	if err != nil {
		return nil
	}
	return res.Tree
}

// Err returns the last search error, subscribing the caller.
func (st *SearchTree[T, R]) Err() error {
	_, err := st.Result()
	return err
}

// Version returns the token the cached result was computed from.
func (st *SearchTree[T, R]) Version() uint64 {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.version
}

// Invalidate discards the cached result and wakes dependents; the next
// Result call recomputes regardless of the version token.
func (st *SearchTree[T, R]) Invalidate() {
	st.mu.Lock()
	st.hasRun = false
	st.mu.Unlock()
	st.rev.Update(func(v uint64) uint64 { return v + 1 })
}

func (st *SearchTree[T, R]) ensure() {
	st.mu.Lock()
	source := st.source
	predicate := st.predicate
	transform := st.transform
	st.mu.Unlock()

	var forest []*fiber.Node[T]
	var version uint64
	reactive.Untracked(func() {
		forest, version = source()
	})

	predPtr := reflect.ValueOf(predicate).Pointer()
	transPtr := reflect.ValueOf(transform).Pointer()

	st.mu.Lock()
	if st.hasRun && version == st.version && predPtr == st.predPtr && transPtr == st.transPtr {
		st.mu.Unlock()
		return
	}
	st.mu.Unlock()

	result, err := fiber.Search(forest, predicate, transform)

	st.mu.Lock()
	st.hasRun = true
	st.version = version
	st.predPtr = predPtr
	st.transPtr = transPtr
	st.result = result
	st.err = err
	st.mu.Unlock()

	// Publish before the caller subscribes in Result, so the puller that
	// triggered the recompute is not immediately re-notified.
	st.rev.Update(func(v uint64) uint64 { return v + 1 })
}
