package reactive

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// HookType identifies a hook call for dev-mode order validation.
type HookType uint8

const (
	HookSignal HookType = iota + 1
	HookMemo
	HookEffect
	HookSearchTree
	HookStorageState
	HookQueryState
	HookAsyncEffect
	HookScrollMemo
	HookContext
)

// String returns a human-readable name for the hook type.
func (h HookType) String() string {
	switch h {
	case HookSignal:
		return "Signal"
	case HookMemo:
		return "Memo"
	case HookEffect:
		return "Effect"
	case HookSearchTree:
		return "SearchTree"
	case HookStorageState:
		return "StorageState"
	case HookQueryState:
		return "QueryState"
	case HookAsyncEffect:
		return "AsyncEffect"
	case HookScrollMemo:
		return "ScrollMemo"
	case HookContext:
		return "Context"
	default:
		return "Unknown"
	}
}

// hookRecord records a single hook call for order validation.
type hookRecord struct {
	Type HookType
}

// DebugMode enables dev-time validation such as hook order checking. Set at
// startup; not safe to flip while rendering.
var DebugMode bool

// Owner represents a component scope that owns reactive primitives. When an
// Owner is disposed, its effects, cleanups, and child owners are disposed
// with it. Owners form a hierarchy mirroring the component tree.
type Owner struct {
	id uint64

	// parent is nil for a root Owner (typically the session).
	parent *Owner

	children   []*Owner
	childrenMu sync.Mutex

	effects   []*Effect
	effectsMu sync.Mutex

	cleanups   []func()
	cleanupsMu sync.Mutex

	// pendingEffects are effects scheduled to run after the render phase.
	pendingEffects   []*Effect
	pendingEffectsMu sync.Mutex

	// values stores context values for this scope.
	values   map[any]any
	valuesMu sync.RWMutex

	disposed atomic.Bool

	// Dev-mode hook order tracking.
	hookOrder   []hookRecord
	hookIndex   int
	renderCount int

	// Hook slot storage for stable identity across renders. Always active;
	// hooks like StorageState and QueryState depend on it for correctness.
	hookSlots   []any
	hookSlotIdx int
}

// NewOwner creates an Owner under parent, or a root Owner when parent is nil.
func NewOwner(parent *Owner) *Owner {
	o := &Owner{
		id:     nextID(),
		parent: parent,
	}
	if parent != nil {
		parent.addChild(o)
	}
	return o
}

// ID returns the owner's unique identifier.
func (o *Owner) ID() uint64 {
	return o.id
}

// Parent returns the parent Owner, or nil for a root.
func (o *Owner) Parent() *Owner {
	return o.parent
}

// IsDisposed reports whether Dispose has been called.
func (o *Owner) IsDisposed() bool {
	return o.disposed.Load()
}

func (o *Owner) addChild(child *Owner) {
	o.childrenMu.Lock()
	defer o.childrenMu.Unlock()
	o.children = append(o.children, child)
}

func (o *Owner) removeChild(child *Owner) {
	o.childrenMu.Lock()
	defer o.childrenMu.Unlock()

	for i, c := range o.children {
		if c == child {
			o.children = append(o.children[:i], o.children[i+1:]...)
			return
		}
	}
}

func (o *Owner) registerEffect(e *Effect) {
	if o.disposed.Load() {
		return
	}
	o.effectsMu.Lock()
	defer o.effectsMu.Unlock()
	o.effects = append(o.effects, e)
}

// OnCleanup registers fn to run when this Owner is disposed. If the owner is
// already disposed, fn runs immediately.
func (o *Owner) OnCleanup(fn func()) {
	if o.disposed.Load() {
		fn()
		return
	}
	o.cleanupsMu.Lock()
	defer o.cleanupsMu.Unlock()
	o.cleanups = append(o.cleanups, fn)
}

func (o *Owner) scheduleEffect(e *Effect) {
	if o.disposed.Load() {
		return
	}
	o.pendingEffectsMu.Lock()
	defer o.pendingEffectsMu.Unlock()
	o.pendingEffects = append(o.pendingEffects, e)
}

// RunPendingEffects executes effects scheduled since the last call, then
// recurses into child owners. The host runtime calls this after event
// handlers and renders complete.
func (o *Owner) RunPendingEffects() {
	if o.disposed.Load() {
		return
	}

	o.pendingEffectsMu.Lock()
	effects := o.pendingEffects
	o.pendingEffects = nil
	o.pendingEffectsMu.Unlock()

	for _, e := range effects {
		if e.pending.Load() {
			e.run()
		}
	}

	o.childrenMu.Lock()
	children := make([]*Owner, len(o.children))
	copy(children, o.children)
	o.childrenMu.Unlock()

	for _, child := range children {
		child.RunPendingEffects()
	}
}

// HasPendingEffects reports whether this owner or any child has effects
// waiting to run.
func (o *Owner) HasPendingEffects() bool {
	if o.disposed.Load() {
		return false
	}

	o.pendingEffectsMu.Lock()
	hasPending := len(o.pendingEffects) > 0
	o.pendingEffectsMu.Unlock()
	if hasPending {
		return true
	}

	o.childrenMu.Lock()
	children := make([]*Owner, len(o.children))
	copy(children, o.children)
	o.childrenMu.Unlock()

	for _, child := range children {
		if child.HasPendingEffects() {
			return true
		}
	}
	return false
}

// Dispose disposes this Owner with its children, effects, and cleanups.
// Children are disposed in reverse creation order, then effects, then
// cleanups in reverse registration order.
func (o *Owner) Dispose() {
	if o.disposed.Swap(true) {
		return
	}

	if o.parent != nil {
		o.parent.removeChild(o)
	}

	o.childrenMu.Lock()
	children := make([]*Owner, len(o.children))
	copy(children, o.children)
	o.children = nil
	o.childrenMu.Unlock()

	for i := len(children) - 1; i >= 0; i-- {
		children[i].Dispose()
	}

	o.effectsMu.Lock()
	effects := o.effects
	o.effects = nil
	o.effectsMu.Unlock()

	for _, e := range effects {
		e.dispose()
	}

	o.cleanupsMu.Lock()
	cleanups := o.cleanups
	o.cleanups = nil
	o.cleanupsMu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}

	o.pendingEffectsMu.Lock()
	o.pendingEffects = nil
	o.pendingEffectsMu.Unlock()
}

// StartRender begins a component render: resets the hook slot cursor and, in
// debug mode, the hook order cursor.
func (o *Owner) StartRender() {
	beginRender()
	o.hookSlotIdx = 0
	if DebugMode {
		o.hookIndex = 0
	}
}

// EndRender finishes a component render. In debug mode it verifies that the
// render called every hook recorded on the first render.
func (o *Owner) EndRender() {
	endRender()

	if !DebugMode {
		return
	}
	if o.renderCount == 0 {
		o.renderCount = 1
	} else if o.hookIndex < len(o.hookOrder) {
		panic(fmt.Sprintf("loom: hook order changed: expected %d hooks, got %d",
			len(o.hookOrder), o.hookIndex))
	}
}

// TrackHook records a hook call for order validation. Hooks must be called
// in the same order on every render; violations panic in debug mode.
func (o *Owner) TrackHook(ht HookType) {
	if !DebugMode {
		return
	}

	if o.renderCount == 0 {
		o.hookOrder = append(o.hookOrder, hookRecord{Type: ht})
	} else {
		if o.hookIndex >= len(o.hookOrder) {
			panic(fmt.Sprintf("loom: hook order changed: extra %s hook at index %d",
				ht, o.hookIndex))
		}
		expected := o.hookOrder[o.hookIndex]
		if expected.Type != ht {
			panic(fmt.Sprintf("loom: hook order changed at index %d: expected %s, got %s",
				o.hookIndex, expected.Type, ht))
		}
	}
	o.hookIndex++
}

// UseHookSlot returns the stored value for the current hook slot, or nil on
// the first render. Callers that get nil create their instance and store it
// with SetHookSlot, giving the hook stable identity across renders.
func (o *Owner) UseHookSlot() any {
	idx := o.hookSlotIdx
	o.hookSlotIdx++

	if idx < len(o.hookSlots) {
		return o.hookSlots[idx]
	}
	return nil
}

// SetHookSlot stores a value in the current hook slot. Must follow a
// UseHookSlot call that returned nil.
func (o *Owner) SetHookSlot(value any) {
	o.hookSlots = append(o.hookSlots, value)
}

// TrackHook records a hook call on the current owner, if any.
func TrackHook(ht HookType) {
	if owner := getCurrentOwner(); owner != nil {
		owner.TrackHook(ht)
	}
}

// UseHookSlot reads the current hook slot of the current owner. Returns nil
// when there is no owner or on the first render.
func UseHookSlot() any {
	if owner := getCurrentOwner(); owner != nil {
		return owner.UseHookSlot()
	}
	return nil
}

// SetHookSlot stores a value in the current owner's hook slot. No-op without
// an owner.
func SetHookSlot(value any) {
	if owner := getCurrentOwner(); owner != nil {
		owner.SetHookSlot(value)
	}
}
