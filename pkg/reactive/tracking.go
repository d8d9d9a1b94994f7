package reactive

import (
	"runtime"
	"sync"
)

// trackingContext holds the reactive state for one goroutine. Keeping the
// state per goroutine lets concurrent sessions render without sharing any
// listener or owner state.
type trackingContext struct {
	// currentOwner owns newly created signals, memos, and effects.
	currentOwner *Owner

	// currentListener is subscribed when a signal or memo is read.
	// nil means reads are untracked.
	currentListener Listener

	// batchDepth counts nested Batch calls. While > 0, notifications are
	// queued instead of delivered.
	batchDepth int

	// pendingUpdates collects listeners to notify when the outermost batch
	// completes. Deduplicated by ID before delivery.
	pendingUpdates []Listener

	// renderDepth counts nested StartRender/EndRender pairs. Hook slots are
	// only consulted while rendering.
	renderDepth int

	// currentCtx is the host runtime context for this tick, stored as any to
	// keep this package free of host imports.
	currentCtx any
}

// trackingContexts maps goroutine ID to its tracking context.
var trackingContexts sync.Map

// goroutineID extracts the current goroutine's ID from the runtime stack
// header ("goroutine <id> ..."). Implementation detail; never exposed.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

func getTracking() *trackingContext {
	gid := goroutineID()
	if tc, ok := trackingContexts.Load(gid); ok {
		return tc.(*trackingContext)
	}
	tc := &trackingContext{}
	trackingContexts.Store(gid, tc)
	return tc
}

func getCurrentListener() Listener {
	return getTracking().currentListener
}

// setCurrentListener installs l for dependency tracking and returns the
// previous listener so callers can restore it.
func setCurrentListener(l Listener) Listener {
	tc := getTracking()
	old := tc.currentListener
	tc.currentListener = l
	return old
}

func getCurrentOwner() *Owner {
	return getTracking().currentOwner
}

func setCurrentOwner(o *Owner) *Owner {
	tc := getTracking()
	old := tc.currentOwner
	tc.currentOwner = o
	return old
}

func getBatchDepth() int {
	return getTracking().batchDepth
}

func incrementBatchDepth() {
	getTracking().batchDepth++
}

// decrementBatchDepth returns true when the outermost batch completed.
func decrementBatchDepth() bool {
	tc := getTracking()
	tc.batchDepth--
	return tc.batchDepth == 0
}

func queuePendingUpdate(l Listener) {
	tc := getTracking()
	tc.pendingUpdates = append(tc.pendingUpdates, l)
}

func drainPendingUpdates() []Listener {
	tc := getTracking()
	updates := tc.pendingUpdates
	tc.pendingUpdates = nil
	return updates
}

func beginRender() {
	getTracking().renderDepth++
}

func endRender() {
	tc := getTracking()
	if tc.renderDepth > 0 {
		tc.renderDepth--
	}
}

// isInRender reports whether a component render is active on this goroutine.
func isInRender() bool {
	return getTracking().renderDepth > 0
}

func getCurrentCtx() any {
	return getTracking().currentCtx
}

func setCurrentCtx(c any) any {
	tc := getTracking()
	old := tc.currentCtx
	tc.currentCtx = c
	return old
}

// WithOwner runs fn with owner as the current owner. Use this when spawning
// goroutines that create signals or effects belonging to a component scope.
func WithOwner(owner *Owner, fn func()) {
	old := setCurrentOwner(owner)
	defer setCurrentOwner(old)
	fn()
}

// WithListener runs fn with l installed for dependency tracking.
func WithListener(l Listener, fn func()) {
	old := setCurrentListener(l)
	defer setCurrentListener(old)
	fn()
}

// WithCtx runs fn with c installed as the host runtime context, making it
// available via UseCtx inside renders, effects, and event handlers.
func WithCtx(c any, fn func()) {
	old := setCurrentCtx(c)
	defer setCurrentCtx(old)
	fn()
}

// Untracked runs fn with dependency tracking suspended. Signal reads inside
// fn do not subscribe the enclosing listener.
func Untracked(fn func()) {
	old := setCurrentListener(nil)
	defer setCurrentListener(old)
	fn()
}
