// Package asynceffect manages the lifecycle of asynchronous side effects:
// launch, cancellation on re-run or disposal, stale-completion suppression,
// and reactive state exposure.
//
// Each run gets its own context.Context and generation number. When a newer
// run starts, the older context is cancelled and its eventual result is
// discarded, so out-of-order completions never clobber fresh state.
package asynceffect

import (
	"context"
	"sync"
	"time"

	"github.com/loomui/loom/pkg/reactive"
)

// State is the lifecycle phase of an async effect.
type State int

const (
	Pending State = iota // created, before the first run
	Running              // a run is in flight
	Done                 // last run completed successfully
	Failed               // last run exhausted its retries
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Running:
		return "Running"
	case Done:
		return "Done"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Handle owns one async effect: its state signals and the in-flight run.
type Handle[T any] struct {
	fn func(ctx context.Context) (T, error)

	state *reactive.Signal[State]
	value *reactive.Signal[T]
	err   *reactive.Signal[error]

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	lastDone   time.Time

	retryCount int
	retryDelay time.Duration
	staleFor   time.Duration
	onDone     func(T)
	onFail     func(error)
}

// Run creates a handle and starts the first run immediately. On re-renders
// the existing handle is reused; the effect is cancelled when the current
// owner is disposed.
func Run[T any](fn func(ctx context.Context) (T, error)) *Handle[T] {
	reactive.TrackHook(reactive.HookAsyncEffect)

	if existing := reactive.UseHookSlot(); existing != nil {
		if h, ok := existing.(*Handle[T]); ok {
			h.fn = fn
			return h
		}
	}

	h := &Handle[T]{
		fn:    fn,
		state: reactive.NewSignal(Pending),
		value: reactive.NewSignal(*new(T)),
		err:   reactive.NewSignal[error](nil),
	}
	reactive.SetHookSlot(h)

	reactive.OnUnmount(h.Cancel)

	h.Restart()
	return h
}

// Watch creates a handle whose effect re-runs whenever the tracked key
// changes. key is read inside a reactive effect, so any signals it touches
// become dependencies.
func Watch[K comparable, T any](key func() K, fn func(ctx context.Context, k K) (T, error)) *Handle[T] {
	var h *Handle[T]
	h = Run(func(ctx context.Context) (T, error) {
		var k K
		reactive.Untracked(func() { k = key() })
		return fn(ctx, k)
	})

	first := true
	reactive.CreateEffect(func() reactive.Cleanup {
		key() // establish tracking
		if first {
			// Run already started the initial run.
			first = false
			return nil
		}
		h.Restart()
		return nil
	})

	return h
}

// State returns the current lifecycle phase, subscribing the listener.
func (h *Handle[T]) State() State {
	return h.state.Get()
}

// IsRunning reports whether a run is in flight or about to start.
func (h *Handle[T]) IsRunning() bool {
	s := h.state.Get()
	return s == Running || s == Pending
}

// IsDone reports whether the last run succeeded.
func (h *Handle[T]) IsDone() bool {
	return h.state.Get() == Done
}

// IsFailed reports whether the last run failed.
func (h *Handle[T]) IsFailed() bool {
	return h.state.Get() == Failed
}

// Value returns the last successful result, subscribing the listener.
func (h *Handle[T]) Value() T {
	return h.value.Get()
}

// ValueOr returns the last successful result, or fallback before the first
// success.
func (h *Handle[T]) ValueOr(fallback T) T {
	if h.IsDone() {
		return h.value.Get()
	}
	return fallback
}

// Err returns the last run's error, subscribing the listener.
func (h *Handle[T]) Err() error {
	return h.err.Get()
}

// Refresh starts a run unless the last success is still fresh under
// StaleFor. Use Restart to force one.
func (h *Handle[T]) Refresh() {
	h.mu.Lock()
	fresh := h.state.Peek() == Done && time.Since(h.lastDone) < h.staleFor
	h.mu.Unlock()

	if fresh {
		return
	}
	h.Restart()
}

// Restart cancels any in-flight run and starts a new one.
func (h *Handle[T]) Restart() {
	h.mu.Lock()
	if h.cancel != nil {
		h.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.generation++
	gen := h.generation
	h.mu.Unlock()

	h.state.Set(Running)
	h.err.Set(nil)

	go h.execute(ctx, gen)
}

// Cancel stops the in-flight run, if any. The handle stays usable; Restart
// starts a fresh run.
func (h *Handle[T]) Cancel() {
	h.mu.Lock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
	// Bump the generation so a goroutine past its last ctx check still
	// can't publish.
	h.generation++
	h.mu.Unlock()
}

// Invalidate marks the last result stale so the next Refresh runs.
func (h *Handle[T]) Invalidate() {
	h.mu.Lock()
	h.lastDone = time.Time{}
	h.mu.Unlock()
}

// Mutate locally overwrites the value without running the effect.
func (h *Handle[T]) Mutate(fn func(T) T) {
	h.value.Set(fn(h.value.Peek()))
}

// RetryOnError configures count retries with delay between attempts.
func (h *Handle[T]) RetryOnError(count int, delay time.Duration) *Handle[T] {
	h.mu.Lock()
	h.retryCount = count
	h.retryDelay = delay
	h.mu.Unlock()
	return h
}

// StaleFor sets how long a success satisfies Refresh without a new run.
func (h *Handle[T]) StaleFor(d time.Duration) *Handle[T] {
	h.mu.Lock()
	h.staleFor = d
	h.mu.Unlock()
	return h
}

// OnDone registers a callback invoked after each successful run.
func (h *Handle[T]) OnDone(fn func(T)) *Handle[T] {
	h.mu.Lock()
	h.onDone = fn
	h.mu.Unlock()
	return h
}

// OnFail registers a callback invoked after a run exhausts its retries.
func (h *Handle[T]) OnFail(fn func(error)) *Handle[T] {
	h.mu.Lock()
	h.onFail = fn
	h.mu.Unlock()
	return h
}

// current reports whether gen is still the live generation.
func (h *Handle[T]) current(gen uint64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.generation == gen
}

func (h *Handle[T]) execute(ctx context.Context, gen uint64) {
	var result T
	var err error

	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil || !h.current(gen) {
			return
		}

		result, err = h.fn(ctx)
		if err == nil {
			break
		}

		// Retry config is read per attempt so chained configuration after
		// Run still applies to the initial run.
		h.mu.Lock()
		remaining := h.retryCount - attempt
		delay := h.retryDelay
		h.mu.Unlock()
		if remaining <= 0 {
			break
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}

	// A newer run may have started while we executed; its result wins.
	if ctx.Err() != nil || !h.current(gen) {
		return
	}

	if err != nil {
		h.err.Set(err)
		h.state.Set(Failed)
		h.mu.Lock()
		onFail := h.onFail
		h.mu.Unlock()
		if onFail != nil {
			onFail(err)
		}
		return
	}

	h.mu.Lock()
	h.lastDone = time.Now()
	onDone := h.onDone
	h.mu.Unlock()

	h.value.Set(result)
	h.state.Set(Done)
	if onDone != nil {
		onDone(result)
	}
}
