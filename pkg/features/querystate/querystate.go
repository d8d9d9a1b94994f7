// Package querystate synchronizes reactive state with a URL query
// parameter. Reads are signal reads; writes update the signal and push the
// serialized value through the host navigator, optionally debounced.
package querystate

import (
	"reflect"
	"sync"
	"time"

	"github.com/loomui/loom/pkg/query"
	"github.com/loomui/loom/pkg/reactive"
)

// QueryState is reactive state bound to one query parameter.
type QueryState[T any] struct {
	key          string
	defaultValue T
	signal       *reactive.Signal[T]
	serialize    func(T) string
	deserialize  func(string) T
	debounce     time.Duration

	timerMu sync.Mutex
	timer   *time.Timer

	navigator query.Navigator
}

// Use binds state to the query parameter key, hydrating the initial value
// from the session's initial URL params on first render.
//
// Hook-order rules apply: call unconditionally during render. The instance
// is hook-slot stabilized, so the same QueryState comes back each render.
func Use[T any](key string, defaultValue T) *QueryState[T] {
	reactive.TrackHook(reactive.HookQueryState)

	slot := reactive.UseHookSlot()
	var q *QueryState[T]
	first := false
	if slot != nil {
		existing, ok := slot.(*QueryState[T])
		if !ok {
			panic("loom: hook slot type mismatch for QueryState")
		}
		q = existing
	} else {
		first = true
		q = &QueryState[T]{}
		reactive.SetHookSlot(q)
	}

	if first {
		q.key = key
		q.defaultValue = defaultValue
		q.serialize = query.EncodeFunc[T](query.EncodingPlain)
		q.deserialize = query.DecodeFunc(defaultValue, query.EncodingPlain)

		if navCtx := reactive.GetContext(query.NavigatorKey); navCtx != nil {
			if nav, ok := navCtx.(query.Navigator); ok {
				q.navigator = nav
			}
		}
	}

	// Hydrate from the initial URL on first render only. Peek rather than
	// Consume so other keys stay available to their hooks.
	if first {
		initial := defaultValue
		if initCtx := reactive.GetContext(query.InitialParamsKey); initCtx != nil {
			if state, ok := initCtx.(*query.InitialState); ok && q.key != "" {
				if raw, ok := state.Peek()[q.key]; ok {
					initial = q.deserialize(raw)
				}
			}
		}
		q.signal = reactive.NewSignal(initial)
	}

	return q
}

// Get returns the current value, subscribing the active listener.
func (q *QueryState[T]) Get() T {
	return q.signal.Get()
}

// Peek returns the current value without subscribing.
func (q *QueryState[T]) Peek() T {
	return q.signal.Peek()
}

// Set updates the value and pushes a new history entry.
func (q *QueryState[T]) Set(value T) {
	q.signal.Set(value)
	q.updateURL(value, query.ModePush)
}

// Replace updates the value, replacing the current history entry.
func (q *QueryState[T]) Replace(value T) {
	q.signal.Set(value)
	q.updateURL(value, query.ModeReplace)
}

// Update atomically transforms the value and pushes the result.
func (q *QueryState[T]) Update(fn func(T) T) {
	q.signal.Update(fn)
	q.updateURL(q.signal.Peek(), query.ModePush)
}

// Reset restores the default value.
func (q *QueryState[T]) Reset() {
	q.Set(q.defaultValue)
}

// IsSet reports whether the current value differs from the default.
func (q *QueryState[T]) IsSet() bool {
	return !reflect.DeepEqual(q.Peek(), q.defaultValue)
}

// Debounce delays URL writes by d, coalescing rapid updates. The signal
// still updates immediately; only the URL lags.
func (q *QueryState[T]) Debounce(d time.Duration) *QueryState[T] {
	q.debounce = d
	return q
}

// Serialize installs a custom value-to-string serializer.
func (q *QueryState[T]) Serialize(fn func(T) string) *QueryState[T] {
	q.serialize = fn
	return q
}

// Deserialize installs a custom string-to-value parser.
func (q *QueryState[T]) Deserialize(fn func(string) T) *QueryState[T] {
	q.deserialize = fn
	return q
}

// Encoding switches the default codec to enc.
func (q *QueryState[T]) Encoding(enc query.Encoding) *QueryState[T] {
	q.serialize = query.EncodeFunc[T](enc)
	q.deserialize = query.DecodeFunc(q.defaultValue, enc)
	return q
}

func (q *QueryState[T]) updateURL(value T, mode query.Mode) {
	if q.key == "" {
		return
	}

	str := q.serialize(value)

	if q.debounce > 0 {
		q.timerMu.Lock()
		defer q.timerMu.Unlock()

		if q.timer != nil {
			q.timer.Stop()
		}
		q.timer = time.AfterFunc(q.debounce, func() {
			q.navigate(str, mode)
		})
		return
	}

	q.navigate(str, mode)
}

func (q *QueryState[T]) navigate(value string, mode query.Mode) {
	if q.navigator == nil {
		// Late-bound: the navigator may have been provided after the first
		// render (e.g. during session attach).
		if navCtx := reactive.GetContext(query.NavigatorKey); navCtx != nil {
			if nav, ok := navCtx.(query.Navigator); ok {
				q.navigator = nav
			}
		}
	}
	if q.navigator == nil {
		return
	}
	q.navigator.Navigate(map[string]string{q.key: value}, mode)
}
