package reactive

import (
	"sync"
	"testing"
)

// testListener is a simple Listener implementation for testing.
type testListener struct {
	id         uint64
	dirtyCount int
	mu         sync.Mutex
}

func newTestListener() *testListener {
	return &testListener{id: nextID()}
}

func (l *testListener) MarkDirty() {
	l.mu.Lock()
	l.dirtyCount++
	l.mu.Unlock()
}

func (l *testListener) ID() uint64 {
	return l.id
}

func (l *testListener) getDirtyCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dirtyCount
}

func TestGetTracking(t *testing.T) {
	// Same goroutine always sees the same context
	ctx1 := getTracking()
	ctx2 := getTracking()

	if ctx1 != ctx2 {
		t.Error("getTracking should return same context for same goroutine")
	}
}

func TestTrackingIsolation(t *testing.T) {
	var wg sync.WaitGroup
	contexts := make(chan *trackingContext, 2)

	wg.Add(2)

	go func() {
		defer wg.Done()
		contexts <- getTracking()
	}()

	go func() {
		defer wg.Done()
		contexts <- getTracking()
	}()

	wg.Wait()
	close(contexts)

	var list []*trackingContext
	for ctx := range contexts {
		list = append(list, ctx)
	}

	if len(list) != 2 {
		t.Fatalf("expected 2 contexts, got %d", len(list))
	}
	if list[0] == list[1] {
		t.Error("different goroutines should have different contexts")
	}
}

func TestWithListenerRestores(t *testing.T) {
	outer := newTestListener()
	inner := newTestListener()

	WithListener(outer, func() {
		WithListener(inner, func() {
			if getCurrentListener() != inner {
				t.Error("inner listener should be current")
			}
		})
		if getCurrentListener() != outer {
			t.Error("outer listener should be restored")
		}
	})

	if getCurrentListener() != nil {
		t.Error("listener should be cleared after WithListener")
	}
}

func TestUntracked(t *testing.T) {
	count := NewSignal(0)
	listener := newTestListener()

	WithListener(listener, func() {
		Untracked(func() {
			_ = count.Get()
		})
	})

	count.Set(1)
	if listener.getDirtyCount() != 0 {
		t.Errorf("Untracked read should not subscribe, got %d notifications", listener.getDirtyCount())
	}
}

func TestWithOwnerRestores(t *testing.T) {
	outer := NewOwner(nil)
	inner := NewOwner(nil)
	defer outer.Dispose()
	defer inner.Dispose()

	WithOwner(outer, func() {
		WithOwner(inner, func() {
			if getCurrentOwner() != inner {
				t.Error("inner owner should be current")
			}
		})
		if getCurrentOwner() != outer {
			t.Error("outer owner should be restored")
		}
	})

	if getCurrentOwner() != nil {
		t.Error("owner should be cleared after WithOwner")
	}
}
