package asynceffect

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/loomui/loom/pkg/reactive"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestRunSuccess(t *testing.T) {
	h := Run(func(ctx context.Context) (string, error) {
		return "result", nil
	})

	waitFor(t, "done", h.IsDone)

	if h.Value() != "result" {
		t.Errorf("expected result, got %q", h.Value())
	}
	if h.Err() != nil {
		t.Errorf("expected nil error, got %v", h.Err())
	}
	if h.State() != Done {
		t.Errorf("expected Done, got %v", h.State())
	}
}

func TestRunFailure(t *testing.T) {
	boom := errors.New("boom")
	h := Run(func(ctx context.Context) (int, error) {
		return 0, boom
	})

	waitFor(t, "failed", h.IsFailed)

	if !errors.Is(h.Err(), boom) {
		t.Errorf("expected boom, got %v", h.Err())
	}
	if h.ValueOr(42) != 42 {
		t.Errorf("ValueOr should fall back on failure, got %d", h.ValueOr(42))
	}
}

func TestRetryOnError(t *testing.T) {
	var attempts atomic.Int32
	configured := make(chan struct{})

	h := Run(func(ctx context.Context) (int, error) {
		<-configured
		if attempts.Add(1) < 3 {
			return 0, errors.New("transient")
		}
		return 7, nil
	}).RetryOnError(3, time.Millisecond)
	close(configured)

	waitFor(t, "done", h.IsDone)

	if got := attempts.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
	if h.Value() != 7 {
		t.Errorf("expected 7, got %d", h.Value())
	}
}

func TestRetryExhausted(t *testing.T) {
	var attempts atomic.Int32
	boom := errors.New("boom")
	configured := make(chan struct{})

	h := Run(func(ctx context.Context) (int, error) {
		<-configured
		attempts.Add(1)
		return 0, boom
	}).RetryOnError(2, time.Millisecond)
	close(configured)

	waitFor(t, "failed", h.IsFailed)

	if got := attempts.Load(); got != 3 {
		t.Errorf("expected 1 initial + 2 retries, got %d", got)
	}
}

func TestRestartDiscardsStaleResult(t *testing.T) {
	release := make(chan struct{})

	var generation atomic.Int32
	h := Run(func(ctx context.Context) (int, error) {
		if generation.Add(1) == 1 {
			// Simulate a slow first run finishing after the restart
			<-release
			return 1, nil
		}
		return 2, nil
	})

	h.Restart()
	waitFor(t, "done", h.IsDone)
	close(release)

	// Give the stale goroutine a chance to (incorrectly) publish
	time.Sleep(20 * time.Millisecond)

	if h.Value() != 2 {
		t.Errorf("stale completion should be discarded, got %d", h.Value())
	}
}

func TestRestartCancelsInFlightContext(t *testing.T) {
	cancelled := make(chan struct{})
	started := make(chan struct{})
	var once atomic.Bool

	h := Run(func(ctx context.Context) (int, error) {
		if once.CompareAndSwap(false, true) {
			close(started)
			<-ctx.Done()
			close(cancelled)
			return 0, ctx.Err()
		}
		return 1, nil
	})

	<-started
	h.Restart()

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("first run's context was not cancelled")
	}

	waitFor(t, "done", h.IsDone)
	if h.Value() != 1 {
		t.Errorf("expected 1, got %d", h.Value())
	}
}

func TestCancel(t *testing.T) {
	started := make(chan struct{})
	h := Run(func(ctx context.Context) (int, error) {
		close(started)
		<-ctx.Done()
		return 0, ctx.Err()
	})

	<-started
	h.Cancel()

	time.Sleep(20 * time.Millisecond)

	// A cancelled run publishes nothing
	if h.State() != Running {
		t.Errorf("expected state to stay Running after cancel, got %v", h.State())
	}
}

func TestStaleFor(t *testing.T) {
	var runs atomic.Int32
	h := Run(func(ctx context.Context) (int, error) {
		runs.Add(1)
		return 1, nil
	}).StaleFor(time.Hour)

	waitFor(t, "done", h.IsDone)

	h.Refresh()
	h.Refresh()
	time.Sleep(10 * time.Millisecond)

	if got := runs.Load(); got != 1 {
		t.Errorf("fresh result should satisfy Refresh, got %d runs", got)
	}

	h.Invalidate()
	h.Refresh()
	waitFor(t, "second run", func() bool { return runs.Load() == 2 })
}

func TestMutate(t *testing.T) {
	h := Run(func(ctx context.Context) (int, error) {
		return 10, nil
	})
	waitFor(t, "done", h.IsDone)

	h.Mutate(func(v int) int { return v + 1 })
	if h.Value() != 11 {
		t.Errorf("expected 11, got %d", h.Value())
	}
}

func TestOnDoneCallback(t *testing.T) {
	done := make(chan string, 1)

	started := make(chan struct{})
	h := Run(func(ctx context.Context) (string, error) {
		<-started
		return "v", nil
	}).OnDone(func(v string) {
		done <- v
	})
	close(started)

	select {
	case v := <-done:
		if v != "v" {
			t.Errorf("expected v, got %q", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("OnDone was not called")
	}
	_ = h
}

func TestOnFailCallback(t *testing.T) {
	failed := make(chan error, 1)
	boom := errors.New("boom")

	started := make(chan struct{})
	Run(func(ctx context.Context) (int, error) {
		<-started
		return 0, boom
	}).OnFail(func(err error) {
		failed <- err
	})
	close(started)

	select {
	case err := <-failed:
		if !errors.Is(err, boom) {
			t.Errorf("expected boom, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("OnFail was not called")
	}
}

func TestWatchRerunsOnKeyChange(t *testing.T) {
	userID := reactive.NewSignal(1)

	h := Watch(
		func() int { return userID.Get() },
		func(ctx context.Context, id int) (string, error) {
			switch id {
			case 1:
				return "alice", nil
			default:
				return "bob", nil
			}
		},
	)

	waitFor(t, "first value", func() bool { return h.IsDone() && h.Value() == "alice" })

	userID.Set(2)
	waitFor(t, "second value", func() bool { return h.IsDone() && h.Value() == "bob" })
}

func TestRunReusesHookSlot(t *testing.T) {
	owner := reactive.NewOwner(nil)
	defer owner.Dispose()

	var first, second *Handle[int]

	reactive.WithOwner(owner, func() {
		owner.StartRender()
		first = Run(func(ctx context.Context) (int, error) { return 1, nil })
		owner.EndRender()
	})

	waitFor(t, "done", first.IsDone)

	reactive.WithOwner(owner, func() {
		owner.StartRender()
		second = Run(func(ctx context.Context) (int, error) { return 2, nil })
		owner.EndRender()
	})

	if first != second {
		t.Error("handle should keep its identity across renders")
	}
	// Reuse must not restart the effect
	if second.Value() != 1 {
		t.Errorf("re-render should not re-run, got %d", second.Value())
	}
}

func TestCancelOnOwnerDispose(t *testing.T) {
	owner := reactive.NewOwner(nil)

	started := make(chan struct{})
	cancelled := make(chan struct{})

	reactive.WithOwner(owner, func() {
		Run(func(ctx context.Context) (int, error) {
			close(started)
			<-ctx.Done()
			close(cancelled)
			return 0, ctx.Err()
		})
	})

	<-started
	owner.Dispose()

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("dispose should cancel the in-flight run")
	}
}
