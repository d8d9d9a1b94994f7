package scrollmemo

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/loomui/loom/pkg/hooks"
	"github.com/loomui/loom/pkg/reactive"
	"github.com/loomui/loom/pkg/storage"
)

func render(owner *reactive.Owner, fn func()) {
	reactive.WithOwner(owner, func() {
		owner.StartRender()
		fn()
		owner.EndRender()
	})
}

func sessionOwner() *reactive.Owner {
	owner := reactive.NewOwner(nil)
	owner.SetValue(StoreKey, NewStore())
	return owner
}

func TestRecordAndPosition(t *testing.T) {
	owner := sessionOwner()
	defer owner.Dispose()

	render(owner, func() {
		m := Use("/items")
		m.Record(Position{X: 0, Y: 480})

		if got := m.Position(); got.Y != 480 {
			t.Errorf("expected y=480, got %+v", got)
		}
	})
}

func TestPositionSurvivesRemount(t *testing.T) {
	store := NewStore()

	parent := reactive.NewOwner(nil)
	defer parent.Dispose()
	parent.SetValue(StoreKey, store)

	// First mount records a position, then unmounts
	mount1 := reactive.NewOwner(parent)
	render(mount1, func() {
		Use("/items").Record(Position{X: 0, Y: 360})
	})
	mount1.Dispose()

	// A fresh mount of the same key restores it
	mount2 := reactive.NewOwner(parent)
	defer mount2.Dispose()
	render(mount2, func() {
		m := Use("/items")
		if got := m.Position(); got.Y != 360 {
			t.Errorf("expected restored y=360, got %+v", got)
		}
	})
}

func TestKeysAreIndependent(t *testing.T) {
	owner := sessionOwner()
	defer owner.Dispose()

	render(owner, func() {
		a := Use("/items")
		b := Use("/archive")

		a.Record(Position{Y: 100})
		if got := b.Position(); got.Y != 0 {
			t.Errorf("keys should not share positions, got %+v", got)
		}
	})
}

func TestAttrCarriesSavedOffset(t *testing.T) {
	owner := sessionOwner()
	defer owner.Dispose()

	render(owner, func() {
		m := Use("/items").Smooth()
		m.Record(Position{X: 10, Y: 200})

		attr := m.Attr()
		if attr.Key != hooks.AttrKey {
			t.Errorf("expected hook attribute, got %q", attr.Key)
		}

		name, cfg, found := strings.Cut(attr.Value.(string), ":")
		if !found || name != "ScrollMemo" {
			t.Fatalf("expected ScrollMemo hook, got %q", attr.Value)
		}

		var decoded map[string]any
		if err := json.Unmarshal([]byte(cfg), &decoded); err != nil {
			t.Fatalf("config is not JSON: %v", err)
		}
		if decoded["y"] != float64(200) {
			t.Errorf("expected y=200 in config, got %v", decoded["y"])
		}
		if decoded["behavior"] != "smooth" {
			t.Errorf("expected smooth behavior, got %v", decoded["behavior"])
		}
	})
}

func TestOnScrollRecords(t *testing.T) {
	owner := sessionOwner()
	defer owner.Dispose()

	render(owner, func() {
		m := Use("/items")
		handler := m.OnScroll()

		fn, ok := handler.Handler.(func(hooks.HookEvent))
		if !ok {
			t.Fatalf("unexpected handler type %T", handler.Handler)
		}
		fn(hooks.HookEvent{
			Name: handler.Event,
			Data: map[string]any{"x": float64(5), "y": float64(640)},
		})

		if got := m.Position(); got.X != 5 || got.Y != 640 {
			t.Errorf("expected 5/640, got %+v", got)
		}
	})
}

func TestPersistThroughBackend(t *testing.T) {
	backend := storage.NewMemoryBackend()
	defer backend.Close()

	owner := sessionOwner()
	defer owner.Dispose()

	render(owner, func() {
		m := Use("/items").Persist(backend, time.Hour)
		m.Record(Position{Y: 720})
	})

	data, err := backend.Get(context.Background(), "scroll:/items")
	if err != nil {
		t.Fatal(err)
	}
	if data == nil {
		t.Fatal("position was not persisted")
	}

	var p Position
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatal(err)
	}
	if p.Y != 720 {
		t.Errorf("expected persisted y=720, got %+v", p)
	}
}

func TestPersistHydratesFromBackend(t *testing.T) {
	backend := storage.NewMemoryBackend()
	defer backend.Close()

	raw, _ := json.Marshal(Position{Y: 150})
	backend.Set(context.Background(), "scroll:/items", raw, 0)

	owner := sessionOwner()
	defer owner.Dispose()

	render(owner, func() {
		m := Use("/items").Persist(backend, 0)
		if got := m.Position(); got.Y != 150 {
			t.Errorf("expected hydrated y=150, got %+v", got)
		}
	})
}

func TestClear(t *testing.T) {
	backend := storage.NewMemoryBackend()
	defer backend.Close()

	owner := sessionOwner()
	defer owner.Dispose()

	render(owner, func() {
		m := Use("/items").Persist(backend, 0)
		m.Record(Position{Y: 300})
		m.Clear()

		if got := m.Position(); got.Y != 0 {
			t.Errorf("expected cleared position, got %+v", got)
		}
	})

	data, _ := backend.Get(context.Background(), "scroll:/items")
	if data != nil {
		t.Error("Clear should remove the persisted entry")
	}
}
