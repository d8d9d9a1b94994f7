package fiber

import (
	"errors"
	"testing"
)

type item struct {
	ID int
}

func n(id int, children ...*Node[item]) *Node[item] {
	return &Node[item]{Data: item{ID: id}, Children: children}
}

// collectIDs walks root and returns visited IDs in order.
func collectIDs(t *testing.T, root *Fiber[item]) []int {
	t.Helper()
	var ids []int
	if err := Walk(root, func(f *Fiber[item]) bool {
		ids = append(ids, f.Data.ID)
		return true
	}); err != nil {
		t.Fatalf("Walk error: %v", err)
	}
	return ids
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFromForestEmpty(t *testing.T) {
	_, err := FromForest[item](nil)
	if !errors.Is(err, ErrEmptyForest) {
		t.Errorf("expected ErrEmptyForest, got %v", err)
	}

	_, err = FromForest([]*Node[item]{})
	if !errors.Is(err, ErrEmptyForest) {
		t.Errorf("expected ErrEmptyForest for empty slice, got %v", err)
	}
}

func TestFromForestSingleNode(t *testing.T) {
	root, err := FromForest([]*Node[item]{n(1)})
	if err != nil {
		t.Fatalf("FromForest: %v", err)
	}
	if root.Data.ID != 1 {
		t.Errorf("root ID = %d, want 1", root.Data.ID)
	}
	if root.Parent != nil || root.Child != nil || root.Sibling != nil {
		t.Error("single node should have no links")
	}
	if !root.IsRoot() {
		t.Error("single node should be a root")
	}
}

func TestFromForestLinks(t *testing.T) {
	// 1
	// ├── 2
	// └── 3
	//     └── 4
	root, err := FromForest([]*Node[item]{
		n(1, n(2), n(3, n(4))),
	})
	if err != nil {
		t.Fatalf("FromForest: %v", err)
	}

	c2 := root.Child
	if c2 == nil || c2.Data.ID != 2 {
		t.Fatalf("root.Child should be node 2")
	}
	if c2.Parent != root {
		t.Error("node 2 parent should be root")
	}

	c3 := c2.Sibling
	if c3 == nil || c3.Data.ID != 3 {
		t.Fatalf("node 2 sibling should be node 3")
	}
	if c3.Parent != root {
		t.Error("node 3 parent should be root")
	}
	if c3.Sibling != nil {
		t.Error("node 3 should have no sibling")
	}

	c4 := c3.Child
	if c4 == nil || c4.Data.ID != 4 {
		t.Fatalf("node 3 child should be node 4")
	}
	if c4.Parent != c3 {
		t.Error("node 4 parent should be node 3")
	}
}

func TestFromForestMultipleRoots(t *testing.T) {
	// Top-level roots become a sibling chain; no virtual super-root.
	root, err := FromForest([]*Node[item]{n(1, n(2)), n(3), n(4, n(5))})
	if err != nil {
		t.Fatalf("FromForest: %v", err)
	}

	if root.Data.ID != 1 {
		t.Errorf("first root ID = %d, want 1", root.Data.ID)
	}

	r3 := root.Sibling
	if r3 == nil || r3.Data.ID != 3 {
		t.Fatalf("second root should be node 3")
	}
	if r3.Parent != nil {
		t.Error("sibling roots must keep nil parent")
	}

	r4 := r3.Sibling
	if r4 == nil || r4.Data.ID != 4 {
		t.Fatalf("third root should be node 4")
	}

	got := collectIDs(t, root)
	want := []int{1, 2, 3, 4, 5}
	if !equalInts(got, want) {
		t.Errorf("traversal = %v, want %v", got, want)
	}
}

func TestEveryNonRootHasOneParent(t *testing.T) {
	root, err := FromForest([]*Node[item]{
		n(1, n(2, n(3)), n(4)),
		n(5, n(6)),
	})
	if err != nil {
		t.Fatalf("FromForest: %v", err)
	}

	seen := map[*Fiber[item]]bool{}
	if err := Walk(root, func(f *Fiber[item]) bool {
		if seen[f] {
			t.Errorf("fiber %d visited twice", f.Data.ID)
		}
		seen[f] = true

		if f.Parent == nil {
			// Top-level root: must be reachable on the root sibling chain.
			onChain := false
			for r := root; r != nil; r = r.Sibling {
				if r == f {
					onChain = true
					break
				}
			}
			if !onChain {
				t.Errorf("parentless fiber %d not on root chain", f.Data.ID)
			}
			return true
		}

		// Non-root: must appear exactly once in its parent's child chain.
		count := 0
		for c := f.Parent.Child; c != nil; c = c.Sibling {
			if c == f {
				count++
			}
		}
		if count != 1 {
			t.Errorf("fiber %d appears %d times under its parent", f.Data.ID, count)
		}
		return true
	}); err != nil {
		t.Fatalf("Walk error: %v", err)
	}

	if len(seen) != 6 {
		t.Errorf("visited %d fibers, want 6", len(seen))
	}
}
