package fiber

import (
	"errors"
	"testing"
)

func TestWalkPreOrder(t *testing.T) {
	tests := []struct {
		name   string
		forest []*Node[item]
		want   []int
	}{
		{
			name:   "single node",
			forest: []*Node[item]{n(1)},
			want:   []int{1},
		},
		{
			name:   "chain",
			forest: []*Node[item]{n(1, n(2, n(3, n(4))))},
			want:   []int{1, 2, 3, 4},
		},
		{
			name:   "wide",
			forest: []*Node[item]{n(1, n(2), n(3), n(4))},
			want:   []int{1, 2, 3, 4},
		},
		{
			name: "mixed depth",
			forest: []*Node[item]{
				n(1,
					n(2, n(3), n(4)),
					n(5),
					n(6, n(7, n(8))),
				),
			},
			want: []int{1, 2, 3, 4, 5, 6, 7, 8},
		},
		{
			name:   "forest",
			forest: []*Node[item]{n(1, n(2)), n(3, n(4, n(5)), n(6))},
			want:   []int{1, 2, 3, 4, 5, 6},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := FromForest(tt.forest)
			if err != nil {
				t.Fatalf("FromForest: %v", err)
			}
			got := collectIDs(t, root)
			if !equalInts(got, tt.want) {
				t.Errorf("pre-order = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWalkNonRoot(t *testing.T) {
	root, err := FromForest([]*Node[item]{n(1, n(2))})
	if err != nil {
		t.Fatalf("FromForest: %v", err)
	}

	err = Walk(root.Child, func(*Fiber[item]) bool { return true })
	if !errors.Is(err, ErrNotRoot) {
		t.Errorf("expected ErrNotRoot, got %v", err)
	}
}

func TestWalkNil(t *testing.T) {
	err := Walk[item](nil, func(*Fiber[item]) bool { return true })
	if !errors.Is(err, ErrNotRoot) {
		t.Errorf("expected ErrNotRoot for nil fiber, got %v", err)
	}
}

func TestWalkEarlyStop(t *testing.T) {
	root, err := FromForest([]*Node[item]{n(1, n(2), n(3))})
	if err != nil {
		t.Fatalf("FromForest: %v", err)
	}

	var ids []int
	if err := Walk(root, func(f *Fiber[item]) bool {
		ids = append(ids, f.Data.ID)
		return f.Data.ID != 2
	}); err != nil {
		t.Fatalf("Walk error: %v", err)
	}

	if !equalInts(ids, []int{1, 2}) {
		t.Errorf("early stop visited %v, want [1 2]", ids)
	}
}

func TestWalkVisitsEachNodeOnce(t *testing.T) {
	// Deep and wide enough to exercise the climb-out path repeatedly.
	forest := []*Node[item]{
		n(1,
			n(2, n(3, n(4, n(5)))),
			n(6),
			n(7, n(8, n(9)), n(10)),
		),
		n(11, n(12)),
	}
	root, err := FromForest(forest)
	if err != nil {
		t.Fatalf("FromForest: %v", err)
	}

	counts := map[int]int{}
	if err := Walk(root, func(f *Fiber[item]) bool {
		counts[f.Data.ID]++
		return true
	}); err != nil {
		t.Fatalf("Walk error: %v", err)
	}

	for id := 1; id <= 12; id++ {
		if counts[id] != 1 {
			t.Errorf("node %d visited %d times, want 1", id, counts[id])
		}
	}
	if len(counts) != 12 {
		t.Errorf("visited %d distinct nodes, want 12", len(counts))
	}
}

func TestCount(t *testing.T) {
	root, err := FromForest([]*Node[item]{n(1, n(2), n(3, n(4)))})
	if err != nil {
		t.Fatalf("FromForest: %v", err)
	}

	got, err := Count(root)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if got != 4 {
		t.Errorf("Count = %d, want 4", got)
	}

	if _, err := Count(root.Child); !errors.Is(err, ErrNotRoot) {
		t.Errorf("Count from non-root: expected ErrNotRoot, got %v", err)
	}
}
