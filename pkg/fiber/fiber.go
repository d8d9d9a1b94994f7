package fiber

// Node is an input tree node: a payload plus an ordered child sequence.
// Inputs are caller-owned; this package never mutates them.
type Node[T any] struct {
	Data     T
	Children []*Node[T]
}

// Fiber is a tree node re-encoded with parent/first-child/next-sibling
// links. Parent is a weak back-reference; descendants are reached only
// through Child and Sibling.
type Fiber[T any] struct {
	Data    T
	Parent  *Fiber[T]
	Child   *Fiber[T]
	Sibling *Fiber[T]
}

// IsRoot reports whether this fiber has no parent. Top-level fibers of a
// multi-root forest are all roots; they chain through Sibling.
func (f *Fiber[T]) IsRoot() bool {
	return f.Parent == nil
}

// FromForest encodes a non-empty forest as a fiber. The returned fiber
// corresponds to the first root; remaining roots hang off its Sibling chain
// with nil parents. Every node of the forest is reachable from the result in
// original depth-first order.
//
// Returns ErrEmptyForest when forest is empty.
func FromForest[T any](forest []*Node[T]) (*Fiber[T], error) {
	if len(forest) == 0 {
		return nil, ErrEmptyForest
	}

	var first, prev *Fiber[T]
	for _, root := range forest {
		f := encode(root, nil)
		if prev == nil {
			first = f
		} else {
			prev.Sibling = f
		}
		prev = f
	}
	return first, nil
}

// encode builds the fiber for n under parent, linking children in order:
// the first child becomes Child, each later child the previous one's
// Sibling.
func encode[T any](n *Node[T], parent *Fiber[T]) *Fiber[T] {
	f := &Fiber[T]{Data: n.Data, Parent: parent}

	var prev *Fiber[T]
	for _, c := range n.Children {
		cf := encode(c, f)
		if prev == nil {
			f.Child = cf
		} else {
			prev.Sibling = cf
		}
		prev = cf
	}
	return f
}
