package fiber

// Predicate decides whether a payload is a direct match.
type Predicate[T any] func(data T) bool

// Transform maps an included node's payload to its output payload. direct
// reports whether the node itself matched the predicate; ancestorMatch
// whether some node on its parent chain did.
type Transform[T, R any] func(data T, direct, ancestorMatch bool) R

// Result is the outcome of one search: the fiber root that was walked, the
// reconstructed filtered tree, the set of directly matching fibers, and the
// fiber-to-output-node mapping.
type Result[T, R any] struct {
	// Root is the fiber the search walked.
	Root *Fiber[T]

	// Tree is the reconstructed filtered forest. Sibling order matches the
	// input at every level.
	Tree []*Node[R]

	matches map[*Fiber[T]]struct{}
	order   []*Fiber[T]
	built   map[*Fiber[T]]*Node[R]
}

// IsMatch reports whether f matched the predicate directly.
func (r *Result[T, R]) IsMatch(f *Fiber[T]) bool {
	_, ok := r.matches[f]
	return ok
}

// Matches returns the directly matching fibers in pre-order.
func (r *Result[T, R]) Matches() []*Fiber[T] {
	out := make([]*Fiber[T], len(r.order))
	copy(out, r.order)
	return out
}

// Output returns the reconstructed tree node for f, if f was included.
func (r *Result[T, R]) Output(f *Fiber[T]) (*Node[R], bool) {
	n, ok := r.built[f]
	return n, ok
}

// ancestorMatch reports whether some fiber on f's parent chain matched
// directly. O(depth) per call.
func (r *Result[T, R]) ancestorMatch(f *Fiber[T]) bool {
	for p := f.Parent; p != nil; p = p.Parent {
		if _, ok := r.matches[p]; ok {
			return true
		}
	}
	return false
}

// materialize returns the output node for f, creating it and, recursively,
// its ancestors' output nodes on first use. The built map guarantees each
// fiber is materialized at most once, so an ancestor shared by several
// matches appears a single time and children append in visit order.
func (r *Result[T, R]) materialize(f *Fiber[T], transform Transform[T, R]) *Node[R] {
	if out, ok := r.built[f]; ok {
		return out
	}

	_, direct := r.matches[f]
	out := &Node[R]{Data: transform(f.Data, direct, r.ancestorMatch(f))}
	r.built[f] = out

	if f.Parent == nil {
		r.Tree = append(r.Tree, out)
	} else {
		parent := r.materialize(f.Parent, transform)
		parent.Children = append(parent.Children, out)
	}
	return out
}

// Search encodes forest as a fiber and runs SearchFiber over it.
// Returns ErrEmptyForest when forest is empty.
func Search[T, R any](forest []*Node[T], predicate Predicate[T], transform Transform[T, R]) (*Result[T, R], error) {
	root, err := FromForest(forest)
	if err != nil {
		return nil, err
	}
	return SearchFiber(root, predicate, transform)
}

// SearchFiber walks root in pre-order and reconstructs the filtered tree.
//
// A node is included when it matches the predicate directly or when a node
// on its parent chain matched. Matching is descendant-blind: a match deep in
// a subtree includes its own ancestor chain (materialized on demand) but
// nothing else around it. Excluded subtrees are pruned whole.
//
// Returns ErrNotRoot when root has a parent.
func SearchFiber[T, R any](root *Fiber[T], predicate Predicate[T], transform Transform[T, R]) (*Result[T, R], error) {
	r := &Result[T, R]{
		Root:    root,
		matches: make(map[*Fiber[T]]struct{}),
		built:   make(map[*Fiber[T]]*Node[R]),
	}

	err := Walk(root, func(f *Fiber[T]) bool {
		direct := predicate(f.Data)
		if direct {
			r.matches[f] = struct{}{}
			r.order = append(r.order, f)
		}
		// Pre-order guarantees every ancestor was visited already, so the
		// matches set is complete for f's parent chain at this point.
		if direct || r.ancestorMatch(f) {
			r.materialize(f, transform)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Filter is Search with an identity transform: the reconstructed tree
// carries the original payloads.
func Filter[T any](forest []*Node[T], predicate Predicate[T]) (*Result[T, T], error) {
	return Search(forest, predicate, Identity[T]())
}

// Identity returns a Transform that passes payloads through unchanged.
func Identity[T any]() Transform[T, T] {
	return func(data T, direct, ancestorMatch bool) T {
		return data
	}
}
