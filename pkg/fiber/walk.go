package fiber

// Walk visits every fiber reachable from root exactly once, in pre-order: a
// node before its children, children before later siblings. visit returning
// false stops the walk early.
//
// Traversal is pointer-chasing with O(1) auxiliary space: descend to Child
// when present, else advance to Sibling, else climb Parent links until a
// node with a Sibling is found. Climbing off the top ends the walk, which is
// why root must actually be a root; ErrNotRoot is returned otherwise.
func Walk[T any](root *Fiber[T], visit func(*Fiber[T]) bool) error {
	if root == nil || !root.IsRoot() {
		return ErrNotRoot
	}

	for f := root; f != nil; f = next(f) {
		if !visit(f) {
			return nil
		}
	}
	return nil
}

// next returns the pre-order successor of f, or nil at the end of the walk.
func next[T any](f *Fiber[T]) *Fiber[T] {
	if f.Child != nil {
		return f.Child
	}
	for n := f; n != nil; n = n.Parent {
		if n.Sibling != nil {
			return n.Sibling
		}
	}
	return nil
}

// Count returns the number of fibers reachable from root.
// Returns ErrNotRoot when root has a parent.
func Count[T any](root *Fiber[T]) (int, error) {
	n := 0
	err := Walk(root, func(*Fiber[T]) bool {
		n++
		return true
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}
