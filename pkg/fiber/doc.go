// Package fiber re-encodes ordered trees as parent/first-child/next-sibling
// linked structures ("fibers") and provides traversal and filtered-search
// reconstruction over them.
//
// The fiber encoding replaces a node's child slice with three links: Parent
// (weak back-reference), Child (first child), and Sibling (next sibling at
// the same depth). The links reconstruct the original depth-first ordering
// exactly, and allow full pre-order traversal with no stack and no
// allocation per step.
//
// Search walks a fiber, evaluates a predicate per node, and rebuilds a
// filtered tree containing every node that either matches directly or has a
// directly-matching ancestor. Inclusion is strictly ancestor-driven: a
// matching descendant never pulls a non-matching ancestor's siblings into
// the output, and a node is never included merely because something below it
// matched. The ancestors of an included node are materialized on demand so
// the chain down to each match survives.
package fiber
