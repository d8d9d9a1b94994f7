// Package reactive implements the reactive primitives that loom's hooks are
// built on: signals, memos, effects, and the owner hierarchy that scopes
// their lifetimes.
//
// Reads of a Signal or Memo inside a tracked context (a component render, a
// memo computation, or an effect body) subscribe the active listener, so the
// listener is notified when the value changes. Owners form a tree mirroring
// the component tree; disposing an owner disposes everything it created.
//
// Hook packages rely on owner hook slots for stable identity across renders:
// a hook called in the same position on every render of a component gets the
// same backing instance back.
package reactive
