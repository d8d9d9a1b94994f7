package reactive

// Listener is anything that can be notified when a dependency changes.
// Memos, effects, and component renderers all implement it.
type Listener interface {
	// MarkDirty notifies the listener that a dependency changed.
	// Memos invalidate their cached value; effects schedule a re-run.
	MarkDirty()

	// ID returns a unique identifier, used to deduplicate notifications.
	ID() uint64
}

// Cleanup is returned by effect bodies to release resources.
// It runs before the effect re-runs and when the effect is disposed.
type Cleanup func()
