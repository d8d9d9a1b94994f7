// Package features provides the hook packages that applications built on
// loom interact with daily, layered on the reactive, fiber, and storage
// packages.
//
// # Subsystems
//
// Each hook lives in its own sub-package and can be imported independently:
//
//   - searchtree: memoized, filter-driven reconstruction of a fiber tree
//   - storagestate: state synchronized with a pluggable storage backend
//   - querystate: state synchronized with URL query parameters
//   - asynceffect: async effect lifecycle with cancellation and retries
//   - scrollmemo: scroll position memoization keyed by route
//   - imgguard: error styling and fallbacks for third-party images
//
// All hooks follow the same contract: they must be called during render,
// in the same order on every render, under an active reactive.Owner. See
// the individual package documentation for usage.
package features
