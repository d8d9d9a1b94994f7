package fiber

import "errors"

// ErrEmptyForest is returned when a conversion is asked to encode an empty
// forest. There is no fiber to return; callers should treat this as a
// precondition violation, not retry.
var ErrEmptyForest = errors.New("fiber: empty forest")

// ErrNotRoot is returned when a traversal is started from a fiber that has a
// parent. Walks must begin at a root so the climb-out termination condition
// holds.
var ErrNotRoot = errors.New("fiber: not a root fiber")
