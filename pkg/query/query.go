// Package query provides the URL query-parameter plumbing behind loom's
// query-synchronized state: history modes, value encodings, and the
// navigator abstraction hooks use to push URL updates to the host.
package query

// Mode determines how a URL update affects browser history.
type Mode int

const (
	// ModePush adds a new history entry (default).
	ModePush Mode = iota

	// ModeReplace replaces the current entry; use for filters and search
	// inputs to avoid history spam.
	ModeReplace
)

// Encoding specifies how complex values are carried in the URL.
type Encoding int

const (
	// EncodingPlain renders the value with its default string form.
	EncodingPlain Encoding = iota

	// EncodingJSON carries the value as base64-encoded JSON.
	EncodingJSON

	// EncodingComma joins slices with commas: ?tags=go,web,api.
	EncodingComma
)

// NavigatorKey is the owner-context key for the URL navigator. The host
// session sets it on the root owner so query hooks can push updates.
var NavigatorKey = &struct{ name string }{"QueryNavigator"}

// InitialParamsKey is the owner-context key for initial URL params, set by
// the host from the client handshake.
var InitialParamsKey = &struct{ name string }{"InitialQueryParams"}

// InitialState holds the URL state present when the session started, with
// consume-once semantics so params hydrate hooks exactly once.
type InitialState struct {
	Path     string
	Params   map[string]string
	consumed bool
}

// IsConsumed reports whether the initial params were already handed out.
func (s *InitialState) IsConsumed() bool {
	return s.consumed
}

// Consume marks the state consumed and returns the params. Subsequent calls
// return nil.
func (s *InitialState) Consume() map[string]string {
	if s.consumed {
		return nil
	}
	s.consumed = true
	return s.Params
}

// Peek returns the params without consuming them. Hooks that hydrate by key
// rather than wholesale use this so one hook does not starve the others.
func (s *InitialState) Peek() map[string]string {
	return s.Params
}
