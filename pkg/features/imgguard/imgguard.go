// Package imgguard decorates images whose source fails to load. Third-party
// images break routinely (hotlink protection, expired CDN URLs) and a bare
// broken-image glyph is worse than any of the alternatives this hook offers:
// swap in a fallback, apply an error class, or hide the element.
package imgguard

import (
	"github.com/loomui/loom/pkg/hooks"
	"github.com/loomui/loom/pkg/vdom"
)

// Config controls the client-side error behavior. Zero values mean the
// corresponding behavior is off.
type Config struct {
	// Fallback replaces the src after the last failed retry.
	Fallback string `json:"fallback,omitempty"`

	// ErrorClass is added to the element's class list on error.
	ErrorClass string `json:"errorClass,omitempty"`

	// Hide sets display:none on error instead of showing anything.
	Hide bool `json:"hide,omitempty"`

	// Retries is how many times the client re-requests the original src
	// before giving up.
	Retries int `json:"retries,omitempty"`

	// RetryDelayMillis is the wait between retries.
	RetryDelayMillis int `json:"retryDelayMillis,omitempty"`

	// Report makes the client emit an imgguard:error event after the last
	// failed retry. Implied when an OnError handler is bound.
	Report bool `json:"report,omitempty"`
}

// Attr returns the hook attribute for one image element.
func Attr(cfg Config) vdom.Attr {
	return hooks.Hook("ImgGuard", cfg)
}

// WithFallback is shorthand for the most common case.
func WithFallback(url string) vdom.Attr {
	return Attr(Config{Fallback: url})
}

// ErrorEvent describes one image that exhausted its retries.
type ErrorEvent struct {
	// Src is the URL that failed to load.
	Src string

	// Attempts counts loads tried, including the first.
	Attempts int
}

// OnError binds a handler invoked when a guarded image gives up.
func OnError(handler func(ErrorEvent)) vdom.EventHandler {
	return hooks.OnEvent("imgguard:error", func(e hooks.HookEvent) {
		handler(ErrorEvent{
			Src:      e.String("src"),
			Attempts: e.Int("attempts"),
		})
	})
}
