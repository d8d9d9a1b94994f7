// Package hooks is the transport between server-side hook packages and
// their client-side behaviors. A hook ships as a single attribute whose
// value is the hook name plus a JSON-encoded config; the client runtime
// instantiates the named behavior and reports back through HookEvents.
package hooks

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/loomui/loom/pkg/vdom"
)

// AttrKey is the attribute the client runtime scans for.
const AttrKey = "l-hook"

// Hook packs a named client behavior and its config into an attribute.
// The config is serialized eagerly so invalid configs fail at render time.
func Hook(name string, config any) vdom.Attr {
	b, _ := json.Marshal(config)
	return vdom.Attr{
		Key:   AttrKey,
		Value: fmt.Sprintf("%s:%s", name, b),
	}
}

// OnEvent binds a handler to an event emitted by a client hook.
func OnEvent(name string, handler func(HookEvent)) vdom.EventHandler {
	return vdom.EventHandler{
		Event:   name,
		Handler: handler,
	}
}

// HookEvent is an event reported by a client hook. Data carries whatever the
// client behavior sent, decoded from JSON.
type HookEvent struct {
	Name string
	Data map[string]any
}

// String returns the value for key rendered as a string.
func (e HookEvent) String(key string) string {
	if v, ok := e.Data[key]; ok {
		return fmt.Sprintf("%v", v)
	}
	return ""
}

// Int returns the value for key as an int, tolerating the float64 and
// string forms JSON decoding produces.
func (e HookEvent) Int(key string) int {
	switch v := e.Data[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case string:
		i, _ := strconv.Atoi(v)
		return i
	}
	return 0
}

// Float returns the value for key as a float64.
func (e HookEvent) Float(key string) float64 {
	switch v := e.Data[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	}
	return 0
}

// Bool returns the value for key as a bool.
func (e HookEvent) Bool(key string) bool {
	if v, ok := e.Data[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
		b, _ := strconv.ParseBool(fmt.Sprintf("%v", v))
		return b
	}
	return false
}

// Strings returns the value for key as a string slice.
func (e HookEvent) Strings(key string) []string {
	switch v := e.Data[key].(type) {
	case []any:
		out := make([]string, len(v))
		for i, item := range v {
			out[i] = fmt.Sprintf("%v", item)
		}
		return out
	case []string:
		return v
	}
	return nil
}

// Raw returns the undecoded value for key.
func (e HookEvent) Raw(key string) any {
	return e.Data[key]
}
