// Package vdom carries the minimal virtual-node model that loom's hook
// attributes and event handlers attach to. A host framework supplies
// rendering and patching; this package only defines the shapes hooks
// produce.
package vdom

// VNode is a virtual DOM node.
type VNode struct {
	Tag      string
	Props    Props
	Children []*VNode
	Key      string
	Text     string
}

// Props holds attributes and event handlers.
type Props map[string]any

// Attr is a single attribute.
type Attr struct {
	Key   string
	Value any
}

// IsEmpty reports whether this is an empty attribute.
func (a Attr) IsEmpty() bool {
	return a.Key == ""
}

// Apply sets the attribute on the node's props.
func (a Attr) Apply(v *VNode) {
	if a.IsEmpty() || v == nil {
		return
	}
	if v.Props == nil {
		v.Props = make(Props)
	}
	v.Props[a.Key] = a.Value
}

// EventHandler binds a handler to a client event.
type EventHandler struct {
	Event   string
	Handler any
}
