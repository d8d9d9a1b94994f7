package reactive

import "context"

// Ctx is the host runtime context available during renders, effects, and
// event handlers.
type Ctx interface {
	// Dispatch queues fn to run on the session's event loop. Safe to call
	// from any goroutine; the correct way to update signals from
	// asynchronous work.
	Dispatch(fn func())

	// StdContext returns the standard library context for this session,
	// for calls into databases and external services.
	StdContext() context.Context
}

// UseCtx returns the host runtime context for the active tick, or nil when
// called outside a render, effect, or event handler.
func UseCtx() Ctx {
	c := getCurrentCtx()
	if c == nil {
		return nil
	}
	if ctx, ok := c.(Ctx); ok {
		return ctx
	}
	return nil
}

// SetContext sets a scoped context value on the current owner. Descendant
// scopes see it via GetContext.
func SetContext(key, value any) {
	if owner := getCurrentOwner(); owner != nil {
		owner.SetValue(key, value)
	}
}

// GetContext retrieves a context value from the nearest provider in the
// owner hierarchy. Returns nil if no provider set the key.
func GetContext(key any) any {
	if owner := getCurrentOwner(); owner != nil {
		return owner.GetValue(key)
	}
	return nil
}

// SetValue sets a context value on this Owner.
func (o *Owner) SetValue(key, value any) {
	o.valuesMu.Lock()
	defer o.valuesMu.Unlock()

	if o.values == nil {
		o.values = make(map[any]any)
	}
	o.values[key] = value
}

// GetValue retrieves a context value from this Owner or its ancestors.
func (o *Owner) GetValue(key any) any {
	o.valuesMu.RLock()
	if o.values != nil {
		if val, ok := o.values[key]; ok {
			o.valuesMu.RUnlock()
			return val
		}
	}
	o.valuesMu.RUnlock()

	if o.parent != nil {
		return o.parent.GetValue(key)
	}
	return nil
}
