package query

// Navigator applies URL parameter updates on behalf of query hooks. The
// host runtime supplies an implementation that forwards updates to the
// client (for example as patches in the next frame).
type Navigator interface {
	// Navigate applies the given params to the current URL. A param with an
	// empty value is removed.
	Navigate(params map[string]string, mode Mode)
}

// FuncNavigator adapts a function to the Navigator interface.
type FuncNavigator func(params map[string]string, mode Mode)

// Navigate implements Navigator.
func (f FuncNavigator) Navigate(params map[string]string, mode Mode) {
	f(params, mode)
}

// RecordingNavigator captures navigations for tests and tooling.
type RecordingNavigator struct {
	Calls []Navigation
}

// Navigation is one recorded Navigate call.
type Navigation struct {
	Params map[string]string
	Mode   Mode
}

// Navigate implements Navigator.
func (r *RecordingNavigator) Navigate(params map[string]string, mode Mode) {
	cp := make(map[string]string, len(params))
	for k, v := range params {
		cp[k] = v
	}
	r.Calls = append(r.Calls, Navigation{Params: cp, Mode: mode})
}

// Last returns the most recent navigation, or nil when none happened.
func (r *RecordingNavigator) Last() *Navigation {
	if len(r.Calls) == 0 {
		return nil
	}
	return &r.Calls[len(r.Calls)-1]
}
