// Package fiber implements the lazy tool-future/batch layer that sits above
// the in-process executor. A tool call made from inside a fiber returns a
// Future instead of a raw result; the future is appended to the fiber's
// pending batch and only runs when something actually observes its value.
package fiber

// Future is a deferred tool invocation. It carries enough to describe the
// call (for classification and tracking) plus the closure that performs it.
type Future struct {
	ToolName string
	Args     []any
	Kwargs   map[string]any

	thunk func() (any, error)
	fiber *Fiber

	resolved bool
	result   any
	err      error
}

// Value is the future's single observation point. Guest code that accessed
// a future (used the value, compared it, printed it) calls Value to force
// resolution — the Go translation of the spec's implicit "any observation"
// trigger, since Go has no operator-overloading hook to intercept that
// implicitly.
func (f *Future) Value() (any, error) {
	if !f.resolved {
		f.fiber.ensureResolved(f)
	}
	return f.result, f.err
}

// Resolved reports whether the future has already run, without forcing it.
func (f *Future) Resolved() bool {
	return f.resolved
}
