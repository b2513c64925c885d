package sandbox

import "context"

// ToolFunc is a host-provided callable exposed by name to guest code. Args
// are positional; kwargs are keyed. The result is opaque to the sandbox —
// it is passed through the cross-boundary serializer only when the
// isolated-worker strategy ships it back to the host.
type ToolFunc func(ctx context.Context, args []any, kwargs map[string]any) (any, error)

// ToolEntry is a registered tool. Name collisions with the dangerous-name
// set are rejected at registration (see IsDangerousToolName).
type ToolEntry struct {
	Name string
	Call ToolFunc
}

// VariableEntry is a host-provided value exposed read-only by name.
type VariableEntry struct {
	Name  string
	Value any
}
