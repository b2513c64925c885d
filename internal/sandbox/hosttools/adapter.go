// Package hosttools adapts the existing host tool registry (internal/tools)
// onto the sandbox's ToolFunc surface, so guest code can call the same
// shell/file/codedom tools the rest of the system already exposes.
package hosttools

import (
	"context"
	"fmt"

	"sandboxkernel/internal/logging"
	"sandboxkernel/internal/sandbox"
	"sandboxkernel/internal/tools"
)

// Adapt wraps one registered host tool as a sandbox.ToolFunc. Positional
// args are not part of the host tool calling convention; kwargs become the
// tool's argument map directly, with any positional args rejected rather
// than silently dropped.
func Adapt(tool *tools.Tool) sandbox.ToolFunc {
	return func(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
		if len(args) > 0 {
			return nil, fmt.Errorf("%s: host tools accept keyword arguments only", tool.Name)
		}
		return tool.Execute(ctx, kwargs)
	}
}

// FromRegistry builds the sandbox's tool_name -> ToolFunc table from every
// tool registered in reg, rejecting any entry whose name is on the
// sandbox's dangerous-name denylist. This is the second of the two guards
// the spec calls for: Registry.Register already enforces naming rules for
// the host surface; this is the sandbox-side guard applied again at the
// sandbox boundary.
func FromRegistry(reg *tools.Registry) (map[string]sandbox.ToolFunc, error) {
	out := make(map[string]sandbox.ToolFunc)
	for _, name := range reg.Names() {
		if sandbox.IsDangerousToolName(name) {
			logging.Audit().SafetyCheck("expose_tool_to_guest", false, fmt.Sprintf("dangerous name: %s", name))
			return nil, fmt.Errorf("%w: refusing to expose dangerous tool name %q to guest code", sandbox.ErrInvalidArgument, name)
		}
		t := reg.Get(name)
		if t == nil {
			continue
		}
		out[name] = Adapt(t)
	}
	return out, nil
}
