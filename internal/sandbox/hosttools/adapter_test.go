package hosttools

import (
	"context"
	"testing"

	"sandboxkernel/internal/tools"
)

func echoTool() *tools.Tool {
	return &tools.Tool{
		Name:     "echo_host_tool",
		Category: tools.CategoryGeneral,
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return args["message"].(string), nil
		},
	}
}

func TestAdapt_RoutesKwargsToExecute(t *testing.T) {
	fn := Adapt(echoTool())
	result, err := fn(context.Background(), nil, map[string]any{"message": "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "hi" {
		t.Errorf("expected 'hi', got %v", result)
	}
}

func TestAdapt_RejectsPositionalArgs(t *testing.T) {
	fn := Adapt(echoTool())
	_, err := fn(context.Background(), []any{"hi"}, nil)
	if err == nil {
		t.Fatal("expected an error for positional arguments")
	}
}

func TestFromRegistry_RejectsDangerousNames(t *testing.T) {
	// tools.Registry.Register already enforces this guard, so a dangerous
	// name can never land in a registry FromRegistry is handed — this
	// confirms the first of the two guards holds, making FromRegistry's own
	// check (below) defense-in-depth rather than reachable in practice.
	reg := tools.NewRegistry()
	err := reg.Register(&tools.Tool{
		Name:     "eval",
		Category: tools.CategoryGeneral,
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return "", nil
		},
	})
	if err == nil {
		t.Fatal("expected the registry to reject a dangerous tool name")
	}
}

func TestFromRegistry_WrapsEveryRegisteredTool(t *testing.T) {
	reg := tools.NewRegistry()
	reg.MustRegister(echoTool())
	wrapped, err := FromRegistry(reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := wrapped["echo_host_tool"]; !ok {
		t.Fatal("expected echo_host_tool to be wrapped")
	}
}
