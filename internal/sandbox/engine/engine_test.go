package engine

import (
	"context"
	"testing"

	"sandboxkernel/internal/config"
	"sandboxkernel/internal/sandbox"
	"sandboxkernel/internal/sandbox/limiter"
)

func newTestEngine() *Engine {
	return New(10_000, 1<<16, limiter.ModeLine, config.ContainerConfig{Images: config.DefaultContainerImages()})
}

func TestEngine_Supports(t *testing.T) {
	e := newTestEngine()
	if !e.Supports(sandbox.LanguageGo) {
		t.Error("expected host language to be supported by default")
	}
	if !e.Supports(sandbox.LanguagePython) {
		t.Error("expected python to be routed to the container strategy by default")
	}
	if e.Supports(sandbox.Language("ruby")) {
		t.Error("expected ruby to be unsupported")
	}
}

func TestEngine_Execute_UnknownLanguage(t *testing.T) {
	e := newTestEngine()
	result := e.Execute(context.Background(), "1+1", sandbox.Language("ruby"), ContainerOptions{})
	if result.Success() {
		t.Fatal("expected failure for unknown language")
	}
}

func TestEngine_Execute_InProcess(t *testing.T) {
	e := newTestEngine()
	code := `package main

func Run() any {
	return 1 + 1
}
`
	result := e.Execute(context.Background(), code, sandbox.LanguageGo, ContainerOptions{})
	if !result.Success() {
		t.Fatalf("expected success, got error: %s", result.Error)
	}
	if result.Output != 2 {
		t.Errorf("expected 2, got %v", result.Output)
	}
}

func TestEngine_SendTools_RejectsDangerousNames(t *testing.T) {
	e := newTestEngine()
	err := e.SendTools(map[string]sandbox.ToolFunc{
		"eval": func(ctx context.Context, args []any, kwargs map[string]any) (any, error) { return nil, nil },
	})
	if err == nil {
		t.Fatal("expected an error for a dangerous tool name")
	}
}

func TestEngine_RouteLanguage_SwitchesStrategy(t *testing.T) {
	e := newTestEngine()
	e.RouteLanguage(sandbox.LanguageGo, StrategyWorker)
	code := `package main

func Run() any {
	return "via worker"
}
`
	result := e.Execute(context.Background(), code, sandbox.LanguageGo, ContainerOptions{})
	if !result.Success() {
		t.Fatalf("expected success, got error: %s", result.Error)
	}
	if result.Output != "via worker" {
		t.Errorf("expected 'via worker', got %v", result.Output)
	}
}

func TestNewFromConfig_WiresTraceModeAndIterationBound(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Execution.MaxMessageIterations = 5
	e := NewFromConfig(cfg)
	if e.workerExec.MaxMessageIterations != 5 {
		t.Errorf("expected MaxMessageIterations=5, got %d", e.workerExec.MaxMessageIterations)
	}
	if !e.Supports(sandbox.LanguageGo) {
		t.Error("expected host language to be supported")
	}
}

func TestEngine_SetCoreLimits_BoundsConcurrentExecutions(t *testing.T) {
	e := newTestEngine()
	e.SetCoreLimits(config.CoreLimits{MaxConcurrentExecutions: 1, MaxTotalMemoryMB: 4096, MaxCPUQuotaMicros: 200000})
	if cap(e.sem) != 1 {
		t.Fatalf("expected a concurrency semaphore of capacity 1, got %d", cap(e.sem))
	}

	code := `package main

func Run() any {
	return "ok"
}
`
	result := e.Execute(context.Background(), code, sandbox.LanguageGo, ContainerOptions{})
	if !result.Success() {
		t.Fatalf("expected success, got error: %s", result.Error)
	}
}

func TestEngine_Execute_Container_RejectsInvalidCodeBeforeDocker(t *testing.T) {
	e := newTestEngine()
	result := e.Execute(context.Background(), "eval(input())", sandbox.LanguagePython, ContainerOptions{})
	if result.Success() {
		t.Fatal("expected the static validator to reject dangerous python before any container runs")
	}
}

func TestEngine_ToolCalls_TracksMostRecentExecution(t *testing.T) {
	e := newTestEngine()
	if err := e.SendTools(map[string]sandbox.ToolFunc{
		"echo": func(ctx context.Context, args []any, kwargs map[string]any) (any, error) { return args[0], nil },
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	code := `package main

import "sandboxkernel/sandbox"

func Run() any {
	v, _ := sandbox.Resolve("echo", []any{"hi"}, nil)
	return v
}
`
	result := e.Execute(context.Background(), code, sandbox.LanguageGo, ContainerOptions{})
	if !result.Success() {
		t.Fatalf("expected success, got error: %s", result.Error)
	}
	calls := e.ToolCalls()
	if len(calls) != 1 || calls[0].ToolName != "echo" {
		t.Errorf("expected one tracked echo call, got %v", calls)
	}
}
