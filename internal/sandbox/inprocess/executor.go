// Package inprocess implements the in-process guest strategy: the host
// language (Go) runs inside the host process itself, evaluated by the
// yaegi interpreter under a minimal-surface sandbox with AST-level
// pre-validation and an operation-count limiter.
package inprocess

import (
	"context"
	"fmt"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"sandboxkernel/internal/logging"
	"sandboxkernel/internal/sandbox"
	"sandboxkernel/internal/sandbox/limiter"
	"sandboxkernel/internal/sandbox/validate"
)

// sandboxImportPath is the synthetic import path guest source uses to
// reach the granted-method table and the single fallback dispatcher.
const sandboxImportPath = "sandboxkernel/sandbox"

// Executor is the in-process guest strategy. It reports Supports true only
// for the host language.
type Executor struct {
	MaxOperations  int
	TraceMode      limiter.Mode
	MaxOutputBytes int
}

// NewExecutor builds an in-process executor with the given resource bounds.
func NewExecutor(maxOperations int, traceMode limiter.Mode, maxOutputBytes int) *Executor {
	return &Executor{
		MaxOperations:  maxOperations,
		TraceMode:      traceMode,
		MaxOutputBytes: maxOutputBytes,
	}
}

// Supports reports whether this executor can run lang.
func (e *Executor) Supports(lang sandbox.Language) bool {
	return lang == sandbox.HostLanguage
}

// Execute runs code through the validator, the operation limiter, and a
// fresh sandbox surface, returning the execution result and the tool-call
// records accumulated during this one invocation.
func (e *Executor) Execute(ctx context.Context, code string, tools map[string]sandbox.ToolFunc, variables map[string]any) (sandbox.ExecutionResult, []sandbox.TrackedCall) {
	if strings.TrimSpace(code) == "" {
		return sandbox.ExecutionResult{Error: "code must not be empty"}, nil
	}

	vres := validate.Validate(code, string(sandbox.HostLanguage))
	if !vres.Valid() {
		logging.Get(logging.CategorySandbox).Debug("in-process validation failed: %s", strings.Join(vres.Errors, "; "))
		return sandbox.ExecutionResult{Error: strings.Join(vres.Errors, "; ")}, nil
	}

	wrapped := wrapCode(code)
	instrumented, err := limiter.Instrument(wrapped, e.TraceMode)
	if err != nil {
		return sandbox.ExecutionResult{Error: fmt.Sprintf("InterpreterError: %v", err)}, nil
	}

	counter := limiter.NewCounter(e.MaxOperations)
	surface := NewSurface(ctx, tools, variables, e.MaxOutputBytes)

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return sandbox.ExecutionResult{Error: fmt.Sprintf("InterpreterError: failed to load stdlib: %v", err)}, nil
	}
	if err := i.Use(interp.Exports{
		limiter.TickImportPath: counter.Bindings(),
		sandboxImportPath:      surfaceBindings(surface),
	}); err != nil {
		return sandbox.ExecutionResult{Error: fmt.Sprintf("InterpreterError: failed to bind sandbox surface: %v", err)}, nil
	}

	result := e.run(i, instrumented, counter, surface)
	return result, surface.Calls()
}

func (e *Executor) run(i *interp.Interpreter, instrumented string, counter *limiter.Counter, surface *Surface) (result sandbox.ExecutionResult) {
	counter.Enable()
	defer counter.Disable()

	defer func() {
		if r := recover(); r != nil {
			result = e.translatePanic(r, surface)
		}
	}()

	if _, err := i.Eval(instrumented); err != nil {
		return sandbox.ExecutionResult{Error: fmt.Sprintf("Unknown: %v", err), Logs: surface.Output()}
	}

	v, err := i.Eval("main.Run()")
	if err != nil {
		return sandbox.ExecutionResult{Error: fmt.Sprintf("Unknown: %v", err), Logs: surface.Output()}
	}

	return sandbox.ExecutionResult{Output: v.Interface(), Logs: surface.Output()}
}

func (e *Executor) translatePanic(r any, surface *Surface) sandbox.ExecutionResult {
	logs := surface.Output()
	switch v := r.(type) {
	case finalAnswer:
		return sandbox.ExecutionResult{Output: v.value, Logs: logs, IsFinalAnswer: true}
	case error:
		if strings.Contains(v.Error(), "operation limit exceeded") {
			return sandbox.ExecutionResult{
				Error: fmt.Sprintf("InterpreterError: Operation limit exceeded: %d", counterBound(v)),
				Logs:  logs,
			}
		}
		return sandbox.ExecutionResult{Error: fmt.Sprintf("InterpreterError: %v", v), Logs: logs}
	default:
		return sandbox.ExecutionResult{Error: fmt.Sprintf("Unknown: %v", v), Logs: logs}
	}
}

// counterBound extracts the configured bound from a limiter.ErrLimitExceeded
// wrap for surfacing in the exact "Operation limit exceeded: N" form.
func counterBound(err error) int {
	var n int
	_, scanErr := fmt.Sscanf(err.Error(), "operation limit exceeded: %d", &n)
	if scanErr != nil {
		return 0
	}
	return n
}

// wrapCode wraps bare guest source in a package main clause when the guest
// didn't already supply one, mirroring the host's own convention for
// submitting a complete, self-contained program.
func wrapCode(code string) string {
	if strings.Contains(code, "package main") {
		return code
	}
	return fmt.Sprintf("package main\n\n%s\n", code)
}
