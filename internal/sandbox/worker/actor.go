package worker

import (
	"fmt"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"sandboxkernel/internal/sandbox"
	"sandboxkernel/internal/sandbox/limiter"
	"sandboxkernel/internal/sandbox/validate"
)

const sandboxImportPath = "sandboxkernel/sandbox"

// Actor is the worker-side state for one execution. It is constructed with
// exactly the ship-across-boundary payload and carries no reference to
// anything on the host side except the two channels used to pass messages.
type Actor struct {
	code          string
	maxOperations int
	toolNames     []string
	preparedVars  map[string]any
}

// NewActor builds a worker actor from the ship-across-boundary payload. The
// caller must have already run each variable through serialize.Prepare.
func NewActor(code string, maxOperations int, toolNames []string, preparedVariables map[string]any) *Actor {
	return &Actor{
		code:          code,
		maxOperations: maxOperations,
		toolNames:     toolNames,
		preparedVars:  preparedVariables,
	}
}

// Run executes the worker body and returns the host-facing channel it sends
// its messages on. The final message sent is always a KindResult message;
// the caller (the host loop) must keep receiving until it sees one.
func (a *Actor) Run() <-chan ToHost {
	toHost := make(chan ToHost)
	go a.body(toHost)
	return toHost
}

func (a *Actor) body(toHost chan ToHost) {
	surface := newRemoteSurface(toHost, a.preparedVars, a.toolNames, 0)
	counter := limiter.NewCounter(a.maxOperations)

	vres := validate.Validate(a.code, string(sandbox.HostLanguage))
	if !vres.Valid() {
		toHost <- ToHost{Kind: KindResult, Error: strings.Join(vres.Errors, "; "), Logs: surface.Output()}
		return
	}

	wrapped := a.code
	if !strings.Contains(wrapped, "package main") {
		wrapped = fmt.Sprintf("package main\n\n%s\n", wrapped)
	}
	instrumented, err := limiter.Instrument(wrapped, limiter.ModeLine)
	if err != nil {
		toHost <- ToHost{Kind: KindResult, Error: fmt.Sprintf("InterpreterError: %v", err), Logs: surface.Output()}
		return
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		toHost <- ToHost{Kind: KindResult, Error: fmt.Sprintf("InterpreterError: failed to load stdlib: %v", err), Logs: surface.Output()}
		return
	}
	if err := i.Use(interp.Exports{
		limiter.TickImportPath: counter.Bindings(),
		sandboxImportPath:      surfaceBindings(surface),
	}); err != nil {
		toHost <- ToHost{Kind: KindResult, Error: fmt.Sprintf("InterpreterError: failed to bind sandbox surface: %v", err), Logs: surface.Output()}
		return
	}

	counter.Enable()
	defer counter.Disable()

	msg := a.evaluate(i, instrumented, surface)
	toHost <- msg
}

func (a *Actor) evaluate(i *interp.Interpreter, instrumented string, surface *remoteSurface) (msg ToHost) {
	defer func() {
		if r := recover(); r != nil {
			msg = translatePanic(r, surface)
		}
	}()

	if _, err := i.Eval(instrumented); err != nil {
		return ToHost{Kind: KindResult, Error: fmt.Sprintf("Unknown: %v", err), Logs: surface.Output()}
	}
	v, err := i.Eval("main.Run()")
	if err != nil {
		return ToHost{Kind: KindResult, Error: fmt.Sprintf("Unknown: %v", err), Logs: surface.Output()}
	}
	return ToHost{Kind: KindResult, Output: v.Interface(), Logs: surface.Output()}
}

func translatePanic(r any, surface *remoteSurface) ToHost {
	logs := surface.Output()
	switch v := r.(type) {
	case finalAnswer:
		return ToHost{Kind: KindResult, Output: v.value, Logs: logs, IsFinalAnswer: true}
	case error:
		if strings.Contains(v.Error(), "operation limit exceeded") {
			return ToHost{Kind: KindResult, Error: fmt.Sprintf("InterpreterError: Operation limit exceeded: %d", counterBound(v)), Logs: logs}
		}
		return ToHost{Kind: KindResult, Error: fmt.Sprintf("InterpreterError: %v", v), Logs: logs}
	default:
		return ToHost{Kind: KindResult, Error: fmt.Sprintf("Unknown: %v", v), Logs: logs}
	}
}

// counterBound extracts the configured bound from a limiter.ErrLimitExceeded
// wrap for surfacing in the exact "Operation limit exceeded: N" form, mirroring
// inprocess.counterBound for the worker-side panic path.
func counterBound(err error) int {
	var n int
	if _, scanErr := fmt.Sscanf(err.Error(), "operation limit exceeded: %d", &n); scanErr != nil {
		return 0
	}
	return n
}
