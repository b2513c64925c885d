package inprocess

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"reflect"
	"sync"

	"github.com/google/uuid"

	"sandboxkernel/internal/sandbox"
)

// finalAnswer is the control-flow sentinel the surface panics with when
// guest code invokes FinalAnswer. It is recovered at the evaluation
// boundary and translated into a success outcome with IsFinalAnswer set.
type finalAnswer struct {
	value any
}

// nameError is raised by Resolve when name is neither a tool, a variable,
// nor a granted identity-hiding primitive.
type nameError struct {
	name string
}

func (e *nameError) Error() string {
	return fmt.Sprintf("undefined name: %s", e.name)
}

// Surface is the sandbox evaluation context injected into yaegi as the
// synthetic "sandboxkernel/sandbox" package. It has a closed method table:
// Puts/Print/Inspect/Random/Raise/FinalAnswer/IsNil/ClassName are explicitly granted;
// everything else a guest wants to invoke dynamically goes through Resolve,
// the single fallback dispatcher.
type Surface struct {
	mu        sync.Mutex
	output    bytes.Buffer
	maxOutput int

	tools     map[string]sandbox.ToolFunc
	variables map[string]any

	ctx   context.Context
	calls []sandbox.TrackedCall
}

// NewSurface builds a fresh per-execution sandbox surface over the given
// tool and variable snapshots.
func NewSurface(ctx context.Context, tools map[string]sandbox.ToolFunc, variables map[string]any, maxOutput int) *Surface {
	return &Surface{
		ctx:       ctx,
		tools:     tools,
		variables: variables,
		maxOutput: maxOutput,
	}
}

// Output returns the captured output buffer, truncated to maxOutput bytes.
func (s *Surface) Output() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.output.Bytes()
	if s.maxOutput > 0 && len(b) > s.maxOutput {
		b = b[:s.maxOutput]
	}
	return string(b)
}

// Calls returns the tool-call records accumulated so far, in program order.
func (s *Surface) Calls() []sandbox.TrackedCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sandbox.TrackedCall, len(s.calls))
	copy(out, s.calls)
	return out
}

func (s *Surface) write(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.maxOutput > 0 && s.output.Len() >= s.maxOutput {
		return
	}
	s.output.WriteString(text)
}

// Puts writes the string form of v followed by a newline and returns nothing.
func (s *Surface) Puts(v any) {
	s.write(fmt.Sprintf("%v\n", v))
}

// Print writes the string form of v without a trailing newline.
func (s *Surface) Print(v any) {
	s.write(fmt.Sprintf("%v", v))
}

// Inspect writes v's inspected (Go-syntax) form to the buffer and returns v
// unchanged, mirroring an inspect-print granted method.
func (s *Surface) Inspect(v any) any {
	s.write(fmt.Sprintf("%#v\n", v))
	return v
}

// Random returns a bounded pseudo-random integer in [0, n).
func (s *Surface) Random(n int) int {
	if n <= 0 {
		return 0
	}
	return rand.Intn(n) //nolint:gosec // bounded randomness primitive, not security-sensitive
}

// Raise is the controlled raise primitive: it panics with a plain runtime
// error so it surfaces through the same recovery path as any other guest
// failure, without exposing the host's own error types.
func (s *Surface) Raise(msg string) {
	panic(fmt.Errorf("%s", msg))
}

// FinalAnswer is the guest's single syntactic mechanism to terminate the
// evaluation with the final-answer return channel.
func (s *Surface) FinalAnswer(v any) {
	panic(finalAnswer{value: v})
}

// IsNil is the identity-hiding answer to a nil-predicate probe: it reports
// genuine Go nilness without ever indicating the surface itself is nil-like.
func (s *Surface) IsNil(v any) bool {
	return v == nil
}

// ClassName is the identity-hiding answer to a class-introspection probe:
// it always reports the host's generic object root rather than the
// surface's real type, preventing reflection-based sandbox detection.
func (s *Surface) ClassName(any) string {
	return "Object"
}

// Resolve is the sandbox's single fallback dispatcher, consulted for any
// name that isn't one of the granted methods above. Precedence: registered
// tool, then registered variable, then a fixed identity-hiding answer,
// otherwise a name-resolution error.
func (s *Surface) Resolve(name string, args []any, kwargs map[string]any) (any, error) {
	if tool, ok := s.tools[name]; ok {
		start := callStart()
		result, err := tool(s.ctx, args, kwargs)
		rec := sandbox.TrackedCall{
			RequestID: uuid.New(),
			ToolName:  name,
			Args:      args,
			Kwargs:    kwargs,
			Duration:  callDuration(start),
		}
		if err != nil {
			rec.Error = err.Error()
		} else {
			rec.Result = result
		}
		s.mu.Lock()
		s.calls = append(s.calls, rec)
		s.mu.Unlock()
		return result, err
	}
	if v, ok := s.variables[name]; ok {
		return v, nil
	}
	switch name {
	case "nil?":
		return false, nil
	case "class":
		return "Object", nil
	}
	return nil, &nameError{name: name}
}

// surfaceBindings exposes one surface's granted method table and fallback
// dispatcher as the synthetic sandbox package's symbol table, for
// registration with the in-process interpreter via interp.Exports.
func surfaceBindings(s *Surface) map[string]reflect.Value {
	return map[string]reflect.Value{
		"Puts":        reflect.ValueOf(s.Puts),
		"Print":       reflect.ValueOf(s.Print),
		"Inspect":     reflect.ValueOf(s.Inspect),
		"Random":      reflect.ValueOf(s.Random),
		"Raise":       reflect.ValueOf(s.Raise),
		"FinalAnswer": reflect.ValueOf(s.FinalAnswer),
		"IsNil":       reflect.ValueOf(s.IsNil),
		"ClassName":   reflect.ValueOf(s.ClassName),
		"Resolve":     reflect.ValueOf(s.Resolve),
	}
}
