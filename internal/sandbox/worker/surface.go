package worker

import (
	"bytes"
	"fmt"
	"math/rand"
	"reflect"
	"sync"
)

// finalAnswer is the control-flow sentinel the remote surface panics with
// when guest code invokes FinalAnswer, mirroring the in-process surface.
type finalAnswer struct {
	value any
}

type nameError struct {
	name string
}

func (e *nameError) Error() string {
	return fmt.Sprintf("undefined name: %s", e.name)
}

// remoteSurface is the sandbox evaluation context for a worker actor. Unlike
// the in-process surface, it never looks up a tool locally: every
// tool-shaped name resolution is shipped to the host as a message and the
// actor blocks until the host replies. This is the only channel through
// which the worker touches anything outside its own goroutine.
type remoteSurface struct {
	mu        sync.Mutex
	output    bytes.Buffer
	maxOutput int

	variables map[string]any
	toolNames map[string]bool

	toHost chan ToHost
}

func newRemoteSurface(toHost chan ToHost, variables map[string]any, toolNames []string, maxOutput int) *remoteSurface {
	names := make(map[string]bool, len(toolNames))
	for _, n := range toolNames {
		names[n] = true
	}
	return &remoteSurface{
		toHost:    toHost,
		variables: variables,
		toolNames: names,
		maxOutput: maxOutput,
	}
}

func (s *remoteSurface) Output() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.output.Bytes()
	if s.maxOutput > 0 && len(b) > s.maxOutput {
		b = b[:s.maxOutput]
	}
	return string(b)
}

func (s *remoteSurface) write(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.maxOutput > 0 && s.output.Len() >= s.maxOutput {
		return
	}
	s.output.WriteString(text)
}

func (s *remoteSurface) Puts(v any) {
	s.write(fmt.Sprintf("%v\n", v))
}

func (s *remoteSurface) Print(v any) {
	s.write(fmt.Sprintf("%v", v))
}

func (s *remoteSurface) Inspect(v any) any {
	s.write(fmt.Sprintf("%#v\n", v))
	return v
}

func (s *remoteSurface) Random(n int) int {
	if n <= 0 {
		return 0
	}
	return rand.Intn(n) //nolint:gosec // bounded randomness primitive, not security-sensitive
}

func (s *remoteSurface) Raise(msg string) {
	panic(fmt.Errorf("%s", msg))
}

func (s *remoteSurface) FinalAnswer(v any) {
	panic(finalAnswer{value: v})
}

func (s *remoteSurface) IsNil(v any) bool {
	return v == nil
}

func (s *remoteSurface) ClassName(any) string {
	return "Object"
}

// Resolve ships a tool_call envelope to the host and blocks on the reply.
// Variables never cross the boundary as live references; they were copied
// into this surface's variables map at actor construction, already passed
// through the cross-boundary serializer.
func (s *remoteSurface) Resolve(name string, args []any, kwargs map[string]any) (any, error) {
	if s.toolNames[name] {
		reply := make(chan ToWorker, 1)
		s.toHost <- ToHost{Kind: KindToolCall, Name: name, Args: args, Kwargs: kwargs, ReplyTo: reply}
		resp := <-reply
		switch {
		case resp.HasFinal:
			panic(finalAnswer{value: resp.FinalAnswer})
		case resp.Err != "":
			panic(fmt.Errorf("%s", resp.Err))
		default:
			return resp.Result, nil
		}
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

func surfaceBindings(s *remoteSurface) map[string]reflect.Value {
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
