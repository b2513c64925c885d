package worker

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"sandboxkernel/internal/sandbox"
	"sandboxkernel/internal/sandbox/serialize"
)

// DefaultMaxMessageIterations bounds a single execution's host loop so a
// pathological tool-loop cannot run forever, used when an Executor is built
// with MaxMessageIterations left at zero.
const DefaultMaxMessageIterations = 10_000

// Executor is the isolated-worker guest strategy. Supports reports true
// only for the host language: the worker actor evaluates Go source through
// the same yaegi interpreter the in-process strategy uses, just on its own
// goroutine with no shared mutable state.
type Executor struct {
	MaxOperations        int
	MaxOutputBytes       int
	MaxMessageIterations int
}

func NewExecutor(maxOperations, maxOutputBytes int) *Executor {
	return &Executor{MaxOperations: maxOperations, MaxOutputBytes: maxOutputBytes, MaxMessageIterations: DefaultMaxMessageIterations}
}

func (e *Executor) Supports(lang sandbox.Language) bool {
	return lang == sandbox.HostLanguage
}

// Execute ships code and the prepared variable snapshot to a fresh worker
// actor and runs the host loop, routing tool_call messages to tools and
// bounding the total number of messages processed.
func (e *Executor) Execute(ctx context.Context, code string, tools map[string]sandbox.ToolFunc, variables map[string]any) (sandbox.ExecutionResult, []sandbox.TrackedCall) {
	toolNames := make([]string, 0, len(tools))
	for name := range tools {
		toolNames = append(toolNames, name)
	}

	prepared := make(map[string]any, len(variables))
	for k, v := range variables {
		prepared[k] = serialize.Prepare(v)
	}

	actor := NewActor(code, e.MaxOperations, toolNames, prepared)
	toHost := actor.Run()

	maxIterations := e.MaxMessageIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxMessageIterations
	}

	var calls []sandbox.TrackedCall
	for i := 0; i < maxIterations; i++ {
		msg, ok := <-toHost
		if !ok {
			return sandbox.ExecutionResult{Error: "Unknown: worker channel closed unexpectedly"}, calls
		}
		switch msg.Kind {
		case KindResult:
			return sandbox.ExecutionResult{
				Output:        msg.Output,
				Logs:          truncate(msg.Logs, e.MaxOutputBytes),
				Error:         msg.Error,
				IsFinalAnswer: msg.IsFinalAnswer,
			}, calls
		case KindToolCall:
			call := sandbox.TrackedCall{RequestID: uuid.New(), ToolName: msg.Name, Args: msg.Args, Kwargs: msg.Kwargs}
			tool, ok := tools[msg.Name]
			if !ok {
				call.Error = fmt.Sprintf("Unknown tool: %s", msg.Name)
				calls = append(calls, call)
				msg.ReplyTo <- ToWorker{Err: call.Error}
				continue
			}
			result, err := tool(ctx, msg.Args, msg.Kwargs)
			if err != nil {
				call.Error = err.Error()
				calls = append(calls, call)
				msg.ReplyTo <- ToWorker{Err: fmt.Sprintf("%v", err)}
				continue
			}
			call.Result = result
			calls = append(calls, call)
			msg.ReplyTo <- ToWorker{HasResult: true, Result: serialize.Prepare(result)}
		}
	}

	return sandbox.ExecutionResult{Error: "Message processing limit exceeded"}, calls
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max]
}
