// Package worker implements the isolated-worker guest strategy: one
// goroutine actor per execution, communicating with the host exclusively
// by message passing, with no shared mutable state.
package worker

// MessageKind discriminates worker->host and host->worker envelopes.
type MessageKind string

const (
	KindToolCall MessageKind = "tool_call"
	KindResult   MessageKind = "result"
)

// ToHost is a message the worker actor sends to the host loop.
type ToHost struct {
	Kind MessageKind

	// Populated when Kind == KindToolCall.
	Name    string
	Args    []any
	Kwargs  map[string]any
	ReplyTo chan ToWorker

	// Populated when Kind == KindResult.
	Output        any
	Logs          string
	Error         string
	IsFinalAnswer bool
}

// ToWorker is a message the host loop sends back in reply to a tool_call.
// Exactly one of Result/FinalAnswer/Err is set.
type ToWorker struct {
	HasResult   bool
	Result      any
	HasFinal    bool
	FinalAnswer any
	Err         string
}
