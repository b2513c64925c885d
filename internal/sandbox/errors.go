package sandbox

import "errors"

// Error kinds from the engine's error taxonomy. Only ErrInvalidArgument (and
// errors wrapping it) is ever returned as a Go error, and only from tool
// registration (engine.SendTools, tools.Registry.Register,
// hosttools.FromRegistry). Execute returns no Go error: an empty-code or
// unsupported-language call, like every other kind, is captured into the
// returned ExecutionResult.Error string.
var (
	// ErrInvalidArgument covers empty code, unsupported language, and a
	// dangerous tool name on registration.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrValidationFailure means the static validator rejected the code.
	ErrValidationFailure = errors.New("validation failure")

	// ErrInterpreter means the operation limit was exceeded or the guest
	// runtime violated the sandbox surface.
	ErrInterpreter = errors.New("interpreter error")

	// ErrExecutionTimeout means the container wall clock was exceeded.
	ErrExecutionTimeout = errors.New("execution timeout")

	// ErrCrossBoundary means the worker could not be spawned, the message
	// protocol broke, or the iteration budget was exhausted.
	ErrCrossBoundary = errors.New("cross-boundary error")

	// ErrUnknown covers any other host-side failure around the guest.
	ErrUnknown = errors.New("unknown execution error")

	// ErrFinalAnswer is never surfaced as an error; it documents the
	// final-answer control channel in the taxonomy table for completeness.
	ErrFinalAnswer = errors.New("final answer")
)
