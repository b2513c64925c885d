package sandbox

import (
	"time"

	"github.com/google/uuid"
)

// TrackedCall records one tool invocation within a single execution.
// Accumulated per execution in program order; cleared at the start of the
// next. RequestID correlates this call across host/worker log files.
type TrackedCall struct {
	RequestID uuid.UUID
	ToolName  string
	Args      []any
	Kwargs    map[string]any
	Result    any
	Error     string
	Duration  time.Duration
}

// Succeeded reports whether the call completed without error.
func (c TrackedCall) Succeeded() bool {
	return c.Error == ""
}
