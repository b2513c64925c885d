package fiber

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"sandboxkernel/internal/sandbox"
)

// FutureBatch is an ordered group of unresolved futures yielded together.
type FutureBatch []*Future

// ToolNames returns the batch's tool names in insertion order.
func (b FutureBatch) ToolNames() []string {
	names := make([]string, len(b))
	for i, f := range b {
		names[i] = f.ToolName
	}
	return names
}

// IsRetrievalYield reports whether any tool name in the batch contains one
// of the configured retrieval substrings (case-insensitive).
func (b FutureBatch) IsRetrievalYield(retrievalSubstrings []string) bool {
	for _, f := range b {
		lower := strings.ToLower(f.ToolName)
		for _, s := range retrievalSubstrings {
			if strings.Contains(lower, strings.ToLower(s)) {
				return true
			}
		}
	}
	return false
}

// IsFinalAnswerYield reports whether any tool name in the batch equals the
// configured final-answer tool name.
func (b FutureBatch) IsFinalAnswerYield(finalAnswerTool string) bool {
	for _, f := range b {
		if f.ToolName == finalAnswerTool {
			return true
		}
	}
	return false
}

// IsSubagentYield reports whether any tool name in the batch begins with
// the configured subagent prefix.
func (b FutureBatch) IsSubagentYield(subagentPrefix string) bool {
	for _, f := range b {
		if strings.HasPrefix(f.ToolName, subagentPrefix) {
			return true
		}
	}
	return false
}

// ExecuteBatch runs every future's thunk, in parallel when the batch has
// more than one member, and returns tracked-call records in insertion
// order. Execution order is unspecified; recorded order is not.
func ExecuteBatch(batch FutureBatch) []sandbox.TrackedCall {
	var g errgroup.Group
	for _, f := range batch {
		f := f
		if f.resolved {
			continue
		}
		g.Go(func() error {
			f.result, f.err = f.thunk()
			f.resolved = true
			return nil
		})
	}
	_ = g.Wait()

	calls := make([]sandbox.TrackedCall, len(batch))
	for i, f := range batch {
		call := sandbox.TrackedCall{RequestID: uuid.New(), ToolName: f.ToolName, Args: f.Args, Kwargs: f.Kwargs, Result: f.result}
		if f.err != nil {
			call.Error = f.err.Error()
		}
		calls[i] = call
	}
	return calls
}
