package fiber

import "sandboxkernel/internal/sandbox"

// Run drives a fiber to completion with the default orchestration policy:
// every yielded batch is executed in full and the fiber is resumed
// immediately, with no early halting. Callers wanting retrieval/final-answer
// policies (e.g. "never feed a retrieval result straight into final-answer
// in the same step") should drive the fiber themselves using Resume and the
// classification hooks on FutureBatch instead of this helper.
func Run(fb *Fiber) (sandbox.ExecutionResult, []sandbox.TrackedCall) {
	var calls []sandbox.TrackedCall

	state := fb.Resume()
	for state.Kind == YieldBatch {
		calls = append(calls, ExecuteBatch(state.Batch)...)
		state = fb.Resume()
	}

	switch state.Kind {
	case YieldDone:
		result, _ := normalizeResult(state.Result)
		return result, calls
	case YieldFailed:
		return sandbox.ExecutionResult{Error: state.Err.Error()}, calls
	default:
		return sandbox.ExecutionResult{Error: "Unknown: fiber ended in an unrecognized state"}, calls
	}
}

// normalizeResult lets guest code hand back either a plain value or an
// already-built sandbox.ExecutionResult (e.g. when final-answer control
// flow produced one upstream) without the orchestrator needing to know
// which.
func normalizeResult(v any) (sandbox.ExecutionResult, bool) {
	if r, ok := v.(sandbox.ExecutionResult); ok {
		return r, true
	}
	return sandbox.ExecutionResult{Output: v}, false
}
