package fiber

import (
	"context"
	"errors"
	"testing"

	"sandboxkernel/internal/sandbox"
)

func tool(result any, err error) sandbox.ToolFunc {
	return func(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
		return result, err
	}
}

func TestFiber_OutsideFiberRunsSynchronously(t *testing.T) {
	fb := &Fiber{toHost: make(chan State), toFiber: make(chan struct{})}
	future := fb.CallTool(context.Background(), "echo", nil, nil, tool("hi", nil))
	if !future.Resolved() {
		t.Fatal("expected immediate resolution outside a fiber")
	}
	v, err := future.Value()
	if err != nil || v != "hi" {
		t.Errorf("got (%v, %v)", v, err)
	}
}

func TestFiber_BatchesCallsMadeInsideFiber(t *testing.T) {
	var f1, f2 *Future
	fb := New(func(fb *Fiber) (any, error) {
		f1 = fb.CallTool(context.Background(), "a", nil, nil, tool(1, nil))
		f2 = fb.CallTool(context.Background(), "b", nil, nil, tool(2, nil))
		v1, _ := f1.Value()
		v2, _ := f2.Value()
		return v1.(int) + v2.(int), nil
	})

	state := fb.Resume()
	if state.Kind != YieldBatch {
		t.Fatalf("expected a batch yield, got %v", state.Kind)
	}
	if len(state.Batch) != 2 {
		t.Fatalf("expected both calls batched together, got %d", len(state.Batch))
	}
	ExecuteBatch(state.Batch)

	state = fb.Resume()
	if state.Kind != YieldDone {
		t.Fatalf("expected done, got %v: %v", state.Kind, state.Err)
	}
	if state.Result != 3 {
		t.Errorf("expected 3, got %v", state.Result)
	}
}

func TestFiber_FlushesPendingFuturesAtCompletion(t *testing.T) {
	fb := New(func(fb *Fiber) (any, error) {
		fb.CallTool(context.Background(), "fire_and_forget", nil, nil, tool("x", nil))
		return "done", nil
	})

	state := fb.Resume()
	if state.Kind != YieldBatch {
		t.Fatalf("expected a final flush batch, got %v", state.Kind)
	}
	if len(state.Batch) != 1 {
		t.Fatalf("expected 1 flushed future, got %d", len(state.Batch))
	}
	ExecuteBatch(state.Batch)

	state = fb.Resume()
	if state.Kind != YieldDone || state.Result != "done" {
		t.Fatalf("expected done/\"done\", got %v/%v", state.Kind, state.Result)
	}
}

func TestFiber_PropagatesFailure(t *testing.T) {
	boom := errors.New("boom")
	fb := New(func(fb *Fiber) (any, error) {
		return nil, boom
	})
	state := fb.Resume()
	if state.Kind != YieldFailed {
		t.Fatalf("expected failed, got %v", state.Kind)
	}
}

func TestFutureBatch_ClassificationHooks(t *testing.T) {
	batch := FutureBatch{
		{ToolName: "web_search"},
		{ToolName: "subagent_researcher"},
	}
	if !batch.IsRetrievalYield([]string{"search", "wikipedia"}) {
		t.Error("expected retrieval classification")
	}
	if !batch.IsSubagentYield("subagent_") {
		t.Error("expected subagent classification")
	}
	if batch.IsFinalAnswerYield("final_answer") {
		t.Error("did not expect final-answer classification")
	}
}

func TestRun_DrivesFiberToCompletion(t *testing.T) {
	fb := New(func(fb *Fiber) (any, error) {
		f := fb.CallTool(context.Background(), "double", []any{21}, nil, func(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
			return args[0].(int) * 2, nil
		})
		v, err := f.Value()
		if err != nil {
			return nil, err
		}
		return v, nil
	})

	result, calls := Run(fb)
	if !result.Success() {
		t.Fatalf("expected success, got error: %s", result.Error)
	}
	if result.Output != 42 {
		t.Errorf("expected 42, got %v", result.Output)
	}
	if len(calls) != 1 || calls[0].ToolName != "double" {
		t.Errorf("expected one tracked call to double, got %v", calls)
	}
}
