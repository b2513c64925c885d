package fiber

import (
	"context"
	"sync"

	"sandboxkernel/internal/sandbox"
)

// YieldKind discriminates the states a fiber can hand back to its
// orchestrator on resume.
type YieldKind string

const (
	YieldBatch  YieldKind = "batch"
	YieldDone   YieldKind = "done"
	YieldFailed YieldKind = "failed"
)

// State is what Resume returns: either a batch awaiting execution, or the
// fiber's terminal outcome.
type State struct {
	Kind   YieldKind
	Batch  FutureBatch
	Result any
	Err    error
}

// Fiber runs guest evaluation cooperatively on its own goroutine, the
// Go stand-in for a true coroutine: it never runs concurrently with its
// orchestrator, handing control back and forth over two unbuffered
// channels, one full resume-slice at a time.
type Fiber struct {
	mu      sync.Mutex
	inFiber bool
	pending FutureBatch

	toHost  chan State
	toFiber chan struct{}
}

// New starts a fiber running run on its own goroutine. The goroutine blocks
// immediately until the first Resume call.
func New(run func(fb *Fiber) (any, error)) *Fiber {
	fb := &Fiber{
		toHost:  make(chan State),
		toFiber: make(chan struct{}),
	}
	go fb.body(run)
	return fb
}

func (fb *Fiber) body(run func(fb *Fiber) (any, error)) {
	<-fb.toFiber
	fb.setInFiber(true)
	result, err := run(fb)
	fb.setInFiber(false)
	fb.flushPending()
	if err != nil {
		fb.toHost <- State{Kind: YieldFailed, Err: err}
		return
	}
	fb.toHost <- State{Kind: YieldDone, Result: result}
}

// Resume hands control to the fiber and blocks until it yields a batch or
// reaches a terminal state.
func (fb *Fiber) Resume() State {
	fb.toFiber <- struct{}{}
	return <-fb.toHost
}

func (fb *Fiber) setInFiber(v bool) {
	fb.mu.Lock()
	fb.inFiber = v
	fb.mu.Unlock()
}

// InFiber reports whether the calling code is running inside this fiber's
// goroutine slice.
func (fb *Fiber) InFiber() bool {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.inFiber
}

// CallTool is the tool proxy: inside a fiber it defers the call into a
// Future appended to the pending batch; outside a fiber it runs the call
// synchronously on the current goroutine.
func (fb *Fiber) CallTool(ctx context.Context, name string, args []any, kwargs map[string]any, tool sandbox.ToolFunc) *Future {
	f := &Future{ToolName: name, Args: args, Kwargs: kwargs, fiber: fb}
	f.thunk = func() (any, error) { return tool(ctx, args, kwargs) }

	if !fb.InFiber() {
		f.result, f.err = f.thunk()
		f.resolved = true
		return f
	}

	fb.mu.Lock()
	fb.pending = append(fb.pending, f)
	fb.mu.Unlock()
	return f
}

// ensureResolved yields the current pending batch (if target isn't already
// resolved) and blocks until the orchestrator resumes the fiber having
// executed it.
func (fb *Fiber) ensureResolved(target *Future) {
	if target.resolved {
		return
	}
	batch := fb.takePending()
	fb.toHost <- State{Kind: YieldBatch, Batch: batch}
	<-fb.toFiber
}

func (fb *Fiber) takePending() FutureBatch {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	batch := fb.pending
	fb.pending = nil
	return batch
}

func (fb *Fiber) flushPending() {
	batch := fb.takePending()
	if len(batch) == 0 {
		return
	}
	fb.toHost <- State{Kind: YieldBatch, Batch: batch}
	<-fb.toFiber
}
