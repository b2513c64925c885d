// Package engine holds the executor façade: the single entry point that
// owns the tool/variable registries and resource bounds, and dispatches
// each execute call to the strategy configured for its language.
package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"sandboxkernel/internal/config"
	"sandboxkernel/internal/logging"
	"sandboxkernel/internal/sandbox"
	"sandboxkernel/internal/sandbox/container"
	"sandboxkernel/internal/sandbox/inprocess"
	"sandboxkernel/internal/sandbox/limiter"
	"sandboxkernel/internal/sandbox/validate"
	"sandboxkernel/internal/sandbox/worker"
)

// StrategyKind names which guest strategy handles a language.
type StrategyKind string

const (
	StrategyInProcess StrategyKind = "in_process"
	StrategyWorker    StrategyKind = "worker"
	StrategyContainer StrategyKind = "container"
)

// strategy is the common shape of the two in-host strategies (in-process,
// worker). The container strategy runs out-of-process guests and is wired
// separately, since it has no tool-call channel and takes per-call resource
// overrides instead.
type strategy interface {
	Supports(lang sandbox.Language) bool
	Execute(ctx context.Context, code string, tools map[string]sandbox.ToolFunc, variables map[string]any) (sandbox.ExecutionResult, []sandbox.TrackedCall)
}

// Engine is the executor façade described in the component design: tool and
// variable registries, resource bounds, and a language -> strategy mapping,
// with strategy instances cached for the façade's lifetime.
type Engine struct {
	mu        sync.RWMutex
	tools     map[string]sandbox.ToolFunc
	variables map[string]any

	maxOperations   int
	maxOutputBytes  int
	traceMode       limiter.Mode
	strategyForLang map[sandbox.Language]StrategyKind

	inprocessExec *inprocess.Executor
	workerExec    *worker.Executor
	containerExec *container.Executor

	lastCalls  []sandbox.TrackedCall
	coreLimits config.CoreLimits
	sem        chan struct{}
}

// New builds an engine bound to the given resource ceilings. By default the
// host language runs in-process and Python, JavaScript and TypeScript run in
// the container strategy; callers may change either routing via
// RouteLanguage, e.g. to send the host language to the worker strategy for
// stronger per-call isolation.
func New(maxOperations, maxOutputBytes int, traceMode limiter.Mode, containerCfg config.ContainerConfig) *Engine {
	e := &Engine{
		tools:           make(map[string]sandbox.ToolFunc),
		variables:       make(map[string]any),
		maxOperations:   maxOperations,
		maxOutputBytes:  maxOutputBytes,
		traceMode:       traceMode,
		strategyForLang: map[sandbox.Language]StrategyKind{sandbox.LanguageGo: StrategyInProcess},
		inprocessExec:   inprocess.NewExecutor(maxOperations, traceMode, maxOutputBytes),
		workerExec:      worker.NewExecutor(maxOperations, maxOutputBytes),
		containerExec:   container.NewExecutor(containerCfg),
	}
	for _, lang := range []sandbox.Language{sandbox.LanguagePython, sandbox.LanguageJavaScript, sandbox.LanguageTypeScript} {
		e.strategyForLang[lang] = StrategyContainer
	}
	return e
}

// NewFromConfig builds an engine from a loaded config.Config, translating
// its string/primitive fields into the typed values each strategy expects
// (trace mode, worker message-loop bound, container environment policy).
// Falls back to config.DefaultConfig()'s trace mode on an invalid string
// rather than failing construction outright.
func NewFromConfig(cfg *config.Config) *Engine {
	mode, err := limiter.ParseMode(cfg.Execution.TraceMode)
	if err != nil {
		mode = limiter.ModeLine
	}

	e := New(cfg.Execution.MaxOperations, cfg.Execution.MaxOutputBytes, mode, cfg.Container)
	e.containerExec = container.NewExecutorWithEnvPolicy(cfg.Container, cfg.Execution.AllowedEnvVars, cfg.Execution.DeniedEnvPatterns)
	if cfg.Execution.MaxMessageIterations > 0 {
		e.workerExec.MaxMessageIterations = cfg.Execution.MaxMessageIterations
	}
	e.SetCoreLimits(cfg.CoreLimits)
	return e
}

// SetCoreLimits applies the system-wide resource ceilings: a semaphore
// bounding concurrent Execute calls, and a clamp on the per-call container
// memory/CPU overrides so no single call can exceed the system-wide cap.
func (e *Engine) SetCoreLimits(limits config.CoreLimits) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.coreLimits = limits
	if limits.MaxConcurrentExecutions > 0 {
		e.sem = make(chan struct{}, limits.MaxConcurrentExecutions)
	} else {
		e.sem = nil
	}
}

// RouteLanguage overrides which strategy handles a language.
func (e *Engine) RouteLanguage(lang sandbox.Language, kind StrategyKind) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.strategyForLang[lang] = kind
}

// Supports reports whether the façade has a strategy routed for lang.
func (e *Engine) Supports(lang sandbox.Language) bool {
	e.mu.RLock()
	kind, ok := e.strategyForLang[lang]
	e.mu.RUnlock()
	if !ok {
		return false
	}
	switch kind {
	case StrategyInProcess:
		return e.inprocessExec.Supports(lang)
	case StrategyWorker:
		return e.workerExec.Supports(lang)
	case StrategyContainer:
		return e.containerExec.Supports(lang)
	default:
		return false
	}
}

// SendTools merges tools into the registry, enforcing the dangerous-name
// guard on every entry.
func (e *Engine) SendTools(tools map[string]sandbox.ToolFunc) error {
	for name := range tools {
		if sandbox.IsDangerousToolName(name) {
			logging.Audit().SafetyCheck("register_tool", false, fmt.Sprintf("dangerous name: %s", name))
			return fmt.Errorf("%w: refusing to register dangerous tool name %q", sandbox.ErrInvalidArgument, name)
		}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for name, fn := range tools {
		e.tools[name] = fn
	}
	return nil
}

// SendVariables merges variables into the registry.
func (e *Engine) SendVariables(variables map[string]any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for name, v := range variables {
		e.variables[name] = v
	}
}

// ToolCalls returns the tool-call records from the most recent Execute call.
func (e *Engine) ToolCalls() []sandbox.TrackedCall {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]sandbox.TrackedCall, len(e.lastCalls))
	copy(out, e.lastCalls)
	return out
}

// ContainerOptions carries the per-call resource overrides the container
// strategy accepts.
type ContainerOptions = container.Options

// Execute selects the strategy routed for language and runs code through
// it. Unknown language or empty code produces an InvalidArgument-flavored
// error result.
func (e *Engine) Execute(ctx context.Context, code string, lang sandbox.Language, containerOpts ContainerOptions) sandbox.ExecutionResult {
	e.mu.RLock()
	kind, ok := e.strategyForLang[lang]
	toolsSnapshot := make(map[string]sandbox.ToolFunc, len(e.tools))
	for k, v := range e.tools {
		toolsSnapshot[k] = v
	}
	varsSnapshot := make(map[string]any, len(e.variables))
	for k, v := range e.variables {
		varsSnapshot[k] = v
	}
	sem := e.sem
	if e.coreLimits.MaxTotalMemoryMB > 0 && containerOpts.MemoryMB > e.coreLimits.MaxTotalMemoryMB {
		containerOpts.MemoryMB = e.coreLimits.MaxTotalMemoryMB
	}
	if e.coreLimits.MaxCPUQuotaMicros > 0 && containerOpts.CPUQuotaMicros > e.coreLimits.MaxCPUQuotaMicros {
		containerOpts.CPUQuotaMicros = e.coreLimits.MaxCPUQuotaMicros
	}
	e.mu.RUnlock()

	if !ok {
		return sandbox.ExecutionResult{Error: fmt.Sprintf("InvalidArgument: unsupported language: %s", lang)}
	}
	if strings.TrimSpace(code) == "" {
		return sandbox.ExecutionResult{Error: "InvalidArgument: empty code"}
	}

	if sem != nil {
		select {
		case sem <- struct{}{}:
			defer func() { <-sem }()
		case <-ctx.Done():
			return sandbox.ExecutionResult{Error: fmt.Sprintf("Timeout: %v", ctx.Err())}
		}
	}

	log := logging.Get(logging.CategorySandbox)
	log.Debug("execute: language=%s strategy=%s", lang, kind)

	var result sandbox.ExecutionResult
	var calls []sandbox.TrackedCall

	switch kind {
	case StrategyInProcess:
		result, calls = e.inprocessExec.Execute(ctx, code, toolsSnapshot, varsSnapshot)
	case StrategyWorker:
		result, calls = e.workerExec.Execute(ctx, code, toolsSnapshot, varsSnapshot)
	case StrategyContainer:
		// The in-host strategies validate internally (they evaluate code
		// themselves); the container strategy hands code straight to a
		// docker argv, so the facade is the only place left to run the
		// static validator ahead of it.
		if vres := validate.Validate(code, string(lang)); !vres.Valid() {
			result = sandbox.ExecutionResult{Error: fmt.Sprintf("InvalidArgument: %s", strings.Join(vres.Errors, "; "))}
			break
		}
		result = e.containerExec.Execute(ctx, code, lang, containerOpts)
	default:
		result = sandbox.ExecutionResult{Error: fmt.Sprintf("InvalidArgument: unrouted strategy for language: %s", lang)}
	}

	e.mu.Lock()
	e.lastCalls = calls
	e.mu.Unlock()

	for _, call := range calls {
		logging.AuditWithRequest(call.RequestID.String()).ToolExec(call.ToolName, call.Duration.Milliseconds(), call.Succeeded(), call.Error)
	}

	return result
}

// ExecuteWithOutcome wraps Execute with a monotonic duration measurement,
// recording it as a perf_metric audit event.
func (e *Engine) ExecuteWithOutcome(ctx context.Context, code string, lang sandbox.Language, containerOpts ContainerOptions) sandbox.ExecutionOutcome {
	start := time.Now()
	result := e.Execute(ctx, code, lang, containerOpts)
	elapsed := time.Since(start)
	logging.Audit().PerfMetric(fmt.Sprintf("execute:%s", lang), elapsed.Milliseconds(), 0)
	return sandbox.NewExecutionOutcome(result, elapsed)
}

var _ strategy = (*inprocess.Executor)(nil)
var _ strategy = (*worker.Executor)(nil)
