package inprocess

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"sandboxkernel/internal/sandbox"
	"sandboxkernel/internal/sandbox/limiter"
)

func newTestExecutor() *Executor {
	return NewExecutor(10_000, limiter.ModeLine, 1<<16)
}

func TestExecutor_Supports(t *testing.T) {
	e := newTestExecutor()
	assert.True(t, e.Supports(sandbox.LanguageGo))
	assert.False(t, e.Supports(sandbox.LanguagePython))
	assert.False(t, e.Supports(sandbox.LanguageJavaScript))
}

func TestExecutor_Execute_PlainValue(t *testing.T) {
	code := `package main

func Run() any {
	return 1 + 1
}
`
	e := newTestExecutor()
	result, calls := e.Execute(context.Background(), code, nil, nil)
	assert.True(t, result.Success())
	assert.Equal(t, 2, result.Output)
	assert.Empty(t, calls)
}

func TestExecutor_Execute_CapturesPutsOutput(t *testing.T) {
	code := `package main

import "sandboxkernel/sandbox"

func Run() any {
	sandbox.Puts("hello")
	return nil
}
`
	e := newTestExecutor()
	result, _ := e.Execute(context.Background(), code, nil, nil)
	assert.True(t, result.Success())
	assert.Equal(t, "hello\n", result.Logs)
}

func TestExecutor_Execute_OperationLimitExceeded(t *testing.T) {
	code := `package main

func Run() any {
	total := 0
	for i := 0; i < 1000000; i++ {
		total += i
	}
	return total
}
`
	e := NewExecutor(5, limiter.ModeLine, 1<<16)
	result, _ := e.Execute(context.Background(), code, nil, nil)
	assert.False(t, result.Success())
	assert.Contains(t, result.Error, "Operation limit exceeded: 5")
}

func TestExecutor_Execute_FinalAnswer(t *testing.T) {
	code := `package main

import "sandboxkernel/sandbox"

func Run() any {
	sandbox.FinalAnswer(42)
	return nil
}
`
	e := newTestExecutor()
	result, _ := e.Execute(context.Background(), code, nil, nil)
	assert.True(t, result.Success())
	assert.True(t, result.IsFinalAnswer)
	assert.Equal(t, 42, result.Output)
}

func TestExecutor_Execute_UndefinedNameFails(t *testing.T) {
	code := `package main

import "sandboxkernel/sandbox"

func Run() any {
	v, err := sandbox.Resolve("does_not_exist", nil, nil)
	if err != nil {
		sandbox.Raise(err.Error())
	}
	return v
}
`
	e := newTestExecutor()
	result, _ := e.Execute(context.Background(), code, nil, nil)
	assert.False(t, result.Success())
	assert.True(t, strings.Contains(result.Error, "undefined name"))
}

func TestExecutor_Execute_ToolCallIsTracked(t *testing.T) {
	code := `package main

import "sandboxkernel/sandbox"

func Run() any {
	v, _ := sandbox.Resolve("echo", []any{"hi"}, nil)
	return v
}
`
	e := newTestExecutor()
	tools := map[string]sandbox.ToolFunc{
		"echo": func(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
			return args[0], nil
		},
	}
	result, calls := e.Execute(context.Background(), code, tools, nil)
	assert.True(t, result.Success())
	assert.Equal(t, "hi", result.Output)
	if assert.Len(t, calls, 1) {
		assert.Equal(t, "echo", calls[0].ToolName)
		assert.True(t, calls[0].Succeeded())
	}
}

func TestExecutor_Execute_RejectsDangerousCode(t *testing.T) {
	code := `package main

import "os/exec"

func Run() any {
	exec.Command("ls").Run()
	return nil
}
`
	e := newTestExecutor()
	result, _ := e.Execute(context.Background(), code, nil, nil)
	assert.False(t, result.Success())
	assert.Contains(t, result.Error, "exec.Command")
}

func TestExecutor_Execute_EmptyCodeFails(t *testing.T) {
	e := newTestExecutor()
	result, _ := e.Execute(context.Background(), "   ", nil, nil)
	assert.False(t, result.Success())
}
