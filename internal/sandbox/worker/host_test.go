package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"sandboxkernel/internal/sandbox"
)

func TestExecutor_Supports(t *testing.T) {
	e := NewExecutor(10_000, 1<<16)
	assert.True(t, e.Supports(sandbox.LanguageGo))
	assert.False(t, e.Supports(sandbox.LanguagePython))
}

func TestExecutor_Execute_PlainValue(t *testing.T) {
	code := `package main

func Run() any {
	return 7
}
`
	e := NewExecutor(10_000, 1<<16)
	result, calls := e.Execute(context.Background(), code, nil, nil)
	assert.True(t, result.Success())
	assert.Equal(t, 7, result.Output)
	assert.Empty(t, calls)
}

func TestExecutor_Execute_RoutesToolCallThroughHost(t *testing.T) {
	code := `package main

import "sandboxkernel/sandbox"

func Run() any {
	v, _ := sandbox.Resolve("double", []any{21}, nil)
	return v
}
`
	tools := map[string]sandbox.ToolFunc{
		"double": func(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
			return args[0].(int) * 2, nil
		},
	}
	e := NewExecutor(10_000, 1<<16)
	result, calls := e.Execute(context.Background(), code, tools, nil)
	assert.True(t, result.Success())
	assert.Equal(t, 42, result.Output)
	if assert.Len(t, calls, 1) {
		assert.Equal(t, "double", calls[0].ToolName)
	}
}

func TestExecutor_Execute_UnknownToolReportsError(t *testing.T) {
	code := `package main

import "sandboxkernel/sandbox"

func Run() any {
	_, err := sandbox.Resolve("ghost", nil, nil)
	if err != nil {
		sandbox.Raise(err.Error())
	}
	return nil
}
`
	e := NewExecutor(10_000, 1<<16)
	result, _ := e.Execute(context.Background(), code, nil, nil)
	assert.False(t, result.Success())
}

func TestExecutor_Execute_FinalAnswer(t *testing.T) {
	code := `package main

import "sandboxkernel/sandbox"

func Run() any {
	sandbox.FinalAnswer("done")
	return nil
}
`
	e := NewExecutor(10_000, 1<<16)
	result, _ := e.Execute(context.Background(), code, nil, nil)
	assert.True(t, result.Success())
	assert.True(t, result.IsFinalAnswer)
	assert.Equal(t, "done", result.Output)
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
	e := NewExecutor(5, 1<<16)
	result, _ := e.Execute(context.Background(), code, nil, nil)
	assert.False(t, result.Success())
	assert.Contains(t, result.Error, "Operation limit exceeded: 5")
}
