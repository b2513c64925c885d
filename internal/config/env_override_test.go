package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvOverrides_Execution(t *testing.T) {
	t.Run("MAX_OPERATIONS parses and applies", func(t *testing.T) {
		t.Setenv("SANDBOXKERNEL_MAX_OPERATIONS", "12345")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, 12345, cfg.Execution.MaxOperations)
	})

	t.Run("MAX_OPERATIONS ignores unparsable value", func(t *testing.T) {
		t.Setenv("SANDBOXKERNEL_MAX_OPERATIONS", "not-a-number")

		cfg := DefaultConfig()
		original := cfg.Execution.MaxOperations
		cfg.applyEnvOverrides()

		assert.Equal(t, original, cfg.Execution.MaxOperations)
	})

	t.Run("TRACE_MODE overrides", func(t *testing.T) {
		t.Setenv("SANDBOXKERNEL_TRACE_MODE", "call")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "call", cfg.Execution.TraceMode)
	})

	t.Run("DEFAULT_TIMEOUT overrides", func(t *testing.T) {
		t.Setenv("SANDBOXKERNEL_DEFAULT_TIMEOUT", "5s")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "5s", cfg.Execution.DefaultTimeout)
	})
}

func TestEnvOverrides_Container(t *testing.T) {
	t.Run("DOCKER_BIN overrides", func(t *testing.T) {
		t.Setenv("SANDBOXKERNEL_DOCKER_BIN", "/opt/bin/docker")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "/opt/bin/docker", cfg.Container.DockerBinary)
	})
}

func TestEnvOverrides_CoreLimits(t *testing.T) {
	t.Run("MAX_CONCURRENT parses and applies", func(t *testing.T) {
		t.Setenv("SANDBOXKERNEL_MAX_CONCURRENT", "16")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, 16, cfg.CoreLimits.MaxConcurrentExecutions)
	})

	t.Run("MAX_CONCURRENT ignores unparsable value", func(t *testing.T) {
		t.Setenv("SANDBOXKERNEL_MAX_CONCURRENT", "nope")

		cfg := DefaultConfig()
		original := cfg.CoreLimits.MaxConcurrentExecutions
		cfg.applyEnvOverrides()

		assert.Equal(t, original, cfg.CoreLimits.MaxConcurrentExecutions)
	})
}

func TestEnvOverrides_Logging(t *testing.T) {
	t.Run("LOG_LEVEL overrides", func(t *testing.T) {
		t.Setenv("SANDBOXKERNEL_LOG_LEVEL", "debug")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("DEBUG toggles debug mode", func(t *testing.T) {
		t.Setenv("SANDBOXKERNEL_DEBUG", "true")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.True(t, cfg.Logging.DebugMode)
	})

	t.Run("DEBUG accepts 1", func(t *testing.T) {
		t.Setenv("SANDBOXKERNEL_DEBUG", "1")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.True(t, cfg.Logging.DebugMode)
	})
}
