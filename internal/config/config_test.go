package config

import (
	"os"
	"path/filepath"
	"testing"

	"sandboxkernel/internal/logging"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Name != "sandboxkernel" {
		t.Errorf("expected Name=sandboxkernel, got %s", cfg.Name)
	}
	if cfg.Execution.TraceMode != "line" {
		t.Errorf("expected TraceMode=line, got %s", cfg.Execution.TraceMode)
	}
	if cfg.CoreLimits.MaxConcurrentExecutions != 8 {
		t.Errorf("expected MaxConcurrentExecutions=8, got %d", cfg.CoreLimits.MaxConcurrentExecutions)
	}
	if len(cfg.Container.Images) != 4 {
		t.Errorf("expected 4 default container images, got %d", len(cfg.Container.Images))
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	t.Setenv("SANDBOXKERNEL_MAX_OPERATIONS", "")
	t.Setenv("SANDBOXKERNEL_TRACE_MODE", "")

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")

	cfg := DefaultConfig()
	cfg.Execution.MaxOperations = 42
	cfg.Execution.TraceMode = "call"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Execution.MaxOperations != 42 {
		t.Errorf("expected MaxOperations=42, got %d", loaded.Execution.MaxOperations)
	}
	if loaded.Execution.TraceMode != "call" {
		t.Errorf("expected TraceMode=call, got %s", loaded.Execution.TraceMode)
	}
	// Default images should be backfilled even though the saved file carried them already.
	if _, ok := loaded.Container.Images["python"]; !ok {
		t.Error("expected python image to survive round-trip")
	}
}

func TestConfig_Load_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Execution.MaxOperations != DefaultConfig().Execution.MaxOperations {
		t.Error("expected defaults when config file is absent")
	}
}

func TestConfig_EnvOverrides(t *testing.T) {
	os.Setenv("SANDBOXKERNEL_MAX_OPERATIONS", "7")
	defer os.Unsetenv("SANDBOXKERNEL_MAX_OPERATIONS")

	os.Setenv("SANDBOXKERNEL_DOCKER_BIN", "/usr/local/bin/docker")
	defer os.Unsetenv("SANDBOXKERNEL_DOCKER_BIN")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	if cfg.Execution.MaxOperations != 7 {
		t.Errorf("expected MaxOperations=7, got %d", cfg.Execution.MaxOperations)
	}
	if cfg.Container.DockerBinary != "/usr/local/bin/docker" {
		t.Errorf("expected DockerBinary override, got %s", cfg.Container.DockerBinary)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected default config to validate, got error: %v", err)
	}

	cfg.Execution.MaxOperations = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for zero max_operations")
	}

	cfg = DefaultConfig()
	cfg.Execution.TraceMode = "bogus"
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for invalid trace_mode")
	}

	cfg = DefaultConfig()
	cfg.CoreLimits.MaxTotalMemoryMB = 1
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for tiny memory ceiling")
	}
}

func TestConfig_ConfigureLogging_WiresDebugModeAndLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.DebugMode = true
	cfg.Logging.Level = "warn"

	if err := cfg.ConfigureLogging(t.TempDir()); err != nil {
		t.Fatalf("ConfigureLogging failed: %v", err)
	}
	if !logging.IsDebugMode() {
		t.Error("expected debug mode to be enabled after ConfigureLogging")
	}
}

func TestConfig_Helpers(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.GetExecutionTimeout() == 0 {
		t.Error("GetExecutionTimeout should return non-zero duration")
	}
	if cfg.GetContainerTimeout() == 0 {
		t.Error("GetContainerTimeout should return non-zero duration")
	}

	img, ok := cfg.ImageFor("python")
	if !ok || img.Image == "" {
		t.Error("ImageFor(python) should resolve to a built-in default")
	}

	if _, ok := cfg.ImageFor("cobol"); ok {
		t.Error("ImageFor(cobol) should not resolve")
	}
}
