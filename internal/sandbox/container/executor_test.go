package container

import (
	"context"
	"strings"
	"testing"

	"sandboxkernel/internal/config"
	"sandboxkernel/internal/sandbox"
)

func TestNewExecutor_SupportsConfiguredLanguages(t *testing.T) {
	cfg := config.ContainerConfig{Images: config.DefaultContainerImages()}
	e := NewExecutor(cfg)
	if !e.Supports(sandbox.LanguagePython) {
		t.Error("expected python to be supported")
	}
	if e.Supports(sandbox.Language("ruby")) {
		t.Error("expected ruby to be unsupported")
	}
}

func TestBuildArgs_ShapeIsTheSecurityPolicy(t *testing.T) {
	img := config.DefaultContainerImages()["python"]
	args := buildArgs(img, 256, 100_000, "print(1)")

	joined := strings.Join(args, " ")
	for _, must := range []string{
		"run", "--rm", "--network=none",
		"--memory=256m", "--memory-swap=256m", "--cpu-quota=100000",
		"--pids-limit=32", "--read-only",
		"--tmpfs=/tmp:rw,noexec,nosuid,size=32m",
		"--security-opt=no-new-privileges", "--cap-drop=ALL",
		img.Image, "python3", "-c", "print(1)",
	} {
		if !strings.Contains(joined, must) {
			t.Errorf("expected argv to contain %q, got %v", must, args)
		}
	}

	if args[len(args)-1] != "print(1)" {
		t.Errorf("expected code to be the final argv element, got %v", args)
	}
}

func TestExecute_UnsupportedLanguage(t *testing.T) {
	cfg := config.ContainerConfig{Images: config.DefaultContainerImages()}
	e := NewExecutor(cfg)
	result := e.Execute(context.Background(), "print(1)", sandbox.Language("ruby"), Options{})
	if result.Success() {
		t.Error("expected failure for unsupported language")
	}
}
