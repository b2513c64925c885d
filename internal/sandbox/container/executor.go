// Package container implements the container guest strategy: every
// execution runs in a throwaway Docker container with no network, a
// read-only root filesystem, and an explicit, allowlisted environment. The
// shape of the docker argv is itself the security policy.
package container

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"sandboxkernel/internal/config"
	"sandboxkernel/internal/logging"
	"sandboxkernel/internal/sandbox"
)

const (
	pidsLimit     = 32
	tmpfsSpec     = "/tmp:rw,noexec,nosuid,size=32m"
	killGraceTime = 1 * time.Second
)

// Executor is the container guest strategy.
type Executor struct {
	cfg          config.ContainerConfig
	dockerPath   string
	envAllowlist map[string]bool
	envDenylist  *regexp.Regexp
}

// NewExecutor builds a container executor from the container config. If
// DockerBinary is unset, the "docker" binary is resolved from PATH.
func NewExecutor(cfg config.ContainerConfig) *Executor {
	return NewExecutorWithEnvPolicy(cfg, nil, nil)
}

// NewExecutorWithEnvPolicy builds a container executor whose environment
// allowlist/denylist come from config.ExecutionConfig (allowedEnv,
// deniedPatterns), falling back to the built-in defaults when either is
// empty.
func NewExecutorWithEnvPolicy(cfg config.ContainerConfig, allowedEnv, deniedPatterns []string) *Executor {
	path := cfg.DockerBinary
	if path == "" {
		if resolved, err := exec.LookPath("docker"); err == nil {
			path = resolved
		} else {
			path = "docker"
		}
	}
	allowlist, denylist := buildEnvFilter(allowedEnv, deniedPatterns)
	return &Executor{cfg: cfg, dockerPath: path, envAllowlist: allowlist, envDenylist: denylist}
}

// Supports reports whether lang has a configured image/command entry.
func (e *Executor) Supports(lang sandbox.Language) bool {
	_, ok := e.cfg.Images[string(lang)]
	return ok
}

// Options bounds one container invocation; zero values fall back to the
// executor's configured defaults.
type Options struct {
	TimeoutSeconds int
	MemoryMB       int
	CPUQuotaMicros int
}

// Execute runs code in a throwaway container for lang, returning the parsed
// execution result. Logs always carry the container's stderr.
func (e *Executor) Execute(ctx context.Context, code string, lang sandbox.Language, opts Options) sandbox.ExecutionResult {
	img, ok := e.cfg.Images[string(lang)]
	if !ok {
		return sandbox.ExecutionResult{Error: fmt.Sprintf("InvalidArgument: unsupported container language: %s", lang)}
	}

	memMB := opts.MemoryMB
	if memMB <= 0 {
		memMB = e.cfg.DefaultMemoryMB
	}
	cpuQuota := opts.CPUQuotaMicros
	if cpuQuota <= 0 {
		cpuQuota = e.cfg.DefaultCPUQuotaMicros
	}
	timeoutSeconds := opts.TimeoutSeconds
	if timeoutSeconds <= 0 {
		timeoutSeconds = e.cfg.DefaultTimeoutSeconds
	}

	args := buildArgs(img, memMB, cpuQuota, code)

	cmd := exec.CommandContext(ctx, e.dockerPath, args...)
	// We drive SIGTERM->SIGKILL escalation ourselves below. CommandContext's
	// default Cancel sends an immediate SIGKILL to just the docker-client
	// PID the instant ctx is done, and cmd.Run/Wait won't return until that
	// kill+reap has already happened — by the time our own timeout check
	// ran, the process would already be gone and terminateProcessGroup would
	// have nothing left to signal, so no SIGTERM (which docker run forwards
	// to the container) is ever actually sent. Disable it.
	cmd.Cancel = func() error { return nil }
	cmd.Env = e.filterEnv(os.Environ())
	setupProcessGroup(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log := logging.Get(logging.CategoryContainer)
	log.Debug("container exec: image=%s timeout=%ds", img.Image, timeoutSeconds)

	if err := cmd.Start(); err != nil {
		return sandbox.ExecutionResult{Error: fmt.Sprintf("Docker error: %v", err)}
	}

	waited := make(chan error, 1)
	go func() { waited <- cmd.Wait() }()

	timer := time.NewTimer(time.Duration(timeoutSeconds) * time.Second)
	defer timer.Stop()

	select {
	case err := <-waited:
		if err != nil {
			if exitErr, ok := err.(*exec.ExitError); ok {
				return sandbox.ExecutionResult{
					Error: fmt.Sprintf("Exit code %d: %s", exitErr.ExitCode(), strings.TrimSpace(stderr.String())),
					Logs:  stderr.String(),
				}
			}
			return sandbox.ExecutionResult{
				Error: fmt.Sprintf("Docker error: %v", err),
				Logs:  stderr.String(),
			}
		}
		return sandbox.ExecutionResult{
			Output: parseStdout(stdout.String()),
			Logs:   stderr.String(),
		}

	case <-timer.C:
		terminateProcessGroup(cmd, waited, killGraceTime)
		return sandbox.ExecutionResult{
			Error: fmt.Sprintf("Docker execution timeout after %d seconds", timeoutSeconds),
			Logs:  stderr.String(),
		}

	case <-ctx.Done():
		terminateProcessGroup(cmd, waited, killGraceTime)
		return sandbox.ExecutionResult{
			Error: fmt.Sprintf("Unknown: %v", ctx.Err()),
			Logs:  stderr.String(),
		}
	}
}

func buildArgs(img config.ContainerImage, memMB, cpuQuota int, code string) []string {
	args := []string{
		"run", "--rm", "--network=none",
		fmt.Sprintf("--memory=%dm", memMB),
		fmt.Sprintf("--memory-swap=%dm", memMB),
		fmt.Sprintf("--cpu-quota=%d", cpuQuota),
		fmt.Sprintf("--pids-limit=%d", pidsLimit),
		"--read-only",
		fmt.Sprintf("--tmpfs=%s", tmpfsSpec),
		"--security-opt=no-new-privileges",
		"--cap-drop=ALL",
		img.Image,
	}
	args = append(args, img.CommandPrefix...)
	args = append(args, code)
	return args
}
