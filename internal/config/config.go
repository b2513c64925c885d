package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"sandboxkernel/internal/logging"

	"gopkg.in/yaml.v3"
)

// Config holds all sandboxkernel configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Execution settings (operation limits, trace mode, env filtering)
	Execution ExecutionConfig `yaml:"execution"`

	// Container strategy settings (images, docker binary, resource ceilings)
	Container ContainerConfig `yaml:"container"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`

	// Core Resource Limits (enforced system-wide, across all strategies)
	CoreLimits CoreLimits `yaml:"core_limits" json:"core_limits"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "sandboxkernel",
		Version: "0.1.0",

		Execution: ExecutionConfig{
			MaxOperations:  1_000_000,
			MaxOutputBytes: 65536,
			TraceMode:      "line",
			DefaultTimeout: "10s",
			AllowedEnvVars: []string{"PATH", "HOME", "USER", "LANG", "LC_ALL", "LC_CTYPE", "TZ", "TERM"},
			DeniedEnvPatterns: []string{
				"(?i)key", "(?i)secret", "(?i)token", "(?i)password", "(?i)credential",
			},
			MaxMessageIterations: 10000,
		},

		Container: ContainerConfig{
			Images:                DefaultContainerImages(),
			DefaultMemoryMB:       256,
			DefaultCPUQuotaMicros: 50000,
			DefaultTimeoutSeconds: 10,
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			File:   "sandboxkernel.log",
		},

		CoreLimits: CoreLimits{
			MaxTotalMemoryMB:        4096,
			MaxCPUQuotaMicros:       200000,
			MaxConcurrentExecutions: 8,
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	logging.BootDebug("Loading config from: %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			logging.Boot("Config file not found, using defaults: %s", path)
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		logging.BootError("Failed to read config file %s: %v", path, err)
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		logging.BootError("Failed to parse config file %s: %v", path, err)
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Merge in any language images DefaultConfig provides but the file omitted.
	if cfg.Container.Images == nil {
		cfg.Container.Images = DefaultContainerImages()
	} else {
		for lang, img := range DefaultContainerImages() {
			if _, ok := cfg.Container.Images[lang]; !ok {
				cfg.Container.Images[lang] = img
			}
		}
	}

	cfg.applyEnvOverrides()
	logging.Boot("Config loaded: max_operations=%d trace_mode=%s", cfg.Execution.MaxOperations, cfg.Execution.TraceMode)

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SANDBOXKERNEL_MAX_OPERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Execution.MaxOperations = n
		} else {
			logging.BootError("invalid SANDBOXKERNEL_MAX_OPERATIONS=%q: %v", v, err)
		}
	}
	if v := os.Getenv("SANDBOXKERNEL_TRACE_MODE"); v != "" {
		c.Execution.TraceMode = v
	}
	if v := os.Getenv("SANDBOXKERNEL_DEFAULT_TIMEOUT"); v != "" {
		c.Execution.DefaultTimeout = v
	}
	if v := os.Getenv("SANDBOXKERNEL_DOCKER_BIN"); v != "" {
		c.Container.DockerBinary = v
	}
	if v := os.Getenv("SANDBOXKERNEL_MAX_CONCURRENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.CoreLimits.MaxConcurrentExecutions = n
		} else {
			logging.BootError("invalid SANDBOXKERNEL_MAX_CONCURRENT=%q: %v", v, err)
		}
	}
	if v := os.Getenv("SANDBOXKERNEL_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("SANDBOXKERNEL_DEBUG"); v != "" {
		c.Logging.DebugMode = v == "1" || v == "true"
	}
}

// ConfigureLogging wires this config's Logging section into the logging
// package (which otherwise reads its own .nerd/config.json), then
// initializes its per-category log files under workspace.
func (c *Config) ConfigureLogging(workspace string) error {
	logging.Configure(c.Logging.DebugMode, c.Logging.Level, c.Logging.Format == "json", c.Logging.Categories)
	return logging.Initialize(workspace)
}

// GetExecutionTimeout returns the default execution timeout as a duration.
func (c *Config) GetExecutionTimeout() time.Duration {
	d, err := time.ParseDuration(c.Execution.DefaultTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// GetContainerTimeout returns the container strategy's default timeout as a duration.
func (c *Config) GetContainerTimeout() time.Duration {
	if c.Container.DefaultTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Container.DefaultTimeoutSeconds) * time.Second
}

// ImageFor returns the container descriptor for a language, falling back to
// the built-in default table when the language has no configured override.
func (c *Config) ImageFor(language string) (ContainerImage, bool) {
	if img, ok := c.Container.Images[language]; ok {
		return img, true
	}
	img, ok := DefaultContainerImages()[language]
	return img, ok
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.ValidateCoreLimits(); err != nil {
		return err
	}
	if c.Execution.MaxOperations <= 0 {
		return fmt.Errorf("execution.max_operations must be > 0")
	}
	switch c.Execution.TraceMode {
	case "line", "call":
	default:
		return fmt.Errorf("execution.trace_mode must be 'line' or 'call', got %q", c.Execution.TraceMode)
	}
	if _, err := time.ParseDuration(c.Execution.DefaultTimeout); err != nil {
		return fmt.Errorf("execution.default_timeout invalid: %w", err)
	}
	return nil
}
