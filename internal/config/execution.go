package config

// ExecutionConfig configures the sandbox execution engine's default resource
// bounds. These are the façade-level defaults; individual Execute calls may
// override timeout/memory/cpu per spec.md's external interface.
type ExecutionConfig struct {
	// MaxOperations bounds guest computation via the operation limiter.
	MaxOperations int `yaml:"max_operations" json:"max_operations,omitempty"`

	// MaxOutputBytes truncates the captured output/logs buffer.
	MaxOutputBytes int `yaml:"max_output_bytes" json:"max_output_bytes,omitempty"`

	// TraceMode selects which event the operation limiter counts: "line" or "call".
	TraceMode string `yaml:"trace_mode" json:"trace_mode,omitempty"`

	// DefaultTimeout bounds the container strategy's wall clock.
	DefaultTimeout string `yaml:"default_timeout" json:"default_timeout,omitempty"`

	// AllowedEnvVars is the container environment allowlist (still filtered
	// through the denylist patterns before being passed to a container).
	AllowedEnvVars []string `yaml:"allowed_env_vars" json:"allowed_env_vars,omitempty"`

	// DeniedEnvPatterns are case-insensitive regexes; an allowlisted variable
	// whose name matches one is dropped before the container sees it.
	DeniedEnvPatterns []string `yaml:"denied_env_patterns" json:"denied_env_patterns,omitempty"`

	// MaxMessageIterations bounds the isolated-worker host loop.
	MaxMessageIterations int `yaml:"max_message_iterations" json:"max_message_iterations,omitempty"`
}
