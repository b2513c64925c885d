package config

// ContainerImage describes how to invoke a language's interpreter inside a
// container: the image to run and the argv prefix that precedes the guest
// source (the final argv element).
type ContainerImage struct {
	Image         string   `yaml:"image" json:"image"`
	CommandPrefix []string `yaml:"command_prefix" json:"command_prefix"`
}

// ContainerConfig configures the container strategy.
type ContainerConfig struct {
	// DockerBinary overrides the discovered `docker` binary path.
	DockerBinary string `yaml:"docker_binary" json:"docker_binary,omitempty"`

	// Images maps a language name to its container descriptor. Callers may
	// override individual entries; unset languages fall back to DefaultContainerImages.
	Images map[string]ContainerImage `yaml:"images" json:"images,omitempty"`

	// DefaultMemoryMB is the --memory/--memory-swap ceiling in megabytes.
	DefaultMemoryMB int `yaml:"default_memory_mb" json:"default_memory_mb,omitempty"`

	// DefaultCPUQuotaMicros is the --cpu-quota value (microseconds per 100ms period).
	DefaultCPUQuotaMicros int `yaml:"default_cpu_quota_micros" json:"default_cpu_quota_micros,omitempty"`

	// DefaultTimeoutSeconds bounds the wall clock before SIGTERM/SIGKILL escalation.
	DefaultTimeoutSeconds int `yaml:"default_timeout_seconds" json:"default_timeout_seconds,omitempty"`
}

// DefaultContainerImages returns the built-in language -> image table covering
// the host language plus Python, JavaScript and TypeScript (spec.md §4.7).
func DefaultContainerImages() map[string]ContainerImage {
	return map[string]ContainerImage{
		"go": {
			Image:         "golang:1.24-alpine",
			CommandPrefix: []string{"go", "run", "-"},
		},
		"python": {
			Image:         "python:3.12-alpine",
			CommandPrefix: []string{"python3", "-c"},
		},
		"javascript": {
			Image:         "node:22-alpine",
			CommandPrefix: []string{"node", "-e"},
		},
		"typescript": {
			Image:         "node:22-alpine",
			CommandPrefix: []string{"npx", "--yes", "tsx", "-e"},
		},
	}
}
