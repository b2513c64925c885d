package config

import "fmt"

// CoreLimits enforces system-wide resource constraints on the sandbox engine.
type CoreLimits struct {
	MaxTotalMemoryMB int `yaml:"max_total_memory_mb" json:"max_total_memory_mb"` // container --memory ceiling
	MaxCPUQuotaMicros int `yaml:"max_cpu_quota_micros" json:"max_cpu_quota_micros"` // container --cpu-quota ceiling
	MaxConcurrentExecutions int `yaml:"max_concurrent_executions" json:"max_concurrent_executions"` // façade-wide cap
}

// ValidateCoreLimits checks that core limits are within acceptable ranges.
func (c *Config) ValidateCoreLimits() error {
	if c.CoreLimits.MaxTotalMemoryMB < 16 {
		return fmt.Errorf("max_total_memory_mb must be >= 16 MB")
	}
	if c.CoreLimits.MaxConcurrentExecutions < 1 {
		return fmt.Errorf("max_concurrent_executions must be >= 1")
	}
	return nil
}
