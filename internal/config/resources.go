package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/docker/go-units"
)

const (
	// EnvResourcesMaxCacheSize overrides the active-model ceiling.
	EnvResourcesMaxCacheSize = "RESOURCES_MAX_CACHE_SIZE"

	// EnvResourcesMaxConcurrentTasks overrides the worker pool size.
	EnvResourcesMaxConcurrentTasks = "RESOURCES_MAX_CONCURRENT_TASKS"

	// EnvResourcesIdleTimeout overrides the memory optimizer idle threshold.
	EnvResourcesIdleTimeout = "RESOURCES_IDLE_TIMEOUT"
)

// ResourcesConfig contains model residency and task concurrency ceilings.
type ResourcesConfig struct {
	// MaxCacheSize is the maximum number of models resident in the
	// active set before eviction kicks in.
	MaxCacheSize int `toml:"max_cache_size"`

	// MaxConcurrentTasks bounds the orchestrator worker pool.
	MaxConcurrentTasks int `toml:"max_concurrent_tasks"`

	// IdleTimeout is how long a model may sit unused before the memory
	// optimizer unloads it outright.
	IdleTimeout string `toml:"idle_timeout"`

	MaxGPUMemory string `toml:"max_gpu_memory"`
	MaxCPUMemory string `toml:"max_cpu_memory"`

	EnablePreload            bool `toml:"enable_preload"`
	EnableMemoryOptimization bool `toml:"enable_memory_optimization"`

	maxGPUMemoryVal int64
	maxCPUMemoryVal int64
}

// IdleTimeoutDuration parses and returns the idle timeout as a time.Duration.
func (c *ResourcesConfig) IdleTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.IdleTimeout)
	return d
}

// MaxGPUMemoryBytes returns the parsed GPU memory ceiling.
func (c *ResourcesConfig) MaxGPUMemoryBytes() int64 {
	return c.maxGPUMemoryVal
}

// MaxCPUMemoryBytes returns the parsed CPU memory ceiling.
func (c *ResourcesConfig) MaxCPUMemoryBytes() int64 {
	return c.maxCPUMemoryVal
}

// Finalize applies defaults, loads environment overrides, and validates the resource configuration.
func (c *ResourcesConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *ResourcesConfig) Merge(overlay *ResourcesConfig) {
	if overlay.MaxCacheSize != 0 {
		c.MaxCacheSize = overlay.MaxCacheSize
	}
	if overlay.MaxConcurrentTasks != 0 {
		c.MaxConcurrentTasks = overlay.MaxConcurrentTasks
	}
	if overlay.IdleTimeout != "" {
		c.IdleTimeout = overlay.IdleTimeout
	}
	if overlay.MaxGPUMemory != "" {
		c.MaxGPUMemory = overlay.MaxGPUMemory
	}
	if overlay.MaxCPUMemory != "" {
		c.MaxCPUMemory = overlay.MaxCPUMemory
	}
	c.EnablePreload = overlay.EnablePreload
	c.EnableMemoryOptimization = overlay.EnableMemoryOptimization
}

func (c *ResourcesConfig) loadDefaults() {
	if c.MaxCacheSize == 0 {
		c.MaxCacheSize = 5
	}
	if c.MaxConcurrentTasks == 0 {
		c.MaxConcurrentTasks = 3
	}
	if c.IdleTimeout == "" {
		c.IdleTimeout = "5m"
	}
	if c.MaxGPUMemory == "" {
		c.MaxGPUMemory = "8GiB"
	}
	if c.MaxCPUMemory == "" {
		c.MaxCPUMemory = "16GiB"
	}
}

func (c *ResourcesConfig) loadEnv() {
	if v := os.Getenv(EnvResourcesMaxCacheSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxCacheSize = n
		}
	}
	if v := os.Getenv(EnvResourcesMaxConcurrentTasks); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxConcurrentTasks = n
		}
	}
	if v := os.Getenv(EnvResourcesIdleTimeout); v != "" {
		c.IdleTimeout = v
	}
}

func (c *ResourcesConfig) validate() error {
	if c.MaxCacheSize < 1 {
		return fmt.Errorf("max_cache_size must be positive")
	}
	if c.MaxConcurrentTasks < 1 {
		return fmt.Errorf("max_concurrent_tasks must be positive")
	}
	if _, err := time.ParseDuration(c.IdleTimeout); err != nil {
		return fmt.Errorf("invalid idle_timeout: %w", err)
	}

	gpu, err := units.RAMInBytes(c.MaxGPUMemory)
	if err != nil {
		return fmt.Errorf("invalid max_gpu_memory: %w", err)
	}
	c.maxGPUMemoryVal = gpu

	cpu, err := units.RAMInBytes(c.MaxCPUMemory)
	if err != nil {
		return fmt.Errorf("invalid max_cpu_memory: %w", err)
	}
	c.maxCPUMemoryVal = cpu

	return nil
}
