package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	// EnvAgentName overrides the agent name.
	EnvAgentName = "AGENT_NAME"

	// EnvAgentPreloadCount overrides the number of models preloaded at startup.
	EnvAgentPreloadCount = "AGENT_PRELOAD_COUNT"
)

// AgentConfig contains facade-level settings.
type AgentConfig struct {
	Name         string `toml:"name"`
	PreloadCount int    `toml:"preload_count"`
}

// Finalize applies defaults, loads environment overrides, and validates the agent configuration.
func (c *AgentConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *AgentConfig) Merge(overlay *AgentConfig) {
	if overlay.Name != "" {
		c.Name = overlay.Name
	}
	if overlay.PreloadCount != 0 {
		c.PreloadCount = overlay.PreloadCount
	}
}

func (c *AgentConfig) loadDefaults() {
	if c.Name == "" {
		c.Name = "ml-agent"
	}
	if c.PreloadCount == 0 {
		c.PreloadCount = 3
	}
}

func (c *AgentConfig) loadEnv() {
	if v := os.Getenv(EnvAgentName); v != "" {
		c.Name = v
	}
	if v := os.Getenv(EnvAgentPreloadCount); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.PreloadCount = n
		}
	}
}

func (c *AgentConfig) validate() error {
	if c.PreloadCount < 0 {
		return fmt.Errorf("preload_count cannot be negative")
	}
	return nil
}
