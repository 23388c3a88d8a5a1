package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	// EnvMetricsEnabled overrides whether the metrics endpoint is served.
	EnvMetricsEnabled = "METRICS_ENABLED"

	// EnvMetricsPath overrides the metrics endpoint path.
	EnvMetricsPath = "METRICS_PATH"
)

// MetricsConfig contains Prometheus exposition configuration.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Finalize applies defaults, loads environment overrides, and validates the metrics configuration.
func (c *MetricsConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge applies values from overlay configuration.
func (c *MetricsConfig) Merge(overlay *MetricsConfig) {
	c.Enabled = overlay.Enabled
	if overlay.Path != "" {
		c.Path = overlay.Path
	}
}

func (c *MetricsConfig) loadDefaults() {
	if c.Path == "" {
		c.Path = "/metrics"
	}
}

func (c *MetricsConfig) loadEnv() {
	if v := os.Getenv(EnvMetricsEnabled); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.Enabled = enabled
		}
	}
	if v := os.Getenv(EnvMetricsPath); v != "" {
		c.Path = v
	}
}

func (c *MetricsConfig) validate() error {
	if !strings.HasPrefix(c.Path, "/") {
		return fmt.Errorf("path must start with /")
	}
	return nil
}
