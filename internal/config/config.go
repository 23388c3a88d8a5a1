// Package config provides application configuration management with support for
// TOML files, environment variable overrides, and configuration overlays.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/JaimeStill/ml-agent/pkg/logging"
	"github.com/JaimeStill/ml-agent/pkg/middleware"
	"github.com/JaimeStill/ml-agent/pkg/pagination"
	"github.com/pelletier/go-toml/v2"
)

const (
	// BaseConfigFile is the primary configuration file name.
	BaseConfigFile = "config.toml"

	// OverlayConfigPattern is the file name pattern for environment-specific overlays.
	OverlayConfigPattern = "config.%s.toml"

	// EnvServiceEnv specifies the environment name for configuration overlays.
	EnvServiceEnv = "SERVICE_ENV"

	// EnvServiceShutdownTimeout overrides the service shutdown timeout.
	EnvServiceShutdownTimeout = "SERVICE_SHUTDOWN_TIMEOUT"
)

var loggingEnv = &logging.Env{
	Level:  "LOGGING_LEVEL",
	Format: "LOGGING_FORMAT",
}

var corsEnv = &middleware.CORSEnv{
	Enabled:          "CORS_ENABLED",
	Origins:          "CORS_ORIGINS",
	AllowedMethods:   "CORS_ALLOWED_METHODS",
	AllowedHeaders:   "CORS_ALLOWED_HEADERS",
	AllowCredentials: "CORS_ALLOW_CREDENTIALS",
	MaxAge:           "CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "PAGINATION_MAX_PAGE_SIZE",
}

// Config represents the root service configuration.
type Config struct {
	Server          ServerConfig           `toml:"server"`
	Provider        ProviderConfig         `toml:"provider"`
	Agent           AgentConfig            `toml:"agent"`
	Resources       ResourcesConfig        `toml:"resources"`
	Models          map[string]ModelConfig `toml:"models"`
	Tasks           map[string]TaskConfig  `toml:"tasks"`
	Database        DatabaseConfig         `toml:"database"`
	Storage         StorageConfig          `toml:"storage"`
	Metrics         MetricsConfig          `toml:"metrics"`
	Logging         logging.Config         `toml:"logging"`
	CORS            middleware.CORSConfig  `toml:"cors"`
	Pagination      pagination.Config      `toml:"pagination"`
	ShutdownTimeout string                 `toml:"shutdown_timeout"`
}

// ShutdownTimeoutDuration parses and returns the shutdown timeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads and parses the base configuration file, applies any
// environment-specific overlay, and finalizes the result. When the base
// file does not exist the built-in default configuration is used.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		cfg, err = load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Finalize applies defaults, loads environment overrides, and validates the configuration.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Provider.Finalize(); err != nil {
		return fmt.Errorf("provider: %w", err)
	}
	if err := c.Agent.Finalize(); err != nil {
		return fmt.Errorf("agent: %w", err)
	}
	if err := c.Resources.Finalize(); err != nil {
		return fmt.Errorf("resources: %w", err)
	}
	if err := c.Database.Finalize(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Metrics.Finalize(); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	if err := c.Logging.Finalize(loggingEnv); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}

	for name, model := range c.Models {
		model.name = name
		if err := model.Finalize(); err != nil {
			return fmt.Errorf("model %s: %w", name, err)
		}
		c.Models[name] = model
	}
	for name, task := range c.Tasks {
		task.name = name
		if err := task.Finalize(); err != nil {
			return fmt.Errorf("task %s: %w", name, err)
		}
		c.Tasks[name] = task
	}

	return c.validateReferences()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	c.Server.Merge(&overlay.Server)
	c.Provider.Merge(&overlay.Provider)
	c.Agent.Merge(&overlay.Agent)
	c.Resources.Merge(&overlay.Resources)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.Metrics.Merge(&overlay.Metrics)
	c.Logging.Merge(&overlay.Logging)
	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)

	if overlay.Models != nil {
		c.Models = overlay.Models
	}
	if overlay.Tasks != nil {
		c.Tasks = overlay.Tasks
	}
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}

	// A configuration without any declared models falls back to a single
	// text model and a text generation task against it.
	if len(c.Models) == 0 {
		c.Models = map[string]ModelConfig{
			"gpt2": {
				Type:  ModelTypeText,
				Model: "gpt2",
			},
		}
	}
	if len(c.Tasks) == 0 {
		c.Tasks = map[string]TaskConfig{
			"text_generation": {
				Type:  TaskTypeTextGeneration,
				Model: "gpt2",
			},
		}
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvServiceShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

// validateReferences checks that every task references a declared model.
// A dangling reference is a configuration error, not a runtime one.
func (c *Config) validateReferences() error {
	for name, task := range c.Tasks {
		if _, ok := c.Models[task.Model]; !ok {
			return fmt.Errorf("task %s: references undeclared model %q", name, task.Model)
		}
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvServiceEnv); env != "" {
		overlayPath := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(overlayPath); err == nil {
			return overlayPath
		}
	}
	return ""
}
