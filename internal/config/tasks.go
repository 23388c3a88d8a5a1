package config

import (
	"fmt"
	"time"
)

// TaskType identifies the kind of work a configured task performs.
type TaskType string

// Task type constants. The set is closed: unknown tags are rejected when
// the configuration is loaded.
const (
	TaskTypeTextGeneration  TaskType = "text_generation"
	TaskTypeImageGeneration TaskType = "image_generation"
	TaskTypeClassification  TaskType = "classification"
)

// Validate checks if the task type is a known kind.
func (t TaskType) Validate() error {
	switch t {
	case TaskTypeTextGeneration, TaskTypeImageGeneration, TaskTypeClassification:
		return nil
	default:
		return fmt.Errorf("invalid task type: %s (must be text_generation, image_generation, or classification)", t)
	}
}

// TaskConfig declares a single task definition bound to a declared model.
type TaskConfig struct {
	name string

	Type    TaskType `toml:"type"`
	Model   string   `toml:"model"`
	Timeout string   `toml:"timeout"`
	Retries int      `toml:"retries"`
	Batch   bool     `toml:"batch"`
}

// Name returns the task's configuration key.
func (c *TaskConfig) Name() string {
	return c.name
}

// TimeoutDuration parses and returns the task timeout as a time.Duration.
func (c *TaskConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults and validates the task configuration.
// The model reference itself is validated at the root once all model
// declarations are known.
func (c *TaskConfig) Finalize() error {
	c.loadDefaults()
	return c.validate()
}

func (c *TaskConfig) loadDefaults() {
	if c.Timeout == "" {
		c.Timeout = "5m"
	}
	if c.Retries == 0 {
		c.Retries = 3
	}
}

func (c *TaskConfig) validate() error {
	if err := c.Type.Validate(); err != nil {
		return err
	}
	if c.Model == "" {
		return fmt.Errorf("model reference required")
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries cannot be negative")
	}
	return nil
}
