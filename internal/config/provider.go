package config

import (
	"fmt"
	"os"
	"time"
)

const (
	// EnvProviderBaseURL overrides the inference backend base URL.
	EnvProviderBaseURL = "PROVIDER_BASE_URL"

	// EnvProviderImageBaseURL overrides the image generation backend base URL.
	EnvProviderImageBaseURL = "PROVIDER_IMAGE_BASE_URL"

	// EnvProviderTimeout overrides the inference request timeout.
	EnvProviderTimeout = "PROVIDER_TIMEOUT"
)

// ProviderConfig contains inference backend connection configuration.
// BaseURL addresses an Ollama-protocol server for chat-style generation;
// ImageBaseURL addresses an OpenAI-compatible images endpoint.
type ProviderConfig struct {
	BaseURL      string `toml:"base_url"`
	ImageBaseURL string `toml:"image_base_url"`
	Timeout      string `toml:"timeout"`
}

// TimeoutDuration parses and returns the request timeout as a time.Duration.
func (c *ProviderConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, loads environment overrides, and validates the provider configuration.
func (c *ProviderConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *ProviderConfig) Merge(overlay *ProviderConfig) {
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.ImageBaseURL != "" {
		c.ImageBaseURL = overlay.ImageBaseURL
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}

func (c *ProviderConfig) loadDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:11434/api"
	}
	if c.ImageBaseURL == "" {
		c.ImageBaseURL = "http://localhost:7860/v1"
	}
	if c.Timeout == "" {
		c.Timeout = "5m"
	}
}

func (c *ProviderConfig) loadEnv() {
	if v := os.Getenv(EnvProviderBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvProviderImageBaseURL); v != "" {
		c.ImageBaseURL = v
	}
	if v := os.Getenv(EnvProviderTimeout); v != "" {
		c.Timeout = v
	}
}

func (c *ProviderConfig) validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url required")
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	return nil
}
