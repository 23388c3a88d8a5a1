package config

import "fmt"

// ModelType identifies the modality of a configured model.
type ModelType string

// Model type constants. The set is closed: unknown tags are rejected when
// the configuration is loaded, never at first use.
const (
	ModelTypeText       ModelType = "text"
	ModelTypeImage      ModelType = "image"
	ModelTypeMultimodal ModelType = "multimodal"
)

// Validate checks if the model type is a known modality tag.
func (t ModelType) Validate() error {
	switch t {
	case ModelTypeText, ModelTypeImage, ModelTypeMultimodal:
		return nil
	default:
		return fmt.Errorf("invalid model type: %s (must be text, image, or multimodal)", t)
	}
}

// Device identifies the execution device preference for a model.
type Device string

// Device constants.
const (
	DeviceAuto        Device = "auto"
	DeviceCPU         Device = "cpu"
	DeviceAccelerator Device = "accelerator"
)

// Validate checks if the device is a known preference.
func (d Device) Validate() error {
	switch d {
	case DeviceAuto, DeviceCPU, DeviceAccelerator:
		return nil
	default:
		return fmt.Errorf("invalid device: %s (must be auto, cpu, or accelerator)", d)
	}
}

// ModelConfig declares a single inference model. Instances are immutable
// after Finalize; the runtime model layer reads but never mutates them.
type ModelConfig struct {
	name string

	Type        ModelType      `toml:"type"`
	Model       string         `toml:"model"`
	Device      Device         `toml:"device"`
	Precision   string         `toml:"precision"`
	BatchSize   int            `toml:"batch_size"`
	Temperature float64        `toml:"temperature"`
	TopP        float64        `toml:"top_p"`
	TopK        int            `toml:"top_k"`
	MaxLength   int            `toml:"max_length"`
	Parameters  map[string]any `toml:"parameters"`
}

// Name returns the model's configuration key.
func (c *ModelConfig) Name() string {
	return c.name
}

// Finalize applies defaults and validates the model configuration.
func (c *ModelConfig) Finalize() error {
	c.loadDefaults()
	return c.validate()
}

func (c *ModelConfig) loadDefaults() {
	if c.Device == "" {
		c.Device = DeviceAuto
	}
	if c.Precision == "" {
		c.Precision = "float16"
	}
	if c.BatchSize == 0 {
		c.BatchSize = 1
	}
	if c.Temperature == 0 {
		c.Temperature = 0.7
	}
	if c.TopP == 0 {
		c.TopP = 0.9
	}
	if c.TopK == 0 {
		c.TopK = 50
	}
	if c.MaxLength == 0 {
		c.MaxLength = 512
	}
}

func (c *ModelConfig) validate() error {
	if err := c.Type.Validate(); err != nil {
		return err
	}
	if err := c.Device.Validate(); err != nil {
		return err
	}
	if c.Model == "" {
		return fmt.Errorf("model artifact required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be in [0, 2]")
	}
	if c.TopP <= 0 || c.TopP > 1 {
		return fmt.Errorf("top_p must be in (0, 1]")
	}
	return nil
}
