package models

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/JaimeStill/ml-agent/internal/config"
	"github.com/JaimeStill/ml-agent/internal/providers"
	"github.com/docker/go-units"
)

// GenerateRequest is a single generation invocation against a model.
// Images carry base64 attachments for multimodal input. Options are merged
// over the model's configured defaults; caller values win.
type GenerateRequest struct {
	Prompt  string
	Images  []string
	Options providers.Options
}

// GenerateResponse is the outcome of a generation. Text models populate
// Text; image models populate Image and MediaType.
type GenerateResponse struct {
	Text             string
	Image            []byte
	MediaType        string
	PromptTokens     int
	CompletionTokens int
}

// Model is a runtime inference model instance.
type Model interface {
	Name() string
	Type() config.ModelType
	Config() config.ModelConfig

	// Load resolves the device, ensures the backing artifact is present
	// on the backend, and records load metadata. Idempotent; a failed
	// load leaves the instance unloaded.
	Load(ctx context.Context) error

	// Unload releases backend weights. Safe on an unloaded instance.
	Unload(ctx context.Context) error

	Loaded() bool
	LastUsed() time.Time

	// Generate runs inference, loading lazily if needed. Success updates
	// the last-used timestamp; failure leaves load-state bookkeeping
	// untouched.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	Status() Status
}

// Status is a read-only snapshot of a model instance.
type Status struct {
	Name         string           `json:"name"`
	Type         config.ModelType `json:"type"`
	Loaded       bool             `json:"loaded"`
	Cached       bool             `json:"cached,omitempty"`
	Device       config.Device    `json:"device"`
	Memory       string           `json:"memory,omitempty"`
	MemoryBytes  int64            `json:"memory_bytes,omitempty"`
	LoadDuration string           `json:"load_duration,omitempty"`
	LastUsed     *time.Time       `json:"last_used,omitempty"`
}

// New constructs a model instance for the config's modality tag. The tag
// set is closed and validated at configuration load; an unknown tag here
// still errors rather than panicking.
func New(cfg config.ModelConfig, client providers.Client, logger *slog.Logger) (Model, error) {
	switch cfg.Type {
	case config.ModelTypeText:
		return &TextModel{base: newBase(cfg, client, logger)}, nil
	case config.ModelTypeImage:
		return &ImageModel{base: newBase(cfg, client, logger)}, nil
	case config.ModelTypeMultimodal:
		return &MultimodalModel{base: newBase(cfg, client, logger)}, nil
	default:
		return nil, fmt.Errorf("unknown model type: %s", cfg.Type)
	}
}

// base carries the state and provider plumbing shared by all model types.
type base struct {
	cfg    config.ModelConfig
	client providers.Client
	logger *slog.Logger

	mu           sync.Mutex
	loaded       bool
	device       config.Device
	memoryBytes  int64
	loadDuration time.Duration
	lastUsed     time.Time
}

func newBase(cfg config.ModelConfig, client providers.Client, logger *slog.Logger) base {
	return base{
		cfg:    cfg,
		client: client,
		logger: logger.With("model", cfg.Name()),
	}
}

func (b *base) Name() string              { return b.cfg.Name() }
func (b *base) Type() config.ModelType    { return b.cfg.Type }
func (b *base) Config() config.ModelConfig { return b.cfg }

func (b *base) Loaded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loaded
}

func (b *base) LastUsed() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastUsed
}

func (b *base) Load(ctx context.Context) error {
	b.mu.Lock()
	if b.loaded {
		b.mu.Unlock()
		return nil
	}
	b.mu.Unlock()

	start := time.Now()

	if err := b.client.Pull(ctx, b.cfg.Model); err != nil {
		return fmt.Errorf("load %s: %w", b.cfg.Name(), err)
	}

	info, err := b.client.Show(ctx, b.cfg.Model)
	if err != nil {
		return fmt.Errorf("load %s: %w", b.cfg.Name(), err)
	}

	b.mu.Lock()
	b.loaded = true
	b.device = resolveDevice(b.cfg.Device)
	b.memoryBytes = info.SizeBytes
	b.loadDuration = time.Since(start)
	b.lastUsed = time.Now()
	b.mu.Unlock()

	b.logger.Info("model loaded",
		"artifact", b.cfg.Model,
		"device", b.device,
		"size", units.BytesSize(float64(info.SizeBytes)),
		"duration", time.Since(start),
	)
	return nil
}

func (b *base) Unload(ctx context.Context) error {
	b.mu.Lock()
	if !b.loaded {
		b.mu.Unlock()
		return nil
	}
	b.loaded = false
	b.memoryBytes = 0
	b.loadDuration = 0
	b.mu.Unlock()

	if err := b.client.Unload(ctx, b.cfg.Model); err != nil {
		b.logger.Warn("backend unload failed", "error", err)
	}

	b.logger.Info("model unloaded")
	return nil
}

func (b *base) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	status := Status{
		Name:   b.cfg.Name(),
		Type:   b.cfg.Type,
		Loaded: b.loaded,
		Device: b.device,
	}
	if b.memoryBytes > 0 {
		status.Memory = units.BytesSize(float64(b.memoryBytes))
		status.MemoryBytes = b.memoryBytes
	}
	if b.loadDuration > 0 {
		status.LoadDuration = b.loadDuration.String()
	}
	if !b.lastUsed.IsZero() {
		used := b.lastUsed
		status.LastUsed = &used
	}
	return status
}

// ensureLoaded loads lazily before a generation call.
func (b *base) ensureLoaded(ctx context.Context) error {
	if b.Loaded() {
		return nil
	}
	return b.Load(ctx)
}

func (b *base) touch() {
	b.mu.Lock()
	b.lastUsed = time.Now()
	b.mu.Unlock()
}

// options merges caller sampling values over the config defaults.
func (b *base) options(overrides providers.Options) providers.Options {
	opts := providers.Options{
		Temperature: b.cfg.Temperature,
		TopP:        b.cfg.TopP,
		TopK:        b.cfg.TopK,
		MaxLength:   b.cfg.MaxLength,
	}
	if overrides.Temperature > 0 {
		opts.Temperature = overrides.Temperature
	}
	if overrides.TopP > 0 {
		opts.TopP = overrides.TopP
	}
	if overrides.TopK > 0 {
		opts.TopK = overrides.TopK
	}
	if overrides.MaxLength > 0 {
		opts.MaxLength = overrides.MaxLength
	}
	return opts
}

func resolveDevice(preference config.Device) config.Device {
	if preference == config.DeviceAuto {
		return config.DeviceAccelerator
	}
	return preference
}
