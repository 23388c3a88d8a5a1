// Package agent composes the model manager and task orchestrator into the
// service facade: preload, background maintenance loops, and the blocking
// generation API.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/JaimeStill/ml-agent/internal/config"
	"github.com/JaimeStill/ml-agent/internal/lifecycle"
	"github.com/JaimeStill/ml-agent/internal/models"
	"github.com/JaimeStill/ml-agent/internal/tasks"
)

const (
	memoryOptimizeInterval = time.Minute
	taskCleanupInterval    = 5 * time.Minute
	taskRetentionAge       = time.Hour
)

// ErrNoTask indicates no configured task matches the requested kind.
var ErrNoTask = errors.New("no configured task for requested type")

// Agent is the top-level facade over models and tasks.
type Agent struct {
	cfg    *config.Config
	models models.System
	orch   *tasks.Orchestrator
	logger *slog.Logger

	running   atomic.Bool
	startedAt time.Time
}

// New composes the facade from already-constructed systems.
func New(cfg *config.Config, modelSys models.System, orch *tasks.Orchestrator, logger *slog.Logger) *Agent {
	return &Agent{
		cfg:    cfg,
		models: modelSys,
		orch:   orch,
		logger: logger.With("system", "agent"),
	}
}

// Start launches the worker pool, optional preload, and the background
// maintenance loops, all bound to the lifecycle context.
func (a *Agent) Start(lc *lifecycle.Coordinator) error {
	ctx := lc.Context()

	a.orch.Start(ctx)

	if a.cfg.Resources.EnablePreload {
		lc.OnStartup(func() {
			a.preload(ctx)
		})
	}

	go a.memoryLoop(ctx)
	go a.cleanupLoop(ctx)

	lc.OnShutdown(func() {
		<-ctx.Done()
		a.shutdown()
	})

	a.startedAt = time.Now()
	a.running.Store(true)
	a.logger.Info("agent started", "name", a.cfg.Agent.Name)
	return nil
}

// preload warms up the first configured models, bounded by the configured
// preload count. Failures are logged; startup continues.
func (a *Agent) preload(ctx context.Context) {
	names := make([]string, 0, len(a.cfg.Models))
	for name := range a.cfg.Models {
		names = append(names, name)
	}
	sort.Strings(names)

	count := a.cfg.Agent.PreloadCount
	if count > len(names) {
		count = len(names)
	}

	for _, name := range names[:count] {
		if _, err := a.models.Get(ctx, name); err != nil {
			a.logger.Warn("preload failed", "model", name, "error", err)
			continue
		}
		a.logger.Info("model preloaded", "model", name)
	}
}

// memoryLoop periodically unloads idle models. Iteration failures are
// logged and the loop continues.
func (a *Agent) memoryLoop(ctx context.Context) {
	if !a.cfg.Resources.EnableMemoryOptimization {
		return
	}

	ticker := time.NewTicker(memoryOptimizeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.models.OptimizeMemory(ctx)
		}
	}
}

// cleanupLoop periodically purges terminal tasks past the retention age.
func (a *Agent) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(taskCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			age := taskRetentionAge
			a.orch.ClearCompleted(&age)
		}
	}
}

func (a *Agent) shutdown() {
	a.running.Store(false)

	if err := a.orch.Stop(10 * time.Second); err != nil {
		a.logger.Warn("worker drain incomplete", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	a.models.UnloadAll(ctx)

	a.logger.Info("agent stopped")
}

// GenerateOptions carries sampling overrides and an optional explicit
// model for the blocking generation API.
type GenerateOptions struct {
	Model       string
	Temperature float64
	TopP        float64
	TopK        int
	MaxLength   int
}

// GenerateText creates and submits a text generation task and blocks on
// its completion channel. A failed task surfaces as an error carrying the
// recorded message.
func (a *Agent) GenerateText(ctx context.Context, prompt string, opts GenerateOptions) (*tasks.Result, error) {
	return a.generate(ctx, config.TaskTypeTextGeneration, prompt, opts)
}

// GenerateImage creates and submits an image generation task and blocks on
// its completion channel. The result output is the stored artifact key.
func (a *Agent) GenerateImage(ctx context.Context, prompt string, opts GenerateOptions) (*tasks.Result, error) {
	return a.generate(ctx, config.TaskTypeImageGeneration, prompt, opts)
}

func (a *Agent) generate(ctx context.Context, kind config.TaskType, prompt string, opts GenerateOptions) (*tasks.Result, error) {
	name, err := a.taskFor(kind, opts.Model)
	if err != nil {
		return nil, err
	}

	input := map[string]any{"prompt": prompt}
	if opts.Temperature > 0 {
		input["temperature"] = opts.Temperature
	}
	if opts.TopP > 0 {
		input["top_p"] = opts.TopP
	}
	if opts.TopK > 0 {
		input["top_k"] = opts.TopK
	}
	if opts.MaxLength > 0 {
		input["max_length"] = opts.MaxLength
	}

	id, err := a.orch.Create(name, input)
	if err != nil {
		return nil, err
	}
	if err := a.orch.Submit(id); err != nil {
		return nil, err
	}

	result, err := a.orch.Wait(ctx, id)
	if err != nil {
		return nil, err
	}
	if result.Status != tasks.StatusCompleted {
		return result, fmt.Errorf("task %s %s: %s", id, result.Status, result.Error)
	}
	return result, nil
}

// taskFor selects the first configured task of the requested kind, in
// name order; when a model is given the task must be bound to it.
func (a *Agent) taskFor(kind config.TaskType, model string) (string, error) {
	definitions := a.orch.Definitions()

	names := make([]string, 0, len(definitions))
	for name := range definitions {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cfg := definitions[name]
		if cfg.Type != kind {
			continue
		}
		if model != "" && cfg.Model != model {
			continue
		}
		return name, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNoTask, kind)
}

// Status is the aggregate agent snapshot.
type Status struct {
	Name    string            `json:"name"`
	Running bool              `json:"running"`
	Uptime  string            `json:"uptime,omitempty"`
	Models  []models.Status   `json:"models"`
	Queue   tasks.QueueStatus `json:"queue"`
}

// Status reports the agent name, uptime, model residency, and queue
// occupancy.
func (a *Agent) Status() Status {
	status := Status{
		Name:    a.cfg.Agent.Name,
		Running: a.running.Load(),
		Models:  a.models.Status(),
		Queue:   a.orch.QueueStatus(),
	}
	if !a.startedAt.IsZero() {
		status.Uptime = time.Since(a.startedAt).Round(time.Second).String()
	}
	return status
}
