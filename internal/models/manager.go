package models

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/JaimeStill/ml-agent/internal/config"
	"github.com/JaimeStill/ml-agent/internal/metrics"
	"github.com/JaimeStill/ml-agent/internal/providers"
)

// Manager owns the active and cached model sets. All set transitions hold
// the manager mutex; slow backend calls (weight load/unload) happen
// outside it.
type Manager struct {
	models    map[string]config.ModelConfig
	resources *config.ResourcesConfig
	client    providers.Client
	logger    *slog.Logger
	metrics   *metrics.Metrics

	mu     sync.Mutex
	active map[string]Model
	order  []string
	cached map[string]Model
}

// NewManager creates a model manager over the configured model set.
func NewManager(
	models map[string]config.ModelConfig,
	resources *config.ResourcesConfig,
	client providers.Client,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Manager {
	return &Manager{
		models:    models,
		resources: resources,
		client:    client,
		logger:    logger.With("system", "models"),
		metrics:   m,
		active:    make(map[string]Model),
		cached:    make(map[string]Model),
	}
}

func (m *Manager) Get(ctx context.Context, name string) (Model, error) {
	m.mu.Lock()

	if model, ok := m.active[name]; ok {
		m.mu.Unlock()
		return model, nil
	}

	if model, ok := m.cached[name]; ok {
		delete(m.cached, name)
		evicted := m.evictIfFullLocked()
		m.insertLocked(name, model)
		m.mu.Unlock()

		m.demote(ctx, evicted)
		m.logger.Info("model promoted from cache", "name", name)
		return model, nil
	}

	cfg, ok := m.models[name]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	model, err := New(cfg, m.client, m.logger)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}

	evicted := m.evictIfFullLocked()
	m.insertLocked(name, model)
	m.mu.Unlock()

	m.demote(ctx, evicted)

	if err := model.Load(ctx); err != nil {
		m.mu.Lock()
		m.removeActiveLocked(name)
		m.metrics.ActiveModels(len(m.active))
		m.mu.Unlock()
		return nil, err
	}

	m.metrics.ModelLoaded()
	return model, nil
}

func (m *Manager) Load(ctx context.Context, name string) error {
	model, err := m.Get(ctx, name)
	if err != nil {
		return err
	}
	return model.Load(ctx)
}

func (m *Manager) Unload(ctx context.Context, name string) error {
	if _, ok := m.models[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	m.mu.Lock()
	model, ok := m.active[name]
	if ok {
		m.removeActiveLocked(name)
	} else {
		model, ok = m.cached[name]
		delete(m.cached, name)
	}
	m.metrics.ActiveModels(len(m.active))
	m.mu.Unlock()

	if !ok {
		return nil
	}
	return model.Unload(ctx)
}

func (m *Manager) UnloadAll(ctx context.Context) {
	m.mu.Lock()
	resident := make([]Model, 0, len(m.active)+len(m.cached))
	for _, model := range m.active {
		resident = append(resident, model)
	}
	for _, model := range m.cached {
		resident = append(resident, model)
	}
	m.active = make(map[string]Model)
	m.order = nil
	m.cached = make(map[string]Model)
	m.metrics.ActiveModels(0)
	m.mu.Unlock()

	for _, model := range resident {
		if err := model.Unload(ctx); err != nil {
			m.logger.Warn("unload failed", "model", model.Name(), "error", err)
		}
	}
}

// OptimizeMemory fully unloads active models idle longer than the
// configured threshold. Stricter than LRU demotion: the models leave both
// sets entirely.
func (m *Manager) OptimizeMemory(ctx context.Context) []string {
	threshold := m.resources.IdleTimeoutDuration()
	now := time.Now()

	m.mu.Lock()
	var idle []Model
	for _, name := range append([]string(nil), m.order...) {
		model := m.active[name]
		if !model.Loaded() {
			continue
		}
		if now.Sub(model.LastUsed()) > threshold {
			idle = append(idle, model)
			m.removeActiveLocked(name)
		}
	}
	m.metrics.ActiveModels(len(m.active))
	m.mu.Unlock()

	names := make([]string, 0, len(idle))
	for _, model := range idle {
		names = append(names, model.Name())
		if err := model.Unload(ctx); err != nil {
			m.logger.Warn("idle unload failed", "model", model.Name(), "error", err)
		}
	}

	if len(names) > 0 {
		m.logger.Info("memory optimized", "unloaded", names)
	}
	return names
}

func (m *Manager) Loaded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.order...)
}

func (m *Manager) Status() []Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.models))
	for name := range m.models {
		names = append(names, name)
	}
	sort.Strings(names)

	statuses := make([]Status, 0, len(names))
	for _, name := range names {
		if model, ok := m.active[name]; ok {
			statuses = append(statuses, model.Status())
			continue
		}
		if model, ok := m.cached[name]; ok {
			status := model.Status()
			status.Cached = true
			statuses = append(statuses, status)
			continue
		}
		cfg := m.models[name]
		statuses = append(statuses, Status{
			Name:   name,
			Type:   cfg.Type,
			Device: cfg.Device,
		})
	}
	return statuses
}

// evictIfFullLocked demotes the least-recently-used active model to the
// cached set when the active set is at its ceiling, returning it for
// weight unload outside the lock. Ties on last-used resolve to the
// earliest-inserted model.
func (m *Manager) evictIfFullLocked() Model {
	if len(m.active) < m.resources.MaxCacheSize {
		return nil
	}

	var victim string
	var victimTime time.Time
	first := true
	for _, name := range m.order {
		used := m.active[name].LastUsed()
		if first || used.Before(victimTime) {
			victim = name
			victimTime = used
			first = false
		}
	}

	model := m.active[victim]
	m.removeActiveLocked(victim)
	m.cached[victim] = model
	m.metrics.ModelEvicted()
	m.logger.Info("evicting model", "name", victim, "last_used", victimTime)
	return model
}

// demote unloads an evicted model's weights. The instance survives in the
// cached set for later promotion.
func (m *Manager) demote(ctx context.Context, model Model) {
	if model == nil {
		return
	}
	if err := model.Unload(ctx); err != nil {
		m.logger.Warn("eviction unload failed", "model", model.Name(), "error", err)
	}
}

func (m *Manager) insertLocked(name string, model Model) {
	m.active[name] = model
	m.order = append(m.order, name)
	m.metrics.ActiveModels(len(m.active))
}

func (m *Manager) removeActiveLocked(name string) {
	delete(m.active, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}
