package models_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/JaimeStill/ml-agent/internal/config"
	"github.com/JaimeStill/ml-agent/internal/models"
	"github.com/JaimeStill/ml-agent/internal/providers"
	"github.com/JaimeStill/ml-agent/pkg/logging"
)

// fakeClient is an in-memory providers.Client that records calls and
// allows per-artifact pull failures.
type fakeClient struct {
	mu        sync.Mutex
	pulls     map[string]int
	unloads   map[string]int
	chats     int
	pullError map[string]error
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		pulls:     map[string]int{},
		unloads:   map[string]int{},
		pullError: map[string]error{},
	}
}

func (f *fakeClient) Chat(ctx context.Context, req providers.ChatRequest) (*providers.ChatResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.chats++
	f.mu.Unlock()
	return &providers.ChatResponse{Content: "generated text", PromptTokens: 3, CompletionTokens: 5}, nil
}

func (f *fakeClient) GenerateImage(ctx context.Context, req providers.ImageRequest) (*providers.ImageResponse, error) {
	return &providers.ImageResponse{Data: []byte{0x89, 0x50, 0x4e, 0x47}, MediaType: "image/png"}, nil
}

func (f *fakeClient) Pull(ctx context.Context, model string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.pullError[model]; err != nil {
		return err
	}
	f.pulls[model]++
	return nil
}

func (f *fakeClient) Show(ctx context.Context, model string) (*providers.ModelInfo, error) {
	return &providers.ModelInfo{Name: model, SizeBytes: 1 << 30}, nil
}

func (f *fakeClient) Unload(ctx context.Context, model string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unloads[model]++
	return nil
}

func (f *fakeClient) Health(ctx context.Context) error { return nil }

func (f *fakeClient) pullCount(model string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pulls[model]
}

func (f *fakeClient) unloadCount(model string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unloads[model]
}

func testConfig(t *testing.T, names []string, maxCacheSize int) *config.Config {
	t.Helper()

	modelSet := map[string]config.ModelConfig{}
	taskSet := map[string]config.TaskConfig{}
	for _, name := range names {
		modelSet[name] = config.ModelConfig{Type: config.ModelTypeText, Model: name + "-artifact"}
	}
	taskSet["generate"] = config.TaskConfig{Type: config.TaskTypeTextGeneration, Model: names[0]}

	cfg := &config.Config{Models: modelSet, Tasks: taskSet}
	cfg.Resources.MaxCacheSize = maxCacheSize
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("config finalize failed: %v", err)
	}
	return cfg
}

func newManager(t *testing.T, names []string, maxCacheSize int) (*models.Manager, *fakeClient) {
	t.Helper()
	cfg := testConfig(t, names, maxCacheSize)
	client := newFakeClient()
	return models.NewManager(cfg.Models, &cfg.Resources, client, logging.Discard(), nil), client
}

func TestManager_Get_ReturnsStableInstance(t *testing.T) {
	mgr, client := newManager(t, []string{"a"}, 5)
	ctx := context.Background()

	first, err := mgr.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	second, err := mgr.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}

	if first != second {
		t.Error("Get() returned a different instance for the same name")
	}
	if client.pullCount("a-artifact") != 1 {
		t.Errorf("pull count = %d, want 1", client.pullCount("a-artifact"))
	}
}

func TestManager_Get_Unknown(t *testing.T) {
	mgr, _ := newManager(t, []string{"a"}, 5)

	_, err := mgr.Get(context.Background(), "nope")
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestManager_Get_EvictsLeastRecentlyUsed(t *testing.T) {
	mgr, client := newManager(t, []string{"a", "b", "c"}, 2)
	ctx := context.Background()

	for _, name := range []string{"a", "b"} {
		if _, err := mgr.Get(ctx, name); err != nil {
			t.Fatalf("Get(%s) failed: %v", name, err)
		}
		// Distinct last-used timestamps so the LRU choice is unambiguous.
		time.Sleep(5 * time.Millisecond)
	}

	if _, err := mgr.Get(ctx, "c"); err != nil {
		t.Fatalf("Get(c) failed: %v", err)
	}

	loaded := mgr.Loaded()
	if len(loaded) != 2 || loaded[0] != "b" || loaded[1] != "c" {
		t.Errorf("Loaded() = %v, want [b c]", loaded)
	}
	if client.unloadCount("a-artifact") != 1 {
		t.Errorf("evicted model was not unloaded, count = %d", client.unloadCount("a-artifact"))
	}

	for _, status := range mgr.Status() {
		if status.Name == "a" && !status.Cached {
			t.Error("evicted model should be marked cached")
		}
	}
}

func TestManager_Get_PromotesFromCache(t *testing.T) {
	mgr, client := newManager(t, []string{"a", "b", "c"}, 2)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		if _, err := mgr.Get(ctx, name); err != nil {
			t.Fatalf("Get(%s) failed: %v", name, err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	// a was evicted; promoting it back must not rebuild the instance,
	// so the artifact is not pulled a second time until generation.
	if _, err := mgr.Get(ctx, "a"); err != nil {
		t.Fatalf("Get(a) after eviction failed: %v", err)
	}

	loaded := mgr.Loaded()
	if len(loaded) != 2 || loaded[1] != "a" {
		t.Errorf("Loaded() = %v, want promoted model last", loaded)
	}
	if client.pullCount("a-artifact") != 1 {
		t.Errorf("pull count after promotion = %d, want 1", client.pullCount("a-artifact"))
	}
}

func TestManager_Get_FailedLoadLeavesNothingBehind(t *testing.T) {
	mgr, client := newManager(t, []string{"bad"}, 5)
	client.pullError["bad-artifact"] = fmt.Errorf("registry unreachable")

	_, err := mgr.Get(context.Background(), "bad")
	if err == nil {
		t.Fatal("Get() should fail when the backend pull fails")
	}

	if loaded := mgr.Loaded(); len(loaded) != 0 {
		t.Errorf("Loaded() = %v, want empty after failed load", loaded)
	}
}

func TestManager_Unload(t *testing.T) {
	mgr, client := newManager(t, []string{"a"}, 5)
	ctx := context.Background()

	if _, err := mgr.Get(ctx, "a"); err != nil {
		t.Fatalf("Get() failed: %v", err)
	}

	if err := mgr.Unload(ctx, "a"); err != nil {
		t.Fatalf("Unload() failed: %v", err)
	}
	if loaded := mgr.Loaded(); len(loaded) != 0 {
		t.Errorf("Loaded() = %v, want empty", loaded)
	}
	if client.unloadCount("a-artifact") != 1 {
		t.Errorf("unload count = %d, want 1", client.unloadCount("a-artifact"))
	}

	if err := mgr.Unload(ctx, "nope"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Unload(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestManager_UnloadAll(t *testing.T) {
	mgr, _ := newManager(t, []string{"a", "b"}, 5)
	ctx := context.Background()

	for _, name := range []string{"a", "b"} {
		if _, err := mgr.Get(ctx, name); err != nil {
			t.Fatalf("Get(%s) failed: %v", name, err)
		}
	}

	mgr.UnloadAll(ctx)

	if loaded := mgr.Loaded(); len(loaded) != 0 {
		t.Errorf("Loaded() = %v, want empty", loaded)
	}
	for _, status := range mgr.Status() {
		if status.Loaded || status.Cached {
			t.Errorf("model %s still resident after UnloadAll", status.Name)
		}
	}
}

func TestManager_OptimizeMemory(t *testing.T) {
	cfg := testConfig(t, []string{"a"}, 5)
	cfg.Resources.IdleTimeout = "1ms"
	client := newFakeClient()
	mgr := models.NewManager(cfg.Models, &cfg.Resources, client, logging.Discard(), nil)
	ctx := context.Background()

	if _, err := mgr.Get(ctx, "a"); err != nil {
		t.Fatalf("Get() failed: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	unloaded := mgr.OptimizeMemory(ctx)
	if len(unloaded) != 1 || unloaded[0] != "a" {
		t.Errorf("OptimizeMemory() = %v, want [a]", unloaded)
	}
	if loaded := mgr.Loaded(); len(loaded) != 0 {
		t.Errorf("Loaded() = %v, want empty", loaded)
	}
}

func TestManager_OptimizeMemory_KeepsRecentlyUsed(t *testing.T) {
	cfg := testConfig(t, []string{"a"}, 5)
	cfg.Resources.IdleTimeout = "1h"
	client := newFakeClient()
	mgr := models.NewManager(cfg.Models, &cfg.Resources, client, logging.Discard(), nil)
	ctx := context.Background()

	if _, err := mgr.Get(ctx, "a"); err != nil {
		t.Fatalf("Get() failed: %v", err)
	}

	if unloaded := mgr.OptimizeMemory(ctx); len(unloaded) != 0 {
		t.Errorf("OptimizeMemory() = %v, want empty", unloaded)
	}
	if loaded := mgr.Loaded(); len(loaded) != 1 {
		t.Errorf("Loaded() = %v, want [a]", loaded)
	}
}

func TestModel_GenerateMergesOptions(t *testing.T) {
	mgr, client := newManager(t, []string{"a"}, 5)
	ctx := context.Background()

	model, err := mgr.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}

	resp, err := model.Generate(ctx, models.GenerateRequest{Prompt: "hello"})
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}
	if resp.Text != "generated text" {
		t.Errorf("Generate() text = %q", resp.Text)
	}
	if client.chats != 1 {
		t.Errorf("chat count = %d, want 1", client.chats)
	}
	if model.LastUsed().IsZero() {
		t.Error("LastUsed() should be set after generation")
	}
}
