package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/JaimeStill/ml-agent/internal/models"
)

// imageGeneration runs a prompt through an image model and stores the
// generated artifact, returning its storage key as the task output.
type imageGeneration struct{}

func (g *imageGeneration) Validate(input map[string]any) error {
	prompt, ok := input["prompt"].(string)
	if !ok || strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("non-empty prompt required")
	}
	return nil
}

func (g *imageGeneration) Run(ctx context.Context, rt *Runtime, t *Task) (string, map[string]any, error) {
	prompt := t.input["prompt"].(string)

	model, err := rt.Models.Get(ctx, t.cfg.Model)
	if err != nil {
		return "", nil, err
	}

	resp, err := model.Generate(ctx, models.GenerateRequest{Prompt: prompt})
	if err != nil {
		return "", nil, err
	}

	key := fmt.Sprintf("images/%s.png", t.id)
	if err := rt.Storage.Store(ctx, key, resp.Image); err != nil {
		return "", nil, fmt.Errorf("store artifact: %w", err)
	}

	metadata := map[string]any{
		"model_name": t.cfg.Model,
		"media_type": resp.MediaType,
		"size_bytes": len(resp.Image),
	}
	return key, metadata, nil
}
