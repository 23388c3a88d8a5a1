package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/JaimeStill/ml-agent/internal/models"
	"github.com/JaimeStill/ml-agent/internal/providers"
	"github.com/JaimeStill/ml-agent/pkg/decode"
)

// textGeneration runs a prompt through a text or multimodal model.
type textGeneration struct{}

func (g *textGeneration) Validate(input map[string]any) error {
	prompt, ok := input["prompt"].(string)
	if !ok || strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("non-empty prompt required")
	}
	return nil
}

func (g *textGeneration) Run(ctx context.Context, rt *Runtime, t *Task) (string, map[string]any, error) {
	prompt := t.input["prompt"].(string)

	opts, err := decode.FromMap[providers.Options](t.input)
	if err != nil {
		return "", nil, fmt.Errorf("decode sampling options: %w", err)
	}

	model, err := rt.Models.Get(ctx, t.cfg.Model)
	if err != nil {
		return "", nil, err
	}

	resp, err := model.Generate(ctx, models.GenerateRequest{
		Prompt:  prompt,
		Options: opts,
	})
	if err != nil {
		return "", nil, err
	}

	metadata := map[string]any{
		"model_name":        t.cfg.Model,
		"prompt_length":     len(prompt),
		"output_length":     len(resp.Text),
		"prompt_tokens":     resp.PromptTokens,
		"completion_tokens": resp.CompletionTokens,
	}
	return resp.Text, metadata, nil
}
