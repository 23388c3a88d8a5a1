package models

import (
	"context"
	"fmt"

	"github.com/JaimeStill/ml-agent/internal/providers"
)

// MultimodalModel generates text completions over mixed text and image
// input through the chat protocol.
type MultimodalModel struct {
	base
}

func (m *MultimodalModel) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if err := m.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	resp, err := m.client.Chat(ctx, providers.ChatRequest{
		Model: m.cfg.Model,
		Messages: []providers.Message{
			{Role: "user", Content: req.Prompt, Images: req.Images},
		},
		Options: m.options(req.Options),
	})
	if err != nil {
		return nil, fmt.Errorf("generate %s: %w", m.cfg.Name(), err)
	}

	m.touch()

	return &GenerateResponse{
		Text:             resp.Content,
		PromptTokens:     resp.PromptTokens,
		CompletionTokens: resp.CompletionTokens,
	}, nil
}
