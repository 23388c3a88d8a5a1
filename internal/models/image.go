package models

import (
	"context"
	"fmt"

	"github.com/JaimeStill/ml-agent/internal/providers"
)

// ImageModel generates images through the image generation endpoint.
type ImageModel struct {
	base
}

func (m *ImageModel) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if err := m.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	resp, err := m.client.GenerateImage(ctx, providers.ImageRequest{
		Model:  m.cfg.Model,
		Prompt: req.Prompt,
		Size:   stringParam(m.cfg.Parameters, "size"),
		Steps:  intParam(m.cfg.Parameters, "steps"),
	})
	if err != nil {
		return nil, fmt.Errorf("generate %s: %w", m.cfg.Name(), err)
	}

	m.touch()

	return &GenerateResponse{
		Image:     resp.Data,
		MediaType: resp.MediaType,
	}, nil
}

func stringParam(params map[string]any, key string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}

func intParam(params map[string]any, key string) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
