package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/JaimeStill/ml-agent/internal/models"
)

// classification labels text or image input by prompting the bound model
// for a single category answer.
type classification struct{}

func (g *classification) Validate(input map[string]any) error {
	text, hasText := input["text"].(string)
	image, hasImage := input["image"].(string)

	if (!hasText || strings.TrimSpace(text) == "") && (!hasImage || image == "") {
		return fmt.Errorf("either text or image input required")
	}
	return nil
}

func (g *classification) Run(ctx context.Context, rt *Runtime, t *Task) (string, map[string]any, error) {
	model, err := rt.Models.Get(ctx, t.cfg.Model)
	if err != nil {
		return "", nil, err
	}

	labels := labelList(t.input)
	req := models.GenerateRequest{
		Prompt: buildClassifyPrompt(t.input, labels),
	}
	if image, ok := t.input["image"].(string); ok && image != "" {
		req.Images = []string{image}
	}

	resp, err := model.Generate(ctx, req)
	if err != nil {
		return "", nil, err
	}

	label := parseLabel(resp.Text, labels)

	metadata := map[string]any{
		"model_name": t.cfg.Model,
		"labels":     labels,
		"raw_output": resp.Text,
	}
	return label, metadata, nil
}

func buildClassifyPrompt(input map[string]any, labels []string) string {
	var b strings.Builder
	b.WriteString("Classify the following input")
	if len(labels) > 0 {
		b.WriteString(" into exactly one of these categories: ")
		b.WriteString(strings.Join(labels, ", "))
	}
	b.WriteString(". Respond with only the category name.\n\n")
	if text, ok := input["text"].(string); ok && text != "" {
		b.WriteString(text)
	}
	return b.String()
}

func labelList(input map[string]any) []string {
	raw, ok := input["labels"].([]any)
	if !ok {
		return nil
	}
	labels := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			labels = append(labels, s)
		}
	}
	return labels
}

// parseLabel normalizes the model's answer to a known label when a label
// set was supplied, otherwise returns the trimmed answer verbatim.
func parseLabel(output string, labels []string) string {
	answer := strings.TrimSpace(output)
	if len(labels) == 0 {
		return answer
	}

	lowered := strings.ToLower(answer)
	for _, label := range labels {
		if strings.Contains(lowered, strings.ToLower(label)) {
			return label
		}
	}
	return answer
}
