package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/ml-agent/internal/config"
	"github.com/JaimeStill/ml-agent/internal/models"
	"github.com/JaimeStill/ml-agent/internal/storage"
)

// Runtime carries the shared systems task runners execute against.
type Runtime struct {
	Models  models.System
	Storage storage.System
	Logger  *slog.Logger
}

// runner is the typed behavior behind a task definition: input validation
// and the actual model invocation.
type runner interface {
	// Validate checks presence and shape of required input keys. A
	// validation failure becomes a failed result, never a panic or an
	// uncaught error at the orchestrator boundary.
	Validate(input map[string]any) error

	// Run performs the work and returns the output payload (text or a
	// stored artifact key) plus result metadata.
	Run(ctx context.Context, rt *Runtime, t *Task) (string, map[string]any, error)
}

// newRunner maps a task type tag to its runner. The tag set is closed and
// validated at configuration load; unknown tags error here anyway.
func newRunner(taskType config.TaskType) (runner, error) {
	switch taskType {
	case config.TaskTypeTextGeneration:
		return &textGeneration{}, nil
	case config.TaskTypeImageGeneration:
		return &imageGeneration{}, nil
	case config.TaskTypeClassification:
		return &classification{}, nil
	default:
		return nil, fmt.Errorf("unknown task type: %s", taskType)
	}
}
