package runs

import (
	"context"

	"github.com/JaimeStill/ml-agent/internal/tasks"
	"github.com/JaimeStill/ml-agent/pkg/pagination"
	"github.com/google/uuid"
)

// System defines run history operations. It satisfies tasks.Recorder so
// the orchestrator can persist results without importing this package.
type System interface {
	tasks.Recorder

	// List returns a page of runs ordered newest first. Search matches
	// against the task name.
	List(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[Run], error)

	// Find returns a run by id. Returns ErrNotFound if no row exists.
	Find(ctx context.Context, id uuid.UUID) (*Run, error)
}
