// Package runs persists completed task results to postgres and exposes
// the run history query API.
package runs

import (
	"time"

	"github.com/google/uuid"
)

// Run is a persisted task execution record.
type Run struct {
	ID         uuid.UUID      `json:"id"`
	TaskName   string         `json:"task_name"`
	Status     string         `json:"status"`
	Output     string         `json:"output,omitempty"`
	Error      string         `json:"error,omitempty"`
	DurationMS int64          `json:"duration_ms"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
