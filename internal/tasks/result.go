package tasks

import (
	"time"

	"github.com/google/uuid"
)

// Result is the immutable outcome record of a terminal task.
type Result struct {
	TaskID     uuid.UUID      `json:"task_id"`
	TaskName   string         `json:"task_name"`
	Status     Status         `json:"status"`
	Output     string         `json:"output,omitempty"`
	Error      string         `json:"error,omitempty"`
	DurationMS int64          `json:"duration_ms"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (t *Task) newResult(status Status, output string, errMsg string, metadata map[string]any) *Result {
	t.mu.Lock()
	started := t.startedAt
	t.mu.Unlock()

	var duration time.Duration
	if !started.IsZero() {
		duration = time.Since(started)
	}

	return &Result{
		TaskID:     t.id,
		TaskName:   t.cfg.Name(),
		Status:     status,
		Output:     output,
		Error:      errMsg,
		DurationMS: duration.Milliseconds(),
		Metadata:   metadata,
		CreatedAt:  time.Now(),
	}
}
