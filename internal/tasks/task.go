package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/JaimeStill/ml-agent/internal/config"
	"github.com/google/uuid"
)

// Status is a task's lifecycle state. Transitions are strictly one-way:
// pending to running to exactly one terminal state.
type Status string

// Task status constants.
const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status is an end state.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Task is one tracked invocation of a configured task definition.
type Task struct {
	id     uuid.UUID
	cfg    config.TaskConfig
	input  map[string]any
	runner runner

	createdAt time.Time
	done      chan struct{}

	mu              sync.Mutex
	status          Status
	startedAt       time.Time
	endedAt         time.Time
	result          *Result
	cancel          context.CancelFunc
	cancelRequested bool
}

func newTask(cfg config.TaskConfig, input map[string]any, r runner) *Task {
	return &Task{
		id:        uuid.New(),
		cfg:       cfg,
		input:     input,
		runner:    r,
		createdAt: time.Now(),
		done:      make(chan struct{}),
		status:    StatusPending,
	}
}

func (t *Task) ID() uuid.UUID         { return t.id }
func (t *Task) Name() string          { return t.cfg.Name() }
func (t *Task) Type() config.TaskType { return t.cfg.Type }

func (t *Task) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Done returns the channel closed when the task reaches a terminal state.
// Waiters select on it instead of polling.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Result returns the terminal result, or nil while the task is live.
func (t *Task) Result() *Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result
}

// Progress reports completion in [0, 1]. A running task scales elapsed
// time against its configured timeout, capped below 1 until it actually
// finishes.
func (t *Task) Progress() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.status {
	case StatusPending:
		return 0.0
	case StatusCompleted:
		return 1.0
	case StatusRunning:
		timeout := t.cfg.TimeoutDuration()
		if timeout <= 0 {
			return 0.5
		}
		progress := time.Since(t.startedAt).Seconds() / timeout.Seconds()
		if progress > 0.9 {
			progress = 0.9
		}
		return progress
	default:
		return 0.0
	}
}

// claim transitions pending to running. Exactly one caller wins; the
// worker pool and the direct execution path race through this.
func (t *Task) claim() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status != StatusPending {
		return false
	}
	t.status = StatusRunning
	t.startedAt = time.Now()
	return true
}

func (t *Task) setCancel(cancel context.CancelFunc) {
	t.mu.Lock()
	t.cancel = cancel
	t.mu.Unlock()
}

// requestCancel cancels the task's execution context so in-flight backend
// calls are interrupted. Only running tasks are cancellable.
func (t *Task) requestCancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status != StatusRunning || t.cancel == nil {
		return false
	}
	t.cancelRequested = true
	t.cancel()
	return true
}

func (t *Task) wasCancelRequested() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelRequested
}

// finish records the terminal result and signals waiters. Idempotent
// against double finalization.
func (t *Task) finish(result *Result) {
	t.mu.Lock()
	if t.status.Terminal() {
		t.mu.Unlock()
		return
	}
	t.status = result.Status
	t.endedAt = time.Now()
	t.result = result
	t.mu.Unlock()

	close(t.done)
}

// View is the externally visible snapshot of a task.
type View struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Type      config.TaskType `json:"type"`
	Status    Status          `json:"status"`
	Progress  float64         `json:"progress"`
	CreatedAt time.Time       `json:"created_at"`
	StartedAt *time.Time      `json:"started_at,omitempty"`
	EndedAt   *time.Time      `json:"ended_at,omitempty"`
	Result    *Result         `json:"result,omitempty"`
}

// Snapshot captures the task's current state for API responses.
func (t *Task) Snapshot() View {
	progress := t.Progress()

	t.mu.Lock()
	defer t.mu.Unlock()

	view := View{
		ID:        t.id,
		Name:      t.cfg.Name(),
		Type:      t.cfg.Type,
		Status:    t.status,
		Progress:  progress,
		CreatedAt: t.createdAt,
		Result:    t.result,
	}
	if !t.startedAt.IsZero() {
		started := t.startedAt
		view.StartedAt = &started
	}
	if !t.endedAt.IsZero() {
		ended := t.endedAt
		view.EndedAt = &ended
	}
	return view
}
