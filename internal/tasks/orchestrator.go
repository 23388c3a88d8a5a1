package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/JaimeStill/ml-agent/internal/config"
	"github.com/JaimeStill/ml-agent/internal/metrics"
	"github.com/google/uuid"
)

// Recorder persists terminal task results. Recording is best-effort; a
// recorder failure never fails the task.
type Recorder interface {
	Record(ctx context.Context, result *Result) error
}

// QueueStatus reports orchestrator occupancy.
type QueueStatus struct {
	Queued        int `json:"queued"`
	Running       int `json:"running"`
	Completed     int `json:"completed"`
	Failed        int `json:"failed"`
	Total         int `json:"total"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Orchestrator owns task creation, the bounded worker pool, and the
// terminal result buckets. Every execution path, queued or direct, runs
// the same task claim and finalize sequence.
type Orchestrator struct {
	definitions map[string]config.TaskConfig
	rt          *Runtime
	logger      *slog.Logger
	metrics     *metrics.Metrics
	recorder    Recorder
	workers     int

	baseCtx context.Context
	queue   chan *Task
	wg      sync.WaitGroup

	mu        sync.Mutex
	registry  map[uuid.UUID]*Task
	running   map[uuid.UUID]*Task
	completed map[uuid.UUID]*Task
	failed    map[uuid.UUID]*Task
	queued    int
}

// NewOrchestrator creates an orchestrator over the configured task
// definitions. The recorder and metrics may be nil.
func NewOrchestrator(
	definitions map[string]config.TaskConfig,
	rt *Runtime,
	workers int,
	logger *slog.Logger,
	m *metrics.Metrics,
	recorder Recorder,
) *Orchestrator {
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{
		definitions: definitions,
		rt:          rt,
		logger:      logger.With("system", "tasks"),
		metrics:     m,
		recorder:    recorder,
		workers:     workers,
		queue:       make(chan *Task, 128),
		registry:    make(map[uuid.UUID]*Task),
		running:     make(map[uuid.UUID]*Task),
		completed:   make(map[uuid.UUID]*Task),
		failed:      make(map[uuid.UUID]*Task),
	}
}

// Start launches the worker pool bound to ctx. Workers drain the queue
// until the context is cancelled.
func (o *Orchestrator) Start(ctx context.Context) {
	o.baseCtx = ctx

	for i := 0; i < o.workers; i++ {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case task := <-o.queue:
					o.dequeue()
					o.run(ctx, task)
				}
			}
		}()
	}

	o.logger.Info("worker pool started", "workers", o.workers)
}

// Stop waits for in-flight workers to finish within the timeout. The
// context passed to Start must already be cancelled.
func (o *Orchestrator) Stop(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("worker pool drain timed out after %s", timeout)
	}
}

// Definitions returns the configured task definitions.
func (o *Orchestrator) Definitions() map[string]config.TaskConfig {
	return o.definitions
}

// Create instantiates a task for the named definition and registers it.
// An unknown name errors before any task object is constructed.
func (o *Orchestrator) Create(name string, input map[string]any) (uuid.UUID, error) {
	cfg, ok := o.definitions[name]
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: %s", ErrTaskNotFound, name)
	}

	r, err := newRunner(cfg.Type)
	if err != nil {
		return uuid.Nil, err
	}

	if input == nil {
		input = map[string]any{}
	}
	task := newTask(cfg, input, r)

	o.mu.Lock()
	o.registry[task.id] = task
	o.mu.Unlock()

	o.logger.Debug("task created", "id", task.id, "name", name)
	return task.id, nil
}

// Submit enqueues a pending task for the worker pool.
func (o *Orchestrator) Submit(id uuid.UUID) error {
	task, err := o.find(id)
	if err != nil {
		return err
	}
	if task.Status() != StatusPending {
		return fmt.Errorf("%w: %s", ErrTaskRunning, id)
	}

	select {
	case o.queue <- task:
		o.mu.Lock()
		o.queued++
		o.mu.Unlock()
		return nil
	default:
		return ErrQueueFull
	}
}

// Execute runs a task to completion on the calling goroutine. Terminal
// tasks return their stored result without recomputation; running tasks
// error rather than re-enter.
func (o *Orchestrator) Execute(ctx context.Context, id uuid.UUID) (*Result, error) {
	task, err := o.find(id)
	if err != nil {
		return nil, err
	}

	if result := task.Result(); result != nil {
		return result, nil
	}
	if task.Status() == StatusRunning {
		return nil, fmt.Errorf("%w: %s", ErrTaskRunning, id)
	}

	o.run(ctx, task)

	if result := task.Result(); result != nil {
		return result, nil
	}
	// A concurrent path claimed the task first.
	return nil, fmt.Errorf("%w: %s", ErrTaskRunning, id)
}

// Wait blocks until the task reaches a terminal state or ctx expires.
func (o *Orchestrator) Wait(ctx context.Context, id uuid.UUID) (*Result, error) {
	task, err := o.find(id)
	if err != nil {
		return nil, err
	}

	select {
	case <-task.Done():
		return task.Result(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Find returns a snapshot of the task.
func (o *Orchestrator) Find(id uuid.UUID) (*View, error) {
	task, err := o.find(id)
	if err != nil {
		return nil, err
	}
	view := task.Snapshot()
	return &view, nil
}

// Cancel interrupts a running task. The cancellation propagates through
// the task's execution context into the in-flight backend call. Tasks not
// currently running are not cancellable.
func (o *Orchestrator) Cancel(id uuid.UUID) (bool, error) {
	task, err := o.find(id)
	if err != nil {
		return false, err
	}
	return task.requestCancel(), nil
}

// ClearCompleted purges completed (and cancelled) tasks whose end time is
// older than maxAge from the bucket and the registry. A nil maxAge purges
// unconditionally. Failed tasks are retained.
func (o *Orchestrator) ClearCompleted(maxAge *time.Duration) int {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := time.Now()
	cleared := 0
	for id, task := range o.completed {
		if maxAge != nil {
			task.mu.Lock()
			ended := task.endedAt
			task.mu.Unlock()
			if now.Sub(ended) < *maxAge {
				continue
			}
		}
		delete(o.completed, id)
		delete(o.registry, id)
		cleared++
	}

	if cleared > 0 {
		o.logger.Info("cleared completed tasks", "count", cleared)
	}
	return cleared
}

// QueueStatus reports queued/running/terminal counts and the pool ceiling.
func (o *Orchestrator) QueueStatus() QueueStatus {
	o.mu.Lock()
	defer o.mu.Unlock()

	return QueueStatus{
		Queued:        o.queued,
		Running:       len(o.running),
		Completed:     len(o.completed),
		Failed:        len(o.failed),
		Total:         len(o.registry),
		MaxConcurrent: o.workers,
	}
}

func (o *Orchestrator) find(id uuid.UUID) (*Task, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	task, ok := o.registry[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return task, nil
}

func (o *Orchestrator) dequeue() {
	o.mu.Lock()
	if o.queued > 0 {
		o.queued--
	}
	o.mu.Unlock()
}

// run claims the task, executes it, and finalizes the outcome. It never
// returns an error: every failure mode lands in a terminal result.
func (o *Orchestrator) run(ctx context.Context, task *Task) {
	if !task.claim() {
		return
	}

	o.mu.Lock()
	o.running[task.id] = task
	o.mu.Unlock()
	o.metrics.TaskStarted()

	o.logger.Info("task started", "id", task.id, "name", task.Name())

	result := o.execute(ctx, task)
	o.finalize(task, result)
}

func (o *Orchestrator) execute(ctx context.Context, task *Task) *Result {
	var execCtx context.Context
	var cancel context.CancelFunc
	if timeout := task.cfg.TimeoutDuration(); timeout > 0 {
		execCtx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		execCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()
	task.setCancel(cancel)

	if err := task.runner.Validate(task.input); err != nil {
		return task.newResult(StatusFailed, "", err.Error(), nil)
	}

	output, metadata, err := task.runner.Run(execCtx, o.rt, task)
	if err != nil {
		if task.wasCancelRequested() {
			return task.newResult(StatusCancelled, "", "task cancelled", metadata)
		}
		if execCtx.Err() == context.DeadlineExceeded {
			return task.newResult(StatusFailed, "", "task timed out", metadata)
		}
		return task.newResult(StatusFailed, "", err.Error(), metadata)
	}

	return task.newResult(StatusCompleted, output, "", metadata)
}

func (o *Orchestrator) finalize(task *Task, result *Result) {
	task.finish(result)

	o.mu.Lock()
	delete(o.running, task.id)
	if result.Status == StatusFailed {
		o.failed[task.id] = task
	} else {
		o.completed[task.id] = task
	}
	o.mu.Unlock()

	o.metrics.TaskStopped()
	o.metrics.TaskFinished(string(task.Type()), string(result.Status), time.Duration(result.DurationMS)*time.Millisecond)

	o.logger.Info("task finished",
		"id", task.id,
		"name", task.Name(),
		"status", result.Status,
		"duration_ms", result.DurationMS,
	)

	if o.recorder != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := o.recorder.Record(ctx, result); err != nil {
			o.logger.Warn("run record failed", "id", task.id, "error", err)
		}
	}
}
