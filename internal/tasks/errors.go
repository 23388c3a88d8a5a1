// Package tasks owns task instances, their pending to terminal state
// machine, and the Orchestrator that executes them through a bounded
// worker pool.
package tasks

import (
	"errors"
	"net/http"
)

// Domain errors for task operations.
var (
	ErrTaskNotFound   = errors.New("task not found")
	ErrTaskRunning    = errors.New("task is already running")
	ErrNotCancellable = errors.New("task is not running")
	ErrQueueFull      = errors.New("task queue is full")
)

// MapHTTPStatus maps domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrTaskNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrTaskRunning) || errors.Is(err, ErrNotCancellable) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrQueueFull) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
