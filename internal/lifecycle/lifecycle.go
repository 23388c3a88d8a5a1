// Package lifecycle coordinates subsystem startup and shutdown.
// Subsystems register startup hooks executed by WaitForStartup and shutdown
// hooks that block on the coordinator context until shutdown begins.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// ReadinessChecker reports whether startup has completed.
type ReadinessChecker interface {
	Ready() bool
}

// Coordinator manages startup and shutdown hooks for subsystems.
type Coordinator struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	startup []func()

	shutdown sync.WaitGroup
	ready    atomic.Bool
}

// New creates a coordinator with a live context.
func New() *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		ctx:    ctx,
		cancel: cancel,
	}
}

// Context returns the coordinator context. It is cancelled when Shutdown
// begins, which is the signal shutdown hooks block on.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// OnStartup registers a function to run during WaitForStartup.
func (c *Coordinator) OnStartup(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startup = append(c.startup, fn)
}

// OnShutdown registers a shutdown hook. The hook runs on its own goroutine
// and should block on Context().Done() before performing teardown; Shutdown
// waits for all hooks to return.
func (c *Coordinator) OnShutdown(fn func()) {
	c.shutdown.Add(1)
	go func() {
		defer c.shutdown.Done()
		fn()
	}()
}

// WaitForStartup runs all registered startup functions and marks the
// coordinator ready.
func (c *Coordinator) WaitForStartup() {
	c.mu.Lock()
	fns := make([]func(), len(c.startup))
	copy(fns, c.startup)
	c.mu.Unlock()

	for _, fn := range fns {
		fn()
	}

	c.ready.Store(true)
}

// Ready reports whether startup has completed.
func (c *Coordinator) Ready() bool {
	return c.ready.Load()
}

// Shutdown cancels the coordinator context and waits for all shutdown hooks
// to complete within the timeout.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.cancel()

	done := make(chan struct{})
	go func() {
		c.shutdown.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("shutdown timed out after %s", timeout)
	}
}
