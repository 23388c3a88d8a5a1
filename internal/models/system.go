package models

import "context"

// System defines the interface for model lifecycle management.
type System interface {
	// Get returns a ready-to-use model instance. Active instances are
	// returned as-is; cached instances are promoted without
	// reconstruction; unknown names return ErrNotFound. Inserting into
	// a full active set evicts the least-recently-used model first.
	Get(ctx context.Context, name string) (Model, error)

	// Load forces a model into the active set with its weights loaded.
	Load(ctx context.Context, name string) error

	// Unload removes a model from both sets and releases its weights.
	Unload(ctx context.Context, name string) error

	// UnloadAll tears down every resident model.
	UnloadAll(ctx context.Context)

	// OptimizeMemory fully unloads models idle longer than the
	// configured threshold and returns their names.
	OptimizeMemory(ctx context.Context) []string

	// Loaded returns the names of active models in insertion order.
	Loaded() []string

	// Status returns a snapshot for every configured model.
	Status() []Status
}
