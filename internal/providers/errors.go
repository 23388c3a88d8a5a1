// Package providers implements the HTTP clients for the external inference
// backends: an Ollama-protocol server for chat-style generation and an
// OpenAI-compatible endpoint for image generation.
package providers

import "errors"

// Provider errors returned by Client implementations.
var (
	// ErrModelUnavailable indicates the backing artifact could not be
	// fetched or loaded by the backend.
	ErrModelUnavailable = errors.New("provider: model unavailable")

	// ErrInferenceFailed indicates the backend accepted the model but
	// failed to produce a generation.
	ErrInferenceFailed = errors.New("provider: inference failed")
)
