package providers

import "context"

// Options carries sampling parameters for a generation call. Zero values
// are omitted from the wire request so backend defaults apply.
type Options struct {
	Temperature float64 `json:"temperature,omitempty"`
	TopP        float64 `json:"top_p,omitempty"`
	TopK        int     `json:"top_k,omitempty"`
	MaxLength   int     `json:"max_length,omitempty"`
}

// Message is a single chat turn. Images carry base64-encoded attachments
// for multimodal models.
type Message struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

// ChatRequest describes a chat-style generation call.
type ChatRequest struct {
	Model    string
	Messages []Message
	Options  Options
}

// ChatResponse is the completed generation.
type ChatResponse struct {
	Content          string
	StopReason       string
	PromptTokens     int
	CompletionTokens int
}

// ImageRequest describes an image generation call.
type ImageRequest struct {
	Model  string
	Prompt string
	Size   string
	Steps  int
}

// ImageResponse carries the generated image bytes.
type ImageResponse struct {
	Data      []byte
	MediaType string
}

// ModelInfo describes a backend-resident model artifact.
type ModelInfo struct {
	Name              string
	SizeBytes         int64
	Format            string
	Family            string
	ParameterSize     string
	QuantizationLevel string
}

// Client is the inference backend contract the model layer depends on.
type Client interface {
	// Chat runs a chat-style completion. Multimodal inputs attach
	// base64 images to user messages.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// GenerateImage produces an image for the prompt.
	GenerateImage(ctx context.Context, req ImageRequest) (*ImageResponse, error)

	// Pull ensures the named model artifact is present on the backend.
	Pull(ctx context.Context, model string) error

	// Show returns metadata for a backend-resident model.
	Show(ctx context.Context, model string) (*ModelInfo, error)

	// Unload asks the backend to release the model's weights.
	Unload(ctx context.Context, model string) error

	// Health checks backend reachability.
	Health(ctx context.Context) error
}
