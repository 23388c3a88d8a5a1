package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/JaimeStill/ml-agent/internal/config"
)

// client talks the Ollama chat protocol for text and multimodal generation
// and an OpenAI-compatible images endpoint for image generation.
type client struct {
	baseURL      string
	imageBaseURL string
	http         *http.Client
	logger       *slog.Logger
}

// New creates a provider client from configuration.
func New(cfg *config.ProviderConfig, logger *slog.Logger) Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if !strings.HasSuffix(baseURL, "/api") {
		baseURL = baseURL + "/api"
	}

	timeout := cfg.TimeoutDuration()
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &client{
		baseURL:      baseURL,
		imageBaseURL: strings.TrimRight(cfg.ImageBaseURL, "/"),
		http:         &http.Client{Timeout: timeout},
		logger:       logger.With("system", "providers"),
	}
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Model           string  `json:"model"`
	Message         Message `json:"message"`
	Done            bool    `json:"done"`
	DoneReason      string  `json:"done_reason"`
	PromptEvalCount int     `json:"prompt_eval_count"`
	EvalCount       int     `json:"eval_count"`
	Error           string  `json:"error"`
}

func (c *client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	payload := chatRequest{
		Model:    req.Model,
		Messages: req.Messages,
		Stream:   false,
		Options:  buildOptions(req.Options),
	}

	var response chatResponse
	if err := c.post(ctx, c.baseURL+"/chat", payload, &response); err != nil {
		return nil, err
	}
	if response.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrInferenceFailed, response.Error)
	}

	stopReason := strings.TrimSpace(response.DoneReason)
	if stopReason == "" {
		stopReason = "stop"
	}

	return &ChatResponse{
		Content:          response.Message.Content,
		StopReason:       stopReason,
		PromptTokens:     response.PromptEvalCount,
		CompletionTokens: response.EvalCount,
	}, nil
}

func buildOptions(opts Options) map[string]any {
	options := make(map[string]any)
	if opts.Temperature > 0 {
		options["temperature"] = opts.Temperature
	}
	if opts.TopP > 0 {
		options["top_p"] = opts.TopP
	}
	if opts.TopK > 0 {
		options["top_k"] = opts.TopK
	}
	if opts.MaxLength > 0 {
		options["num_predict"] = opts.MaxLength
	}
	if len(options) == 0 {
		return nil
	}
	return options
}

type imagesRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size,omitempty"`
	Steps          int    `json:"steps,omitempty"`
	ResponseFormat string `json:"response_format"`
}

type imagesResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *client) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResponse, error) {
	payload := imagesRequest{
		Model:          req.Model,
		Prompt:         req.Prompt,
		N:              1,
		Size:           req.Size,
		Steps:          req.Steps,
		ResponseFormat: "b64_json",
	}

	var response imagesResponse
	if err := c.post(ctx, c.imageBaseURL+"/images/generations", payload, &response); err != nil {
		return nil, err
	}
	if response.Error != nil {
		return nil, fmt.Errorf("%w: %s", ErrInferenceFailed, response.Error.Message)
	}
	if len(response.Data) == 0 {
		return nil, fmt.Errorf("%w: empty image response", ErrInferenceFailed)
	}

	data, err := base64.StdEncoding.DecodeString(response.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("%w: decode image payload: %v", ErrInferenceFailed, err)
	}

	return &ImageResponse{Data: data, MediaType: "image/png"}, nil
}

type pullRequest struct {
	Name   string `json:"name"`
	Stream bool   `json:"stream"`
}

type pullResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

func (c *client) Pull(ctx context.Context, model string) error {
	var response pullResponse
	if err := c.post(ctx, c.baseURL+"/pull", pullRequest{Name: model, Stream: false}, &response); err != nil {
		return fmt.Errorf("%w: %s", ErrModelUnavailable, err)
	}
	if response.Error != "" {
		return fmt.Errorf("%w: %s", ErrModelUnavailable, response.Error)
	}
	return nil
}

type showRequest struct {
	Name string `json:"name"`
}

type showResponse struct {
	Details struct {
		Format            string `json:"format"`
		Family            string `json:"family"`
		ParameterSize     string `json:"parameter_size"`
		QuantizationLevel string `json:"quantization_level"`
	} `json:"details"`
	Size  int64  `json:"size"`
	Error string `json:"error"`
}

func (c *client) Show(ctx context.Context, model string) (*ModelInfo, error) {
	var response showResponse
	if err := c.post(ctx, c.baseURL+"/show", showRequest{Name: model}, &response); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrModelUnavailable, err)
	}
	if response.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrModelUnavailable, response.Error)
	}

	return &ModelInfo{
		Name:              model,
		SizeBytes:         response.Size,
		Format:            response.Details.Format,
		Family:            response.Details.Family,
		ParameterSize:     response.Details.ParameterSize,
		QuantizationLevel: response.Details.QuantizationLevel,
	}, nil
}

type unloadRequest struct {
	Model     string `json:"model"`
	KeepAlive int    `json:"keep_alive"`
}

// Unload issues a zero keep-alive generate call, which the backend treats
// as a request to release the model's weights.
func (c *client) Unload(ctx context.Context, model string) error {
	var response chatResponse
	if err := c.post(ctx, c.baseURL+"/generate", unloadRequest{Model: model, KeepAlive: 0}, &response); err != nil {
		return err
	}
	if response.Error != "" {
		return fmt.Errorf("unload %s: %s", model, response.Error)
	}
	return nil
}

func (c *client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/version", nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func (c *client) post(ctx context.Context, endpoint string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrInferenceFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: %s", ErrModelUnavailable, strings.TrimSpace(string(data)))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: %s", ErrInferenceFailed, strings.TrimSpace(string(data)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
