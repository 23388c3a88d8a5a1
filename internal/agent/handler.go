package agent

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JaimeStill/ml-agent/internal/tasks"
	"github.com/JaimeStill/ml-agent/pkg/handlers"
	"github.com/JaimeStill/ml-agent/pkg/routes"
)

type Handler struct {
	agent  *Agent
	logger *slog.Logger
}

func NewHandler(agent *Agent, logger *slog.Logger) *Handler {
	return &Handler{
		agent:  agent,
		logger: logger,
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "",
		Tags:        []string{"Agent"},
		Description: "Agent status and blocking generation",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/status", Handler: h.Status},
			{Method: "POST", Pattern: "/generate/text", Handler: h.GenerateText},
			{Method: "POST", Pattern: "/generate/image", Handler: h.GenerateImage},
		},
	}
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, h.agent.Status())
}

// GenerateRequest is the POST /generate/{text,image} body. Sampling
// fields override the bound model's configured defaults.
type GenerateRequest struct {
	Prompt      string  `json:"prompt"`
	Model       string  `json:"model,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	TopP        float64 `json:"top_p,omitempty"`
	TopK        int     `json:"top_k,omitempty"`
	MaxLength   int     `json:"max_length,omitempty"`
}

func (r GenerateRequest) options() GenerateOptions {
	return GenerateOptions{
		Model:       r.Model,
		Temperature: r.Temperature,
		TopP:        r.TopP,
		TopK:        r.TopK,
		MaxLength:   r.MaxLength,
	}
}

func (h *Handler) GenerateText(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	result, err := h.agent.GenerateText(r.Context(), req.Prompt, req.options())
	if err != nil {
		h.respondFailure(w, result, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]any{
		"task_id":     result.TaskID,
		"text":        result.Output,
		"duration_ms": result.DurationMS,
		"metadata":    result.Metadata,
	})
}

func (h *Handler) GenerateImage(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	result, err := h.agent.GenerateImage(r.Context(), req.Prompt, req.options())
	if err != nil {
		h.respondFailure(w, result, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]any{
		"task_id":     result.TaskID,
		"key":         result.Output,
		"duration_ms": result.DurationMS,
		"metadata":    result.Metadata,
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (GenerateRequest, bool) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return req, false
	}
	if strings.TrimSpace(req.Prompt) == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errors.New("prompt is required"))
		return req, false
	}
	return req, true
}

// respondFailure maps a finished-but-unsuccessful task to a gateway
// error and everything else to the task error mapping.
func (h *Handler) respondFailure(w http.ResponseWriter, result *tasks.Result, err error) {
	if result != nil {
		handlers.RespondError(w, h.logger, http.StatusBadGateway, err)
		return
	}
	if errors.Is(err, ErrNoTask) {
		handlers.RespondError(w, h.logger, http.StatusNotFound, err)
		return
	}
	handlers.RespondError(w, h.logger, tasks.MapHTTPStatus(err), err)
}
