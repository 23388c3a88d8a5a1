package tasks

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"

	"github.com/JaimeStill/ml-agent/pkg/handlers"
	"github.com/JaimeStill/ml-agent/pkg/routes"
	"github.com/google/uuid"
)

type Handler struct {
	orch   *Orchestrator
	logger *slog.Logger
}

func NewHandler(orch *Orchestrator, logger *slog.Logger) *Handler {
	return &Handler{
		orch:   orch,
		logger: logger,
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/tasks",
		Tags:        []string{"Tasks"},
		Description: "Task creation, status, and cancellation",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "POST", Pattern: "", Handler: h.Create},
			{Method: "GET", Pattern: "/queue", Handler: h.Queue},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Cancel},
		},
	}
}

// Definition is the externally visible shape of a configured task.
type Definition struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Model   string `json:"model"`
	Timeout string `json:"timeout"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	definitions := h.orch.Definitions()

	names := make([]string, 0, len(definitions))
	for name := range definitions {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]Definition, 0, len(names))
	for _, name := range names {
		cfg := definitions[name]
		result = append(result, Definition{
			Name:    name,
			Type:    string(cfg.Type),
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]any{"tasks": result})
}

// CreateTaskRequest is the POST /tasks body.
type CreateTaskRequest struct {
	Task  string         `json:"task"`
	Input map[string]any `json:"input"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	id, err := h.orch.Create(req.Task, req.Input)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	if err := h.orch.Submit(id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusAccepted, map[string]any{"task_id": id})
}

func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	view, err := h.orch.Find(id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, view)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	cancelled, err := h.orch.Cancel(id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	if !cancelled {
		handlers.RespondError(w, h.logger, http.StatusConflict, ErrNotCancellable)
		return
	}

	handlers.RespondMessage(w, http.StatusOK, "task cancelled")
}

func (h *Handler) Queue(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, h.orch.QueueStatus())
}
