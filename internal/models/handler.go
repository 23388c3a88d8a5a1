package models

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/ml-agent/pkg/handlers"
	"github.com/JaimeStill/ml-agent/pkg/routes"
)

type Handler struct {
	sys    System
	logger *slog.Logger
}

func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger,
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/models",
		Tags:        []string{"Models"},
		Description: "Model residency and status",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{name}", Handler: h.Find},
			{Method: "POST", Pattern: "/{name}/load", Handler: h.Load},
			{Method: "POST", Pattern: "/{name}/unload", Handler: h.Unload},
		},
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, map[string]any{
		"models": h.sys.Status(),
		"loaded": h.sys.Loaded(),
	})
}

func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	for _, status := range h.sys.Status() {
		if status.Name == name {
			handlers.RespondJSON(w, http.StatusOK, status)
			return
		}
	}

	handlers.RespondError(w, h.logger, http.StatusNotFound, fmt.Errorf("%w: %s", ErrNotFound, name))
}

func (h *Handler) Load(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	if err := h.sys.Load(r.Context(), name); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondMessage(w, http.StatusOK, fmt.Sprintf("model %s loaded", name))
}

func (h *Handler) Unload(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	if err := h.sys.Unload(r.Context(), name); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondMessage(w, http.StatusOK, fmt.Sprintf("model %s unloaded", name))
}
