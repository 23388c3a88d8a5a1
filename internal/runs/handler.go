package runs

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/ml-agent/pkg/handlers"
	"github.com/JaimeStill/ml-agent/pkg/pagination"
	"github.com/JaimeStill/ml-agent/pkg/routes"
	"github.com/google/uuid"
)

type Handler struct {
	runs       System
	logger     *slog.Logger
	pagination pagination.Config
}

func NewHandler(runs System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		runs:       runs,
		logger:     logger,
		pagination: pagination,
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/runs",
		Tags:        []string{"Runs"},
		Description: "Persisted task execution history",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
		},
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)

	result, err := h.runs.List(r.Context(), page)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	run, err := h.runs.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, run)
}
