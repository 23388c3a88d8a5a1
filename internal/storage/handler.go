package storage

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/ml-agent/pkg/handlers"
	"github.com/JaimeStill/ml-agent/pkg/routes"
)

type Handler struct {
	storage System
	logger  *slog.Logger
}

func NewHandler(storage System, logger *slog.Logger) *Handler {
	return &Handler{
		storage: storage,
		logger:  logger,
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/files",
		Tags:        []string{"Files"},
		Description: "Stored artifact retrieval",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{key...}", Handler: h.Retrieve},
			{Method: "DELETE", Pattern: "/{key...}", Handler: h.Delete},
		},
	}
}

func (h *Handler) Retrieve(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	data, err := h.storage.Retrieve(r.Context(), key)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondBytes(w, http.StatusOK, http.DetectContentType(data), data)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	if err := h.storage.Delete(r.Context(), key); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondMessage(w, http.StatusOK, "artifact deleted")
}
