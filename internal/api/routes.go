package api

import (
	"net/http"

	"github.com/JaimeStill/ml-agent/internal/agent"
	"github.com/JaimeStill/ml-agent/internal/config"
	"github.com/JaimeStill/ml-agent/internal/lifecycle"
	"github.com/JaimeStill/ml-agent/internal/models"
	"github.com/JaimeStill/ml-agent/internal/runs"
	"github.com/JaimeStill/ml-agent/internal/storage"
	"github.com/JaimeStill/ml-agent/internal/tasks"
	"github.com/JaimeStill/ml-agent/pkg/routes"
)

// registerRoutes configures all HTTP routes for the service.
func registerRoutes(r routes.System, runtime *Runtime, domain *Domain, cfg *config.Config) {
	group := routes.Group{
		Prefix: "/api",
		Children: []routes.Group{
			agent.NewHandler(domain.Agent, runtime.Logger).Routes(),
			models.NewHandler(domain.Models, runtime.Logger).Routes(),
			tasks.NewHandler(domain.Orchestrator, runtime.Logger).Routes(),
			storage.NewHandler(runtime.Storage, runtime.Logger).Routes(),
		},
	}

	if domain.Runs != nil {
		group.Children = append(group.Children,
			runs.NewHandler(domain.Runs, runtime.Logger, runtime.Pagination).Routes())
	}

	r.RegisterGroup(group)

	r.RegisterRoute(routes.Route{
		Method:  "GET",
		Pattern: "/healthz",
		Handler: handleHealthCheck,
	})

	r.RegisterRoute(routes.Route{
		Method:  "GET",
		Pattern: "/readyz",
		Handler: func(w http.ResponseWriter, req *http.Request) {
			handleReadinessCheck(w, runtime.Lifecycle)
		},
	})

	if runtime.Metrics != nil {
		r.RegisterRoute(routes.Route{
			Method:  "GET",
			Pattern: cfg.Metrics.Path,
			Handler: runtime.Metrics.Handler().ServeHTTP,
		})
	}
}

// handleHealthCheck responds with OK status for health monitoring.
func handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func handleReadinessCheck(w http.ResponseWriter, ready lifecycle.ReadinessChecker) {
	if !ready.Ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("NOT READY"))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("READY"))
}
