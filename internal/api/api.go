// Package api assembles the domain systems into the service HTTP surface.
package api

import (
	"net/http"

	"github.com/JaimeStill/ml-agent/internal/config"
	"github.com/JaimeStill/ml-agent/internal/infrastructure"
	"github.com/JaimeStill/ml-agent/pkg/middleware"
	"github.com/JaimeStill/ml-agent/pkg/routes"
)

// New builds the domain systems and returns the composed HTTP handler
// alongside the domain for lifecycle wiring.
func New(cfg *config.Config, infra *infrastructure.Infrastructure) (http.Handler, *Domain) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(cfg, runtime)

	r := routes.New(runtime.Logger)
	registerRoutes(r, runtime, domain, cfg)

	handler := middleware.Chain(
		r.Build(),
		middleware.TrimSlash(),
		middleware.Logger(runtime.Logger),
		middleware.CORS(&cfg.CORS),
	)

	return handler, domain
}
