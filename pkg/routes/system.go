// Package routes provides HTTP route registration and handler building.
package routes

import (
	"log/slog"
	"net/http"
)

// System defines the interface for route registration and HTTP handler building.
type System interface {
	RegisterGroup(group Group)
	RegisterRoute(route Route)
	Build() http.Handler
	Groups() []Group
	Routes() []Route
}

type system struct {
	routes []Route
	groups []Group
	logger *slog.Logger
}

// New creates a route system with the specified logger.
func New(logger *slog.Logger) System {
	return &system{
		logger: logger,
		groups: []Group{},
		routes: []Route{},
	}
}

func (s *system) Groups() []Group {
	return s.groups
}

func (s *system) Routes() []Route {
	return s.routes
}

// RegisterRoute adds a route to the route system.
func (s *system) RegisterRoute(route Route) {
	s.routes = append(s.routes, route)
}

// RegisterGroup adds a route group to the route system.
func (s *system) RegisterGroup(group Group) {
	s.groups = append(s.groups, group)
}

// Build constructs an http.Handler from all registered routes and groups.
func (s *system) Build() http.Handler {
	mux := http.NewServeMux()

	for _, route := range s.routes {
		mux.HandleFunc(route.Method+" "+route.Pattern, route.Handler)
	}

	for _, group := range s.groups {
		s.registerGroup(mux, "", group)
	}

	return mux
}

func (s *system) registerGroup(mux *http.ServeMux, parentPrefix string, group Group) {
	fullPrefix := parentPrefix + group.Prefix
	for _, route := range group.Routes {
		pattern := fullPrefix + route.Pattern
		s.logger.Debug("registering route", "method", route.Method, "pattern", pattern)
		mux.HandleFunc(route.Method+" "+pattern, route.Handler)
	}
	for _, child := range group.Children {
		s.registerGroup(mux, fullPrefix, child)
	}
}
