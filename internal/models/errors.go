// Package models owns the runtime model instances and the Manager that
// bounds how many are resident at once. Instances move between an active
// set and a cached set; eviction demotes, explicit unload destroys.
package models

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/ml-agent/internal/providers"
)

// Domain errors for model operations.
var (
	ErrNotFound = errors.New("model not found")
)

// MapHTTPStatus maps domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, providers.ErrModelUnavailable) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
