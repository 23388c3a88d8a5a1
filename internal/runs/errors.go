package runs

import (
	"errors"
	"net/http"
)

// ErrNotFound indicates the requested run does not exist.
var ErrNotFound = errors.New("run not found")

// MapHTTPStatus translates run errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
