package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/edupulse/platform/pkg/access"
)

// errorResponse is the JSON body for every pipeline rejection
type errorResponse struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retry_after,omitempty"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: message})
}

func writeRateLimited(w http.ResponseWriter, retryAfter int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	json.NewEncoder(w).Encode(errorResponse{
		Error:      "rate limit exceeded",
		RetryAfter: retryAfter,
	})
}

// statusForAccessError maps access-control errors to HTTP status codes.
// The 403/404 split is deliberate: a principal must not learn whether a
// resource they cannot touch exists.
func statusForAccessError(err error) int {
	switch {
	case errors.Is(err, access.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, access.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, access.ErrDenied):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
