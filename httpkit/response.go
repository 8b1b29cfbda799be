// Package httpkit provides standard HTTP middleware and response utilities.
package httpkit

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/seacatering/mealsvc/errors"
	"github.com/seacatering/mealsvc/logz"
)

// JSON writes a JSON success response with the given status code.
func JSON(w http.ResponseWriter, r *http.Request, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.ErrorContext(r.Context(), "httpkit: failed to encode response", "error", err)
	}
}

// JSONProblem writes an RFC 9457 Problem Details response from a ServiceError,
// attaching the request ID when one is present in the context.
func JSONProblem(w http.ResponseWriter, r *http.Request, err *errors.ServiceError) {
	errors.WriteProblem(w, r, err, logz.RequestIDFrom(r.Context()))
}
