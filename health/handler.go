package health

import (
	"encoding/json"
	"net/http"
)

// Handler serves the aggregate of the given checks: 200 with
// {"status":"healthy"} when everything passes, 503 with the failing checks
// listed otherwise.
func Handler(checks map[string]Check) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		results, err := Run(r.Context(), checks)

		status, code := "healthy", http.StatusOK
		if err != nil {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(struct {
			Status string   `json:"status"`
			Checks []Result `json:"checks"`
		}{Status: status, Checks: results})
	})
}
