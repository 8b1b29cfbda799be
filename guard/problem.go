// Package guard provides HTTP middleware protecting the API surface:
// rate limiting, security headers, body size caps, request timeouts,
// CORS, and IP filtering. All rejections are written as RFC 9457
// Problem Details.
package guard

import (
	"net/http"

	"github.com/seacatering/mealsvc/errors"
	"github.com/seacatering/mealsvc/logz"
)

// writeProblem is the shared rejection writer used by all guard middleware.
func writeProblem(w http.ResponseWriter, r *http.Request, svcErr *errors.ServiceError) {
	errors.WriteProblem(w, r, svcErr, logz.RequestIDFrom(r.Context()))
}
