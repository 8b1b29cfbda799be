package guard

import (
	"net/http"

	"github.com/seacatering/mealsvc/errors"
)

// MaxBody returns middleware that rejects requests with a body exceeding
// maxBytes with 413 Payload Too Large. Bodies with an unknown length are
// capped with http.MaxBytesReader so a later read fails instead.
func MaxBody(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				writeProblem(w, r, errors.PayloadTooLargeError("request body too large"))
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
