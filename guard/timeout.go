package guard

import (
	"context"
	"net/http"
	"time"
)

// Timeout caps how long a request's context may live. The validation
// pipeline itself is synchronous and fast; the deadline bounds the store
// calls behind it. A tighter deadline already present on the request is
// left alone.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, has := r.Context().Deadline(); has {
				next.ServeHTTP(w, r)
				return
			}
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
