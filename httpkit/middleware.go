package httpkit

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/seacatering/mealsvc/errors"
	"github.com/seacatering/mealsvc/logz"
	"github.com/seacatering/mealsvc/metrics"
)

// RequestID stamps every request with a fresh UUID, exposed both as the
// X-Request-ID response header and through the context for the logz handler.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(logz.WithRequestID(r.Context(), id)))
	})
}

// responseWriter records the status code written downstream.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// observe runs next while capturing the response status and elapsed time.
func observe(next http.Handler, w http.ResponseWriter, r *http.Request) (status int, elapsed time.Duration) {
	start := time.Now()
	rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
	next.ServeHTTP(rw, r)
	return rw.statusCode, time.Since(start)
}

// Logging returns middleware writing one line per completed request with
// method, path, status, and duration. The request ID rides the context.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			status, elapsed := observe(next, w, r)
			logger.LogAttrs(r.Context(), slog.LevelInfo, "request completed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Duration("duration", elapsed),
			)
		})
	}
}

// Metrics returns middleware feeding request totals and durations into rec.
// A nil recorder yields a pass-through.
func Metrics(rec *metrics.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rec == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			status, elapsed := observe(next, w, r)
			rec.RecordRequest(r.Context(), r.Method, strconv.Itoa(status), elapsed.Seconds())
		})
	}
}

// Recovery turns downstream panics into a logged 500 problem response.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					logger.ErrorContext(r.Context(), "panic recovered",
						"error", fmt.Sprint(v),
						"stack", string(debug.Stack()),
					)
					JSONProblem(w, r, errors.InternalError("internal server error"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
