package httpkit

import (
	"net/http"

	otelapi "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/seacatering/mealsvc/httpkit"

// Tracing returns middleware that opens an OpenTelemetry server span per
// request, continuing any trace context carried in the incoming headers.
// The span is named "METHOD /path", tagged with the HTTP semantic
// convention attributes, and marked as an error for 5xx responses.
//
// Providers are resolved through the global registrars on each request, so
// the middleware can be mounted before otel.Init runs.
func Tracing() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := otelapi.GetTextMapPropagator().
				Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			ctx, span := otelapi.GetTracerProvider().Tracer(tracerName).Start(ctx,
				r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.URLPath(r.URL.Path),
				),
			)
			defer span.End()

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r.WithContext(ctx))

			span.SetAttributes(semconv.HTTPResponseStatusCode(rw.statusCode))
			if rw.statusCode >= 500 {
				span.SetStatus(codes.Error, http.StatusText(rw.statusCode))
			}
		})
	}
}
