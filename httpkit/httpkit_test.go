package httpkit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	otelapi "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/seacatering/mealsvc/errors"
	"github.com/seacatering/mealsvc/logz"
)

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestIDHeaderMatchesContext(t *testing.T) {
	var fromCtx string
	rec := serve(RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = logz.RequestIDFrom(r.Context())
	})), http.MethodGet, "/whoami")

	header := rec.Header().Get("X-Request-ID")
	switch {
	case header == "":
		t.Fatal("X-Request-ID header not set")
	case len(header) != 36 || strings.Count(header, "-") != 4:
		t.Fatalf("X-Request-ID %q is not a UUID", header)
	case header != fromCtx:
		t.Fatalf("header %q differs from context value %q", header, fromCtx)
	}
}

func TestLoggingRecordsMethodPathStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	created := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	serve(Logging(logger)(created), http.MethodPost, "/subscriptions")

	for _, want := range []string{"POST", "/subscriptions", "201"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("log line missing %q:\n%s", want, buf.String())
		}
	}
}

func TestLoggingCarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := logz.NewWriter(&buf, "debug")

	// RequestID must wrap Logging for the logz handler to pick the ID up.
	serve(RequestID(Logging(logger)(okHandler())), http.MethodGet, "/with-id")

	if !strings.Contains(buf.String(), "request_id") {
		t.Errorf("request_id absent from log output:\n%s", buf.String())
	}
}

func TestRecoveryTurnsPanicIntoProblem(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	boom := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	rec := serve(Recovery(logger)(boom), http.MethodGet, "/panic")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("Content-Type = %q", ct)
	}
	var pd map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&pd); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if pd["status"] != float64(500) || pd["type"] != "https://api.seacatering.id/errors/internal" {
		t.Fatalf("unexpected problem body: %v", pd)
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Errorf("panic not logged:\n%s", buf.String())
	}
}

func TestMetricsNilRecorderIsPassthrough(t *testing.T) {
	reached := false
	rec := serve(Metrics(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	})), http.MethodGet, "/plain")

	if !reached {
		t.Fatal("inner handler never ran")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestFullChain(t *testing.T) {
	var buf bytes.Buffer
	logger := logz.NewWriter(&buf, "debug")

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if logz.RequestIDFrom(r.Context()) == "" {
			t.Error("request ID missing inside chained handler")
		}
		_, _ = w.Write([]byte("ok"))
	})
	rec := serve(Recovery(logger)(RequestID(Logging(logger)(inner))), http.MethodGet, "/chain")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("X-Request-ID missing from chained response")
	}
	if !strings.Contains(buf.String(), "/chain") {
		t.Errorf("path absent from log output:\n%s", buf.String())
	}
}

func spanExporter(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	otelapi.SetTracerProvider(tp)
	return exporter
}

func TestTracingSpanPerRequest(t *testing.T) {
	exporter := spanExporter(t)

	serve(Tracing()(okHandler()), http.MethodGet, "/hello")

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "GET /hello" {
		t.Fatalf("span name = %q", spans[0].Name)
	}
}

func TestTracingJoinsUpstreamTrace(t *testing.T) {
	exporter := spanExporter(t)
	otelapi.SetTextMapPropagator(propagation.TraceContext{})

	const upstream = "4bf92f3577b34da6a3ce929d0e0e4736"
	req := httptest.NewRequest(http.MethodPost, "/trace", nil)
	req.Header.Set("traceparent", "00-"+upstream+"-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	Tracing()(okHandler()).ServeHTTP(rec, req)

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if got := spans[0].SpanContext.TraceID().String(); got != upstream {
		t.Fatalf("trace ID = %q, want %q", got, upstream)
	}
}

func TestJSONProblemShape(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/subscriptions", nil)
	rec := httptest.NewRecorder()

	JSONProblem(rec, req, errors.ValidationError("Validation failed").
		WithDetail("errors", []string{"Invalid email format"}))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("Content-Type = %q", ct)
	}
	var pd map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&pd); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for key, want := range map[string]string{
		"type":     "https://api.seacatering.id/errors/validation",
		"detail":   "Validation failed",
		"instance": "/api/subscriptions",
	} {
		if pd[key] != want {
			t.Errorf("%s = %v, want %q", key, pd[key], want)
		}
	}
}

func TestJSONBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/meal-plans", nil)
	rec := httptest.NewRecorder()

	JSON(rec, req, http.StatusOK, map[string]string{"message": "ok"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type = %q", ct)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["message"] != "ok" {
		t.Fatalf("message = %q", body["message"])
	}
}
