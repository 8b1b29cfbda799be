// Package metrics wraps OpenTelemetry instruments with a cardinality cap.
// Everything exports via OTLP push; the service has no scrape endpoint.
package metrics

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	otelapi "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DurationBuckets holds the request-duration histogram boundaries in seconds.
var DurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// MaxLabelCombinations caps distinct label combinations per metric. New
// combinations past the cap are dropped instead of registered.
const MaxLabelCombinations = 1000

// Recorder bundles the service instruments: HTTP request count and duration,
// plus counters created through Counter (the rejection counters for
// validation, CSRF, rate limiting, and malicious input live there).
type Recorder struct {
	prefix          string
	meter           metric.Meter
	requestsTotal   metric.Float64Counter
	requestDuration metric.Float64Histogram

	mu     sync.Mutex
	series map[string]map[string]struct{} // metric name -> seen label combos
	warned map[string]bool
	logger *slog.Logger
}

// New builds a Recorder. prefix names the OTel meter and prefixes every
// instrument; logger may be nil.
func New(prefix string, logger *slog.Logger) *Recorder {
	r := &Recorder{
		prefix: prefix,
		meter:  otelapi.GetMeterProvider().Meter(prefix),
		series: make(map[string]map[string]struct{}),
		warned: make(map[string]bool),
		logger: logger,
	}
	r.requestsTotal, _ = r.meter.Float64Counter(
		prefix+"_requests_total",
		metric.WithDescription("Total number of HTTP requests."),
	)
	r.requestDuration, _ = r.meter.Float64Histogram(
		prefix+"_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds."),
		metric.WithExplicitBucketBoundaries(DurationBuckets...),
	)
	return r
}

// RecordRequest counts one request and records its duration, subject to the
// cardinality cap.
func (r *Recorder) RecordRequest(ctx context.Context, method, status string, durationSeconds float64) {
	if r.admit("requests_total", method+"\x00"+status) {
		r.requestsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("status", status),
		))
	}
	if r.admit("request_duration_seconds", method) {
		r.requestDuration.Record(ctx, durationSeconds,
			metric.WithAttributes(attribute.String("method", method)))
	}
}

// admit reports whether the label combo fits under the cardinality cap,
// registering it on first sight. The first drop per metric logs a warning.
func (r *Recorder) admit(name, combo string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := r.series[name]
	if seen == nil {
		seen = make(map[string]struct{})
		r.series[name] = seen
	}
	if _, ok := seen[combo]; ok {
		return true
	}
	if len(seen) < MaxLabelCombinations {
		seen[combo] = struct{}{}
		return true
	}
	if !r.warned[name] {
		r.warned[name] = true
		if r.logger != nil {
			r.logger.Warn("metrics cardinality limit reached, dropping new label combinations",
				"metric", name, "limit", MaxLabelCombinations)
		}
	}
	return false
}

// Counter registers a float counter under the recorder's prefix.
func (r *Recorder) Counter(name string) *CounterVec {
	inner, _ := r.meter.Float64Counter(
		r.prefix+"_"+name,
		metric.WithDescription("Counter: "+name),
	)
	return &CounterVec{inner: inner, name: name, recorder: r}
}

// CounterVec is a labeled counter sharing the recorder's cardinality cap.
type CounterVec struct {
	inner    metric.Float64Counter
	name     string
	recorder *Recorder
}

// Add increments by val with alternating key/value label pairs.
func (c *CounterVec) Add(ctx context.Context, val float64, labelPairs ...string) {
	n := len(labelPairs) / 2
	values := make([]string, 0, n)
	attrs := make([]attribute.KeyValue, 0, n)
	for i := 0; i+1 < len(labelPairs); i += 2 {
		values = append(values, labelPairs[i+1])
		attrs = append(attrs, attribute.String(labelPairs[i], labelPairs[i+1]))
	}
	if c.recorder.admit(c.name, strings.Join(values, "\x00")) {
		c.inner.Add(ctx, val, metric.WithAttributes(attrs...))
	}
}
