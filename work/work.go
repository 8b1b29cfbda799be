// Package work fans work out over a bounded pool of goroutines. It backs
// the health checks and the database seeder, and traces each batch with
// OpenTelemetry spans.
package work

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	otelapi "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/seacatering/mealsvc/work"

// Option tunes a batch run.
type Option func(*settings)

type settings struct {
	workers int
}

// Workers caps the number of concurrent goroutines. Values below 1 mean 1;
// the default is runtime.NumCPU().
func Workers(n int) Option {
	return func(s *settings) { s.workers = max(1, n) }
}

// Errors aggregates the per-item failures of a batch.
type Errors struct {
	Failures []Failure
}

// Failure is one failed item: its input index and error.
type Failure struct {
	Index int
	Err   error
}

func (e *Errors) Error() string {
	return fmt.Sprintf("%d task(s) failed", len(e.Failures))
}

// Unwrap exposes the underlying errors to errors.Is and errors.As.
func (e *Errors) Unwrap() []error {
	out := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		out[i] = f.Err
	}
	return out
}

// Map applies fn to every item using at most the configured number of
// goroutines and returns the results in input order. All items run to
// completion; if any failed, the returned error is an *Errors listing them.
func Map[T, R any](ctx context.Context, items []T, fn func(context.Context, T) (R, error), opts ...Option) ([]R, error) {
	cfg := settings{workers: runtime.NumCPU()}
	for _, o := range opts {
		o(&cfg)
	}

	tracer := otelapi.GetTracerProvider().Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "work.Map", trace.WithAttributes(
		attribute.Int("work.total", len(items)),
		attribute.Int("work.workers", cfg.workers),
	))
	defer span.End()

	results := make([]R, len(items))
	errs := make([]error, len(items))

	indexes := make(chan int)
	var wg sync.WaitGroup
	for range cfg.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				itemCtx, itemSpan := tracer.Start(ctx, "work.Map.item",
					trace.WithAttributes(attribute.Int("work.index", i)),
				)
				results[i], errs[i] = fn(itemCtx, items[i])
				if errs[i] != nil {
					itemSpan.RecordError(errs[i])
				}
				itemSpan.End()
			}
		}()
	}
	for i := range items {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	var failures []Failure
	for i, err := range errs {
		if err != nil {
			failures = append(failures, Failure{Index: i, Err: err})
		}
	}
	span.SetAttributes(attribute.Int("work.failed", len(failures)))

	if len(failures) > 0 {
		return results, &Errors{Failures: failures}
	}
	return results, nil
}

// All runs every task to completion with bounded concurrency, returning an
// *Errors if any failed.
func All(ctx context.Context, tasks []func(context.Context) error, opts ...Option) error {
	_, err := Map(ctx, tasks, func(ctx context.Context, task func(context.Context) error) (struct{}, error) {
		return struct{}{}, task(ctx)
	}, opts...)
	return err
}
