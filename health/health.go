// Package health runs named dependency checks in parallel and exposes the
// aggregate over HTTP for load balancers and orchestrators.
package health

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/seacatering/mealsvc/work"
)

// Check probes one dependency. Nil means healthy.
type Check func(ctx context.Context) error

// Result is the outcome of a single named check.
type Result struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// Run executes every check with bounded parallelism and returns the results
// in name order. Every check runs even when others fail; the returned error
// joins all failures, wrapped with their check name.
func Run(ctx context.Context, checks map[string]Check) ([]Result, error) {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	type outcome struct {
		res Result
		err error
	}
	outcomes, _ := work.Map(ctx, names, func(ctx context.Context, name string) (outcome, error) {
		err := checks[name](ctx)
		res := Result{Name: name, Healthy: err == nil}
		if err != nil {
			res.Error = err.Error()
		}
		// The error is carried in the outcome so every check still runs.
		return outcome{res: res, err: err}, nil
	})

	results := make([]Result, len(outcomes))
	var failed []error
	for i, o := range outcomes {
		results[i] = o.res
		if o.err != nil {
			failed = append(failed, fmt.Errorf("%s: %w", o.res.Name, o.err))
		}
	}
	return results, errors.Join(failed...)
}
