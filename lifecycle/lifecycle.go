// Package lifecycle runs a service's long-lived components — listeners,
// sweepers, consumers — under one signal-cancelled context so they start
// together and shut down together.
package lifecycle

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"
)

// Component is a long-running function. It must return promptly once its
// context is cancelled.
type Component func(ctx context.Context) error

// Run launches every component and blocks until all have returned. The
// shared context is cancelled by SIGTERM, SIGINT, or the first component
// failure; that first error is returned, wrapped with the component's
// position.
func Run(ctx context.Context, components ...Component) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)
	for i, c := range components {
		g.Go(func() error {
			if err := c(gCtx); err != nil {
				return fmt.Errorf("lifecycle: component %d: %w", i, err)
			}
			return nil
		})
	}
	return g.Wait()
}
