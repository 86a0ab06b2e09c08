package messaging

import (
	"context"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"arbitron/pkg/logger"
)

// Runner drives a set of workers against one handler and stops them
// together: the first worker error or a cancelled context brings the rest
// down.
type Runner struct {
	logger  *logger.Logger
	workers []Worker
	handler MessageHandler
}

func NewRunner(l *logger.Logger, workers []Worker, handler MessageHandler) *Runner {
	return &Runner{
		logger:  l,
		workers: workers,
		handler: handler,
	}
}

// Start runs all workers concurrently and waits for them to finish.
func (r *Runner) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for i, w := range r.workers {
		i, w := i, w
		g.Go(func() error {
			defer func() {
				if rec := recover(); rec != nil {
					r.logger.Error("worker %d panic recovered: %v\n%s", i, rec, string(debug.Stack()))
				}
				if err := w.Close(); err != nil {
					r.logger.Error("close worker %d: %v", i, err)
				}
			}()
			return w.Start(ctx, r.handler)
		})
	}

	return g.Wait()
}

// Close closes all workers.
func (r *Runner) Close() error {
	for _, w := range r.workers {
		if err := w.Close(); err != nil {
			r.logger.Error("close worker: %v", err)
		}
	}
	return nil
}
