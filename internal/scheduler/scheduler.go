// Package scheduler fans the files of a parallel walk out to a pool of
// search workers.
package scheduler

import (
	"context"
	"io"
	"runtime"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/dl/gosearch/internal/walker"
)

// Scheduler manages a pool of workers that search files concurrently.
type Scheduler struct {
	workers int
	logger  *log.Logger
}

// New creates a Scheduler with the given number of workers.
// If workers is 0, defaults to NumCPU * 2.
func New(workers int, logger *log.Logger) *Scheduler {
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Scheduler{workers: workers, logger: logger}
}

// Workers returns the size of the pool.
func (s *Scheduler) Workers() int { return s.workers }

// Run streams w and calls fn once for every file entry, from up to
// Workers goroutines at a time. The walk and the pool share one context:
// the first error from either side cancels the other, and Run returns it
// after every goroutine has exited.
func (s *Scheduler) Run(ctx context.Context, w *walker.Walker, fn func(walker.Entry) error) error {
	g, ctx := errgroup.WithContext(ctx)
	files := make(chan walker.Entry, s.workers*2)

	g.Go(func() error {
		defer close(files)
		return w.Stream(ctx, s.workers, files)
	})

	for range s.workers {
		g.Go(func() error {
			for entry := range files {
				if !entry.IsFile() {
					continue
				}
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := fn(entry); err != nil {
					return err
				}
			}
			return nil
		})
	}

	err := g.Wait()
	s.logger.Debug("scheduler finished", "workers", s.workers, "err", err)
	return err
}
