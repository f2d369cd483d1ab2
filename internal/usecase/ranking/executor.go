package ranking

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// ErrPoolUnavailable is returned when the worker pool cannot run tasks.
var ErrPoolUnavailable = errors.New("worker pool unavailable")

// Executor runs n independent tasks, each addressed by its index.
// Tasks write their own output; Run only reports whether execution itself failed.
type Executor interface {
	Run(ctx context.Context, n int, task func(ctx context.Context, i int)) error
}

// Pool runs tasks on a bounded number of goroutines.
type Pool struct {
	workers int
}

// NewPool creates a pool with the given concurrency limit.
func NewPool(workers int) *Pool {
	return &Pool{workers: workers}
}

// Workers returns the concurrency limit.
func (p *Pool) Workers() int { return p.workers }

// Run executes all tasks and waits for them. A panicking task does not stop the others.
func (p *Pool) Run(ctx context.Context, n int, task func(ctx context.Context, i int)) error {
	if p == nil || p.workers < 1 {
		return ErrPoolUnavailable
	}
	var g errgroup.Group
	g.SetLimit(p.workers)
	for i := range n {
		g.Go(func() error {
			return runTask(ctx, i, task)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("worker pool: %w", err)
	}
	return nil
}

// Sequential runs tasks one after another on the calling goroutine.
type Sequential struct{}

// Run executes all tasks in index order.
func (Sequential) Run(ctx context.Context, n int, task func(ctx context.Context, i int)) error {
	var errs []error
	for i := range n {
		if err := runTask(ctx, i, task); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func runTask(ctx context.Context, i int, task func(ctx context.Context, i int)) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %d panicked: %v", i, r)
		}
	}()
	task(ctx, i)
	return nil
}
