package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ParallelRunner calls every backend concurrently and joins on all of them.
// Results keep declaration order regardless of completion order.
type ParallelRunner struct {
	Invoker Invoker
	Policy  JoinPolicy
}

func (r *ParallelRunner) Run(ctx context.Context, backends []Backend) ([]Result, error) {
	if r.Policy == JoinCollectAll {
		return r.collectAll(ctx, backends)
	}
	return r.failFast(ctx, backends)
}

// failFast returns nothing if any call fails and cancels calls still in flight.
func (r *ParallelRunner) failFast(ctx context.Context, backends []Backend) ([]Result, error) {
	results := make([]Result, len(backends))
	g, gctx := errgroup.WithContext(ctx)
	for i, b := range backends {
		i, b := i, b
		g.Go(func() error {
			res, err := r.Invoker.Invoke(gctx, b)
			if err != nil {
				return fmt.Errorf("backend %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// collectAll keeps every slot. Failed calls become Results carrying ErrorInfo
// and the individual errors are joined into the returned error. A backend whose
// request could not be built never reached the transport and gets no Result.
func (r *ParallelRunner) collectAll(ctx context.Context, backends []Backend) ([]Result, error) {
	type slot struct {
		res Result
		err error
	}
	slots := make([]slot, len(backends))

	var wg sync.WaitGroup
	for i, b := range backends {
		i, b := i, b
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := r.Invoker.Invoke(ctx, b)
			slots[i] = slot{res: res, err: err}
		}()
	}
	wg.Wait()

	results := make([]Result, 0, len(backends))
	var errs []error
	for i, s := range slots {
		if s.err != nil {
			errs = append(errs, fmt.Errorf("backend %d: %w", i, s.err))
			if !errors.Is(s.err, ErrInvalidMethod) {
				results = append(results, Result{Error: errorInfo(s.err)})
			}
			continue
		}
		results = append(results, s.res)
	}
	return results, errors.Join(errs...)
}
