package pipeline

import (
	"context"
	"fmt"
)

// SequentialRunner calls backends one at a time in declared order. The first
// failure ends the chain; Results recorded before it are returned with the error.
type SequentialRunner struct {
	Invoker Invoker
}

func (r *SequentialRunner) Run(ctx context.Context, backends []Backend) ([]Result, error) {
	results := make([]Result, 0, len(backends))
	for i, b := range backends {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("backend %d: %w", i, err)
		}
		res, err := r.Invoker.Invoke(ctx, b)
		if err != nil {
			return results, fmt.Errorf("backend %d: %w", i, err)
		}
		results = append(results, res)
	}
	return results, nil
}
