package pipeline

import "context"

// Runner drives an Invoker over the backends of one pipeline. The returned
// Results are the ones the pipeline contributes to the Run Output, even when
// err is non-nil.
type Runner interface {
	Run(ctx context.Context, backends []Backend) ([]Result, error)
}
