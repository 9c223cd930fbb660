package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DaianCosta/pipehttp/internal/common"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/DaianCosta/pipehttp/internal/pipeline"

// Recorder persists finished runs. Failures are logged and never change the
// Run Output.
type Recorder interface {
	RecordRun(ctx context.Context, run *Run) error
}

// Executor runs every pipeline of a Source in declaration order. A failing
// pipeline is logged and skipped; a failing Source ends the execution with an
// empty output.
type Executor struct {
	Source  Source
	Invoker Invoker
	// Timeout is the overall execution deadline. Zero means none.
	Timeout  time.Duration
	Recorder Recorder
	Logger   *common.Logger
}

// NewExecutor returns an executor reading pipelines from source and calling
// backends through invoker.
func NewExecutor(source Source, invoker Invoker) *Executor {
	return &Executor{Source: source, Invoker: invoker}
}

func (e *Executor) logger() *common.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return common.GetLogger().WithComponent("executor")
}

// Execute acquires the pipeline list and runs it. Each call works on its own
// Run; nothing is shared between concurrent executions.
func (e *Executor) Execute(ctx context.Context) *Run {
	return e.execute(ctx, e.Source)
}

// ExecutePipelines runs a caller-supplied pipeline list. The list is
// validated like a loaded file; a violation is the Run's
// ConfigAcquisitionError and no backend is called.
func (e *Executor) ExecutePipelines(ctx context.Context, pipelines []Pipeline) *Run {
	return e.execute(ctx, StaticSource(pipelines))
}

func (e *Executor) execute(ctx context.Context, source Source) *Run {
	run := newRun()
	logger := e.logger().WithRun(run.ID)
	parent := ctx
	ctx, span := startSpan(ctx, "pipehttp.execute", attribute.String("pipehttp.run_id", run.ID))
	defer span.End()
	ctx, cancel := e.withDeadline(ctx)
	defer cancel()

	if source == nil {
		run.Err = &ConfigAcquisitionError{Err: errors.New("no pipeline source configured")}
	} else if pipelines, err := source.Load(ctx); err != nil {
		var cae *ConfigAcquisitionError
		if !errors.As(err, &cae) {
			err = &ConfigAcquisitionError{Err: err}
		}
		run.Err = err
	} else {
		e.runAll(ctx, logger, run, pipelines)
	}

	if run.Err != nil {
		logger.Error("pipeline config acquisition failed", "error", run.Err)
		span.RecordError(run.Err)
		span.SetStatus(codes.Error, "config acquisition failed")
	}
	e.finish(parent, logger, run)
	return run
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

func newRun() *Run {
	return &Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Results:   []Result{},
		Pipelines: []PipelineOutcome{},
	}
}

func (e *Executor) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.Timeout > 0 {
		return context.WithTimeout(ctx, e.Timeout)
	}
	return context.WithCancel(ctx)
}

func (e *Executor) runAll(ctx context.Context, logger *common.Logger, run *Run, pipelines []Pipeline) {
	logger.Info("execution started", "pipelines", len(pipelines))
	for i, p := range pipelines {
		outcome := e.runPipeline(ctx, logger.WithPipeline(i, p.Name), run, i, p)
		run.Pipelines = append(run.Pipelines, outcome)
	}
}

// runPipeline moves one pipeline from pending through running to completed
// or failed, appending whatever its runner kept to the Run Output.
func (e *Executor) runPipeline(ctx context.Context, logger *common.Logger, run *Run, index int, p Pipeline) PipelineOutcome {
	outcome := PipelineOutcome{Index: index, Name: p.Name, Mode: p.Mode(), State: StatePending}

	ctx, span := startSpan(ctx, "pipehttp.pipeline",
		attribute.Int("pipehttp.pipeline.index", index),
		attribute.String("pipehttp.pipeline.mode", outcome.Mode),
		attribute.Int("pipehttp.pipeline.backends", len(p.Backends)))
	defer span.End()

	outcome.State = StateRunning
	logger.Debug("pipeline running", "mode", outcome.Mode, "backends", len(p.Backends))
	start := time.Now()
	results, err := e.safeRun(ctx, e.runnerFor(p), p.Backends)
	outcome.DurationMS = time.Since(start).Milliseconds()

	run.Results = append(run.Results, results...)
	outcome.Results = len(results)

	if err != nil {
		perr := &PipelineExecutionError{Index: index, Name: p.Name, Mode: outcome.Mode, Err: err}
		outcome.State = StateFailed
		outcome.Error = common.MaskSensitiveData(perr.Error())
		logger.Error("pipeline execution failed", "error", perr, "kept_results", len(results))
		span.RecordError(perr)
		span.SetStatus(codes.Error, "pipeline execution failed")
	} else {
		outcome.State = StateCompleted
		logger.Info("pipeline completed", "mode", outcome.Mode, "results", len(results), "duration_ms", outcome.DurationMS)
	}
	pipelineExecutionsTotal.WithLabelValues(outcome.Mode, string(outcome.State)).Inc()
	return outcome
}

func (e *Executor) runnerFor(p Pipeline) Runner {
	if p.Config.Sequential {
		return &SequentialRunner{Invoker: e.Invoker}
	}
	return &ParallelRunner{Invoker: e.Invoker, Policy: p.Config.JoinPolicy}
}

// safeRun turns a panic raised on the executor goroutine into a pipeline error.
func (e *Executor) safeRun(ctx context.Context, r Runner, backends []Backend) (results []Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			results, err = nil, fmt.Errorf("runner panic: %v", rec)
		}
	}()
	return r.Run(ctx, backends)
}

func (e *Executor) finish(ctx context.Context, logger *common.Logger, run *Run) {
	run.FinishedAt = time.Now().UTC()
	observeRun(run)
	logger.Info("execution finished",
		"results", len(run.Results),
		"pipelines", len(run.Pipelines),
		"failed", run.Failed(),
		"duration_ms", run.FinishedAt.Sub(run.StartedAt).Milliseconds())

	if e.Recorder == nil {
		return
	}
	// The execution deadline must not cut the history write short.
	if err := e.Recorder.RecordRun(context.WithoutCancel(ctx), run); err != nil {
		logger.Warn("failed to record run", "error", err)
	}
}
