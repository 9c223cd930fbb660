// Package pipehttp runs declarative HTTP pipelines: ordered groups of
// backend calls executed sequentially or in parallel, with failures
// contained at the pipeline boundary.
package pipehttp

import (
	"context"
	"time"

	"github.com/DaianCosta/pipehttp/internal/httpc"
	"github.com/DaianCosta/pipehttp/internal/match"
	"github.com/DaianCosta/pipehttp/internal/pipeline"
	"github.com/DaianCosta/pipehttp/internal/store"
)

// Re-export commonly used types for public API

type (
	Pipeline        = pipeline.Pipeline
	PipelineConfig  = pipeline.Config
	Backend         = pipeline.Backend
	Result          = pipeline.Result
	ErrorInfo       = pipeline.ErrorInfo
	Run             = pipeline.Run
	PipelineOutcome = pipeline.PipelineOutcome
	JoinPolicy      = pipeline.JoinPolicy
	Executor        = pipeline.Executor
	Source          = pipeline.Source
	FileSource      = pipeline.FileSource
	StaticSource    = pipeline.StaticSource
	Invoker         = pipeline.Invoker
	Recorder        = pipeline.Recorder

	ConfigAcquisitionError = pipeline.ConfigAcquisitionError
	TransportError         = pipeline.TransportError
	PipelineExecutionError = pipeline.PipelineExecutionError
)

const (
	JoinFailFast   = pipeline.JoinFailFast
	JoinCollectAll = pipeline.JoinCollectAll
)

// ErrInvalidMethod is returned for HTTP verbs outside the supported set.
var ErrInvalidMethod = pipeline.ErrInvalidMethod

// Client configures the shared transport.
type Client = httpc.Httpc

// Store records finished runs in SQLite or PostgreSQL.
type (
	Store          = store.Store
	StoreConfig    = store.Config
	StoreTables    = store.TableNames
	SqliteConfig   = store.SqliteConfig
	PostgresConfig = store.PostgresConfig
	RunSummary     = store.RunSummary
)

const (
	DriverSqlite     = store.DriverSqlite
	DriverPostgresql = store.DriverPostgresql
)

// OpenStore connects the configured driver and ensures the run table.
func OpenStore(cfg StoreConfig) (*Store, error) { return store.Open(cfg) }

// LoadPipelines reads and validates a JSON or YAML pipeline file.
func LoadPipelines(path string) ([]Pipeline, error) { return pipeline.LoadFile(path) }

// NewHTTPInvoker returns an invoker sending requests through c's client.
// A zero Client uses the default timeout and pool settings.
func NewHTTPInvoker(c Client) Invoker {
	return pipeline.NewHTTPInvoker(c.New())
}

// NewExecutor wires source and invoker. Set Timeout, Recorder or Logger on
// the returned value before the first Execute.
func NewExecutor(source Source, invoker Invoker) *Executor {
	return pipeline.NewExecutor(source, invoker)
}

// Execute runs the pipeline file at path once with default transport
// settings. timeout bounds the whole execution; zero means no deadline.
func Execute(ctx context.Context, path string, timeout time.Duration) *Run {
	e := NewExecutor(FileSource{Path: path}, NewHTTPInvoker(Client{}))
	e.Timeout = timeout
	return e.Execute(ctx)
}

// Match evaluates a JSONata expression against a JSON document.
func Match(query string, document []byte) ([]byte, error) {
	return match.Evaluate(query, document)
}
