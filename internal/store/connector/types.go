package connector

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound is returned by GetRun when no row carries the requested id.
var ErrNotFound = errors.New("run not found")

// Record is one row of the pipeline_runs table. Pipelines and Results hold
// JSON documents; Results is nil when result saving is disabled.
type Record struct {
	ID            string
	StartedAt     time.Time
	FinishedAt    time.Time
	Failed        bool
	ResultCount   int
	PipelineCount int
	ConfigError   string
	Pipelines     string
	Results       *string
}

// TableNames represents database table names
type TableNames struct {
	PipelineRuns string
}

type Connector interface {
	Connect() (*sql.DB, error)
	Validate() error
	Load(config map[string]interface{}) error
	Ensure(th TableNames) error
	RecordRun(ctx context.Context, th TableNames, rec Record) error
	// ListRuns returns at most limit records, newest first. limit <= 0 means all.
	ListRuns(ctx context.Context, th TableNames, limit int) ([]Record, error)
	GetRun(ctx context.Context, th TableNames, id string) (Record, error)
	Close() error
}
