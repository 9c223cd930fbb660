package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/DaianCosta/pipehttp/internal/common"
	"github.com/DaianCosta/pipehttp/internal/constants"
	"github.com/DaianCosta/pipehttp/internal/pipeline"
	"github.com/DaianCosta/pipehttp/internal/store/connector"
	"github.com/DaianCosta/pipehttp/internal/store/postgresql"
	"github.com/DaianCosta/pipehttp/internal/store/sqlite"
)

// ErrRunNotFound is returned by GetRun for an unknown id.
var ErrRunNotFound = connector.ErrNotFound

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store records finished executions. It satisfies pipeline.Recorder.
type Store struct {
	connector   connector.Connector
	tables      connector.TableNames
	driver      string
	saveResults bool
	policy      WritePolicy
}

var _ pipeline.Recorder = (*Store)(nil)

// RunSummary is the listing view of a recorded run.
type RunSummary struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Failed      bool      `json:"failed"`
	Results     int       `json:"results"`
	Pipelines   int       `json:"pipelines"`
	ConfigError string    `json:"config_error,omitempty"`
}

// Open connects the configured driver and ensures the run table exists.
func Open(cfg Config) (*Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = DriverSqlite
	}

	var c connector.Connector
	switch driver {
	case DriverSqlite:
		c = sqlite.NewStore()
	case DriverPostgresql, "postgres":
		driver = DriverPostgresql
		c = postgresql.NewStore()
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Driver)
	}

	tables := connector.TableNames{PipelineRuns: strings.TrimSpace(cfg.TableNames.PipelineRuns)}
	if tables.PipelineRuns == "" {
		tables.PipelineRuns = constants.DefaultRunsTable
	}
	if !tableNamePattern.MatchString(tables.PipelineRuns) {
		return nil, fmt.Errorf("invalid table name %q", tables.PipelineRuns)
	}

	if cfg.DriverConfig != nil {
		if err := c.Load(cfg.DriverConfig.ToMap()); err != nil {
			return nil, err
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if _, err := c.Connect(); err != nil {
		return nil, err
	}
	if err := c.Ensure(tables); err != nil {
		_ = c.Close()
		return nil, err
	}

	common.GetLogger().WithStore(driver).Info("run store ready", "table", tables.PipelineRuns)
	policy := DefaultWritePolicy()
	if cfg.WritePolicy != nil {
		policy = *cfg.WritePolicy
	}
	return &Store{connector: c, tables: tables, driver: driver, saveResults: cfg.SaveResults, policy: policy}, nil
}

// Driver returns the normalized driver name.
func (s *Store) Driver() string { return s.driver }

// RecordRun persists run. Results are stored only when SaveResults is set.
func (s *Store) RecordRun(ctx context.Context, run *pipeline.Run) error {
	if run == nil {
		return errors.New("nil run")
	}
	pipelines, err := json.Marshal(run.Pipelines)
	if err != nil {
		return fmt.Errorf("encode pipeline outcomes: %w", err)
	}
	rec := connector.Record{
		ID:            run.ID,
		StartedAt:     run.StartedAt,
		FinishedAt:    run.FinishedAt,
		Failed:        run.Failed(),
		ResultCount:   len(run.Results),
		PipelineCount: len(run.Pipelines),
		Pipelines:     string(pipelines),
	}
	if run.Err != nil {
		rec.ConfigError = common.MaskSensitiveData(run.Err.Error())
	}
	if s.saveResults {
		results, err := json.Marshal(run.Results)
		if err != nil {
			return fmt.Errorf("encode results: %w", err)
		}
		v := string(results)
		rec.Results = &v
	}
	log := common.GetLogger().WithStore(s.driver)
	return s.policy.do(ctx, log, func() error {
		return s.connector.RecordRun(ctx, s.tables, rec)
	})
}

// ListRuns returns at most limit runs, newest first. limit <= 0 means all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	recs, err := s.connector.ListRuns(ctx, s.tables, limit)
	if err != nil {
		return nil, err
	}
	out := make([]RunSummary, 0, len(recs))
	for _, r := range recs {
		out = append(out, RunSummary{
			ID:          r.ID,
			StartedAt:   r.StartedAt,
			FinishedAt:  r.FinishedAt,
			Failed:      r.Failed,
			Results:     r.ResultCount,
			Pipelines:   r.PipelineCount,
			ConfigError: r.ConfigError,
		})
	}
	return out, nil
}

// GetRun rebuilds a recorded run. Results is empty unless they were saved.
func (s *Store) GetRun(ctx context.Context, id string) (*pipeline.Run, error) {
	rec, err := s.connector.GetRun(ctx, s.tables, id)
	if err != nil {
		return nil, err
	}
	run := &pipeline.Run{
		ID:         rec.ID,
		StartedAt:  rec.StartedAt,
		FinishedAt: rec.FinishedAt,
		Results:    []pipeline.Result{},
		Pipelines:  []pipeline.PipelineOutcome{},
	}
	if err := json.Unmarshal([]byte(rec.Pipelines), &run.Pipelines); err != nil {
		return nil, fmt.Errorf("decode pipeline outcomes of run %s: %w", id, err)
	}
	if rec.Results != nil {
		if err := json.Unmarshal([]byte(*rec.Results), &run.Results); err != nil {
			return nil, fmt.Errorf("decode results of run %s: %w", id, err)
		}
	}
	if rec.ConfigError != "" {
		run.Err = errors.New(rec.ConfigError)
	}
	return run, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	if s == nil || s.connector == nil {
		return nil
	}
	return s.connector.Close()
}
