package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/DaianCosta/pipehttp/internal/common"
	"github.com/DaianCosta/pipehttp/internal/store/connector"
	"github.com/go-viper/mapstructure/v2"
)

type Store struct {
	db      *sql.DB
	dialect *Dialect
	DSN     string
}

// NewStore creates a new SQLite store
func NewStore() *Store {
	return &Store{
		dialect: NewDialect(),
	}
}

// Load decodes the driver map into a Config. An explicit dsn wins over path.
func (s *Store) Load(config map[string]interface{}) error {
	var c Config
	if err := mapstructure.Decode(config, &c); err != nil {
		return fmt.Errorf("decode sqlite config: %w", err)
	}
	if c.DSN != "" {
		s.DSN = c.DSN
		return nil
	}
	if c.Path != "" {
		s.DSN = fmt.Sprintf("file:%s?_busy_timeout=%d&%s", c.Path, busyTimeoutMS, foreignKeysParam)
	}
	return nil
}

// Connect establishes a connection to SQLite using the dialect
func (s *Store) Connect() (*sql.DB, error) {
	if s.DSN == "" {
		// Default to in-memory database for testing
		s.DSN = ":memory:"
	}

	db, err := s.dialect.Connect(s.DSN)
	if err != nil {
		return nil, err
	}
	s.db = db

	logger := common.GetLogger().WithStore("sqlite")
	logger.Info("SQLite database connection established successfully")
	return db, nil
}

// Validate performs basic validation (default implementation)
func (s *Store) Validate() error {
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ensure creates the run table and its index
func (s *Store) Ensure(th connector.TableNames) error {
	logger := common.GetLogger().WithStore("sqlite")
	logger.Debug("ensuring SQLite database schema", "table", th.PipelineRuns)

	for i, q := range s.dialect.GetEnsureStatements(th.PipelineRuns) {
		if _, err := s.db.Exec(q); err != nil {
			logger.Error("failed to ensure schema", "error", err, "statement", i+1)
			return fmt.Errorf("failed to run schema statement %d: %w", i+1, err)
		}
	}
	logger.Info("SQLite database schema ensured successfully")
	return nil
}

// RecordRun inserts one finished execution
func (s *Store) RecordRun(ctx context.Context, th connector.TableNames, rec connector.Record) error {
	logger := common.GetLogger().WithStore(s.dialect.GetDriverName()).WithRun(rec.ID)

	q := fmt.Sprintf("INSERT INTO %s(id, started_at, finished_at, failed, result_count, pipeline_count, config_error, pipelines_json, results_json) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)", th.PipelineRuns)
	_, err := s.db.ExecContext(ctx, q,
		rec.ID,
		s.dialect.ConvertTimeToStorage(rec.StartedAt),
		s.dialect.ConvertTimeToStorage(rec.FinishedAt),
		s.dialect.ConvertBoolToStorage(rec.Failed),
		rec.ResultCount, rec.PipelineCount,
		nullString(rec.ConfigError), rec.Pipelines, rec.Results)
	if err != nil {
		logger.Error("failed to record run", "error", err)
		return fmt.Errorf("failed to record run %s: %w", rec.ID, err)
	}
	logger.Debug("run recorded", "failed", rec.Failed, "results", rec.ResultCount)
	return nil
}

// ListRuns returns recorded runs, newest first
func (s *Store) ListRuns(ctx context.Context, th connector.TableNames, limit int) ([]connector.Record, error) {
	q := fmt.Sprintf("SELECT id, started_at, finished_at, failed, result_count, pipeline_count, config_error, pipelines_json, results_json FROM %s ORDER BY started_at DESC, id DESC", th.PipelineRuns)
	args := []interface{}{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []connector.Record
	for rows.Next() {
		rec, err := s.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetRun loads a single run by id
func (s *Store) GetRun(ctx context.Context, th connector.TableNames, id string) (connector.Record, error) {
	q := fmt.Sprintf("SELECT id, started_at, finished_at, failed, result_count, pipeline_count, config_error, pipelines_json, results_json FROM %s WHERE id = ?", th.PipelineRuns)
	rec, err := s.scan(s.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return connector.Record{}, connector.ErrNotFound
	}
	return rec, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func (s *Store) scan(row scanner) (connector.Record, error) {
	var (
		rec       connector.Record
		started   string
		finished  string
		failed    int64
		configErr sql.NullString
		results   sql.NullString
	)
	if err := row.Scan(&rec.ID, &started, &finished, &failed, &rec.ResultCount, &rec.PipelineCount, &configErr, &rec.Pipelines, &results); err != nil {
		return connector.Record{}, err
	}
	var err error
	if rec.StartedAt, err = s.dialect.ConvertTimeFromStorage(started); err != nil {
		return connector.Record{}, err
	}
	if rec.FinishedAt, err = s.dialect.ConvertTimeFromStorage(finished); err != nil {
		return connector.Record{}, err
	}
	rec.Failed = s.dialect.ConvertBoolFromStorage(failed)
	rec.ConfigError = configErr.String
	if results.Valid {
		v := results.String
		rec.Results = &v
	}
	return rec, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
