package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/DaianCosta/pipehttp/internal/common"
	"github.com/DaianCosta/pipehttp/internal/store/connector"
	"github.com/go-viper/mapstructure/v2"
)

const runColumns = "id, started_at, finished_at, failed, result_count, pipeline_count, config_error, pipelines_json, results_json"

type Store struct {
	db      *sql.DB
	dialect *Dialect
	DSN     string
}

// NewStore creates a new PostgreSQL store
func NewStore() *Store {
	return &Store{
		dialect: NewDialect(),
	}
}

// Load decodes the driver map into a Config and resolves the DSN
func (p *Store) Load(config map[string]interface{}) error {
	var c Config
	if err := mapstructure.Decode(config, &c); err != nil {
		return fmt.Errorf("decode postgresql config: %w", err)
	}
	if dsn := c.ConnString(); dsn != "" {
		p.DSN = dsn
	}
	return nil
}

// Connect establishes a connection to PostgreSQL using the dialect
func (p *Store) Connect() (*sql.DB, error) {
	db, err := p.dialect.Connect(p.DSN)
	if err != nil {
		return nil, err
	}
	p.db = db

	logger := common.GetLogger().WithStore("postgresql")
	logger.Info("PostgreSQL database connection established successfully")
	return db, nil
}

// Validate requires a DSN before connecting
func (p *Store) Validate() error {
	if p.DSN == "" {
		return errors.New("postgresql store requires a dsn or host")
	}
	return nil
}

// Close closes the database connection
func (p *Store) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// Ensure creates the run table and its index
func (p *Store) Ensure(th connector.TableNames) error {
	logger := common.GetLogger().WithStore("postgresql")
	logger.Debug("ensuring PostgreSQL database schema", "table", th.PipelineRuns)

	for i, q := range p.dialect.GetEnsureStatements(th.PipelineRuns) {
		if _, err := p.db.Exec(q); err != nil {
			logger.Error("failed to ensure schema", "error", err, "statement", i+1)
			return fmt.Errorf("failed to run schema statement %d: %w", i+1, err)
		}
	}
	logger.Info("PostgreSQL database schema ensured successfully")
	return nil
}

// RecordRun inserts one finished execution
func (p *Store) RecordRun(ctx context.Context, th connector.TableNames, rec connector.Record) error {
	logger := common.GetLogger().WithStore(p.dialect.GetDriverName()).WithRun(rec.ID)

	q := fmt.Sprintf("INSERT INTO %s(%s) VALUES(%s)", th.PipelineRuns, runColumns, p.dialect.GetPlaceholders(9))
	var configErr sql.NullString
	if rec.ConfigError != "" {
		configErr = sql.NullString{String: rec.ConfigError, Valid: true}
	}
	_, err := p.db.ExecContext(ctx, q,
		rec.ID,
		p.dialect.ConvertTimeToStorage(rec.StartedAt),
		p.dialect.ConvertTimeToStorage(rec.FinishedAt),
		p.dialect.ConvertBoolToStorage(rec.Failed),
		rec.ResultCount, rec.PipelineCount,
		configErr, rec.Pipelines, rec.Results)
	if err != nil {
		logger.Error("failed to record run", "error", err)
		return fmt.Errorf("failed to record run %s: %w", rec.ID, err)
	}
	logger.Debug("run recorded", "failed", rec.Failed, "results", rec.ResultCount)
	return nil
}

// ListRuns returns recorded runs, newest first
func (p *Store) ListRuns(ctx context.Context, th connector.TableNames, limit int) ([]connector.Record, error) {
	q := fmt.Sprintf("SELECT %s FROM %s ORDER BY started_at DESC, id DESC", runColumns, th.PipelineRuns)
	args := []interface{}{}
	if limit > 0 {
		q += " LIMIT " + p.dialect.GetPlaceholder(1)
		args = append(args, limit)
	}
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []connector.Record
	for rows.Next() {
		rec, err := p.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetRun loads a single run by id
func (p *Store) GetRun(ctx context.Context, th connector.TableNames, id string) (connector.Record, error) {
	q := fmt.Sprintf("SELECT %s FROM %s WHERE id = %s", runColumns, th.PipelineRuns, p.dialect.GetPlaceholder(1))
	rec, err := p.scan(p.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return connector.Record{}, connector.ErrNotFound
	}
	return rec, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func (p *Store) scan(row scanner) (connector.Record, error) {
	var (
		rec       connector.Record
		started   time.Time
		finished  time.Time
		configErr sql.NullString
		results   sql.NullString
	)
	if err := row.Scan(&rec.ID, &started, &finished, &rec.Failed, &rec.ResultCount, &rec.PipelineCount, &configErr, &rec.Pipelines, &results); err != nil {
		return connector.Record{}, err
	}
	rec.StartedAt = p.dialect.ConvertTimeFromStorage(started)
	rec.FinishedAt = p.dialect.ConvertTimeFromStorage(finished)
	rec.ConfigError = configErr.String
	if results.Valid {
		v := results.String
		rec.Results = &v
	}
	return rec, nil
}
