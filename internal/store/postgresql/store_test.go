package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/DaianCosta/pipehttp/internal/store/connector"
)

var th = connector.TableNames{PipelineRuns: "pipeline_runs"}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	s := NewStore()
	s.db = db
	t.Cleanup(func() { _ = db.Close() })
	return s, mock
}

func TestStore_Load(t *testing.T) {
	tests := []struct {
		name   string
		config map[string]interface{}
		want   string
	}{
		{
			name:   "explicit dsn",
			config: map[string]interface{}{"dsn": "postgres://u:p@db:5432/x"},
			want:   "postgres://u:p@db:5432/x",
		},
		{
			name:   "components",
			config: map[string]interface{}{"host": "db", "user": "app", "password": "p@ss", "dbname": "runs"},
			want:   "postgres://app:p%40ss@db:5432/runs?sslmode=disable",
		},
		{
			name:   "components with port and sslmode",
			config: map[string]interface{}{"host": "db", "port": 6543, "user": "app", "password": "x", "dbname": "runs", "sslmode": "require"},
			want:   "postgres://app:x@db:6543/runs?sslmode=require",
		},
		{
			name:   "nothing",
			config: map[string]interface{}{},
			want:   "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			if err := s.Load(tt.config); err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if s.DSN != tt.want {
				t.Errorf("DSN = %q, want %q", s.DSN, tt.want)
			}
		})
	}
}

func TestStore_LoadRejectsWrongTypes(t *testing.T) {
	s := NewStore()
	if err := s.Load(map[string]interface{}{"port": []string{"x"}}); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestStore_Ensure(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS pipeline_runs")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE INDEX IF NOT EXISTS pipeline_runs_started_at_idx")).WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.Ensure(th); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStore_EnsureError(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))

	if err := s.Ensure(th); err == nil {
		t.Fatalf("expected error")
	}
}

func TestStore_RecordRun(t *testing.T) {
	s, mock := newMockStore(t)
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	results := `[{"content":"ok","status_code":200}]`

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO pipeline_runs(id, started_at, finished_at, failed, result_count, pipeline_count, config_error, pipelines_json, results_json) VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9)")).
		WithArgs("r1", started, started.Add(time.Second), true, 1, 2, nil, "[]", results).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.RecordRun(context.Background(), th, connector.Record{
		ID:            "r1",
		StartedAt:     started,
		FinishedAt:    started.Add(time.Second),
		Failed:        true,
		ResultCount:   1,
		PipelineCount: 2,
		Pipelines:     "[]",
		Results:       &results,
	})
	if err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStore_ListRuns(t *testing.T) {
	s, mock := newMockStore(t)
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.FixedZone("KST", 9*3600))

	rows := sqlmock.NewRows([]string{"id", "started_at", "finished_at", "failed", "result_count", "pipeline_count", "config_error", "pipelines_json", "results_json"}).
		AddRow("r2", started, started, false, 3, 1, nil, "[]", nil).
		AddRow("r1", started, started, true, 0, 0, "config acquisition failed: x", "[]", "[]")
	mock.ExpectQuery(regexp.QuoteMeta("FROM pipeline_runs ORDER BY started_at DESC, id DESC LIMIT $1")).
		WithArgs(10).
		WillReturnRows(rows)

	got, err := s.ListRuns(context.Background(), th, 10)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].ID != "r2" || got[0].Failed || got[0].ResultCount != 3 || got[0].Results != nil {
		t.Errorf("unexpected first record %+v", got[0])
	}
	if got[1].ConfigError == "" || got[1].Results == nil || *got[1].Results != "[]" {
		t.Errorf("unexpected second record %+v", got[1])
	}
	if got[0].StartedAt.Location() != time.UTC {
		t.Errorf("expected UTC times, got %v", got[0].StartedAt.Location())
	}
}

func TestStore_GetRunNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1")).WithArgs("nope").WillReturnError(sql.ErrNoRows)

	if _, err := s.GetRun(context.Background(), th, "nope"); !errors.Is(err, connector.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDialect_GetPlaceholders(t *testing.T) {
	d := NewDialect()
	if got := d.GetPlaceholders(3); got != "$1, $2, $3" {
		t.Errorf("GetPlaceholders(3) = %q", got)
	}
	if got := d.GetPlaceholders(0); got != "" {
		t.Errorf("GetPlaceholders(0) = %q", got)
	}
}
