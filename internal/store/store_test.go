package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DaianCosta/pipehttp/internal/pipeline"
)

func openSqlite(t *testing.T, saveResults bool) *Store {
	t.Helper()
	st, err := Open(Config{
		Driver:       DriverSqlite,
		DriverConfig: &SqliteConfig{Path: filepath.Join(t.TempDir(), "runs.db")},
		SaveResults:  saveResults,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func sampleRun(id string, started time.Time) *pipeline.Run {
	return &pipeline.Run{
		ID:         id,
		StartedAt:  started,
		FinishedAt: started.Add(150 * time.Millisecond),
		Results:    []pipeline.Result{{Content: "ok", StatusCode: 201}},
		Pipelines: []pipeline.PipelineOutcome{
			{Index: 0, Mode: "parallel", State: pipeline.StateFailed, Error: "pipeline 0 parallel execution failed: boom"},
			{Index: 1, Name: "second", Mode: "sequential", State: pipeline.StateCompleted, Results: 1, DurationMS: 12},
		},
	}
}

func TestSqliteStore_RecordAndGet(t *testing.T) {
	st := openSqlite(t, true)
	ctx := context.Background()
	started := time.Date(2026, 1, 2, 3, 4, 5, 600, time.UTC)

	if err := st.RecordRun(ctx, sampleRun("run-1", started)); err != nil {
		t.Fatalf("record: %v", err)
	}
	got, err := st.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.StartedAt.Equal(started) {
		t.Fatalf("started_at = %v, want %v", got.StartedAt, started)
	}
	if len(got.Results) != 1 || got.Results[0].Content != "ok" || got.Results[0].StatusCode != 201 {
		t.Fatalf("results not restored: %+v", got.Results)
	}
	if len(got.Pipelines) != 2 || got.Pipelines[1].Name != "second" || got.Pipelines[0].State != pipeline.StateFailed {
		t.Fatalf("pipeline outcomes not restored: %+v", got.Pipelines)
	}
	if !got.Failed() {
		t.Fatalf("expected restored run to report failure")
	}
}

func TestSqliteStore_ResultsOmittedByDefault(t *testing.T) {
	st := openSqlite(t, false)
	ctx := context.Background()

	if err := st.RecordRun(ctx, sampleRun("run-1", time.Now())); err != nil {
		t.Fatalf("record: %v", err)
	}
	got, err := st.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Results == nil || len(got.Results) != 0 {
		t.Fatalf("expected empty results, got %+v", got.Results)
	}
	summaries, err := st.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(summaries) != 1 || summaries[0].Results != 1 || summaries[0].Pipelines != 2 {
		t.Fatalf("counts must be kept even without results: %+v", summaries)
	}
}

func TestSqliteStore_ListNewestFirstWithLimit(t *testing.T) {
	st := openSqlite(t, false)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	// Whole seconds and fractions must still sort chronologically.
	offsets := []time.Duration{0, 500 * time.Millisecond, time.Second, 1500 * time.Millisecond}
	for i, off := range offsets {
		run := sampleRun(string(rune('a'+i)), base.Add(off))
		if err := st.RecordRun(ctx, run); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	all, err := st.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"d", "c", "b", "a"}
	if len(all) != len(want) {
		t.Fatalf("expected %d runs, got %d", len(want), len(all))
	}
	for i, id := range want {
		if all[i].ID != id {
			t.Fatalf("position %d: got %s want %s", i, all[i].ID, id)
		}
	}

	limited, err := st.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 2 || limited[0].ID != "d" {
		t.Fatalf("unexpected limited list %+v", limited)
	}
}

func TestSqliteStore_ConfigErrorIsMasked(t *testing.T) {
	st := openSqlite(t, false)
	ctx := context.Background()

	run := &pipeline.Run{
		ID:        "cfg",
		StartedAt: time.Now(),
		Results:   []pipeline.Result{},
		Err:       errors.New("config acquisition failed: token=abc123"),
	}
	run.FinishedAt = run.StartedAt
	if err := st.RecordRun(ctx, run); err != nil {
		t.Fatalf("record: %v", err)
	}
	got, err := st.GetRun(ctx, "cfg")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Err == nil || got.Err.Error() != "config acquisition failed: token=***MASKED***" {
		t.Fatalf("unexpected stored config error: %v", got.Err)
	}
}

func TestSqliteStore_GetUnknown(t *testing.T) {
	st := openSqlite(t, false)
	if _, err := st.GetRun(context.Background(), "missing"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestSqliteStore_DuplicateIDFails(t *testing.T) {
	st := openSqlite(t, false)
	ctx := context.Background()
	if err := st.RecordRun(ctx, sampleRun("dup", time.Now())); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := st.RecordRun(ctx, sampleRun("dup", time.Now())); err == nil {
		t.Fatalf("expected primary key violation")
	}
}

func TestOpen_Errors(t *testing.T) {
	if _, err := Open(Config{Driver: "oracle"}); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
	if _, err := Open(Config{Driver: DriverSqlite, TableNames: TableNames{PipelineRuns: "runs; DROP TABLE x"}}); err == nil {
		t.Fatalf("expected invalid table name error")
	}
	if _, err := Open(Config{Driver: DriverPostgresql, DriverConfig: &PostgresConfig{}}); err == nil {
		t.Fatalf("expected missing dsn error")
	}
}

func TestOpen_CustomTableInMemory(t *testing.T) {
	st, err := Open(Config{TableNames: TableNames{PipelineRuns: "app_pipeline_runs"}})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = st.Close() }()
	if st.Driver() != DriverSqlite || st.tables.PipelineRuns != "app_pipeline_runs" {
		t.Fatalf("unexpected store %+v", st)
	}
	if err := st.RecordRun(context.Background(), sampleRun("x", time.Now())); err != nil {
		t.Fatalf("record: %v", err)
	}
}

func TestStore_AsExecutorRecorder(t *testing.T) {
	st := openSqlite(t, true)
	inv := invoker(func(_ context.Context, b pipeline.Backend) (pipeline.Result, error) {
		return pipeline.Result{Content: b.URL, StatusCode: 200}, nil
	})
	e := pipeline.NewExecutor(pipeline.StaticSource{{Backends: []pipeline.Backend{{Method: "GET", URL: "http://a"}}}}, inv)
	e.Recorder = st

	run := e.Execute(context.Background())
	got, err := st.GetRun(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Results) != 1 || got.Results[0].Content != "http://a" {
		t.Fatalf("unexpected recorded results %+v", got.Results)
	}
}

type invoker func(ctx context.Context, b pipeline.Backend) (pipeline.Result, error)

func (f invoker) Invoke(ctx context.Context, b pipeline.Backend) (pipeline.Result, error) {
	return f(ctx, b)
}
