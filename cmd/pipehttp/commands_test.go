package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DaianCosta/pipehttp"
	"github.com/spf13/viper"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(viper.New())
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func newEchoServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, "%s %s", r.Method, r.URL.Path)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, dir, pipelines string, withStore bool) string {
	t.Helper()
	pp := writeFile(t, dir, "pipelines.yaml", pipelines)
	cfg := fmt.Sprintf("pipelines:\n  path: %s\nlogging:\n  level: error\n", pp)
	if withStore {
		cfg += fmt.Sprintf("store:\n  type: sqlite\n  save_results: true\n  sqlite:\n    path: %s\n", filepath.Join(dir, "runs.db"))
	}
	return writeFile(t, dir, "config.yaml", cfg)
}

func TestRunCommand_PrintsResults(t *testing.T) {
	srv := newEchoServer(t)
	dir := t.TempDir()
	cfg := writeConfig(t, dir, fmt.Sprintf(`
- config:
    sequential: true
  backends:
    - method: GET
      url: %[1]s/a
    - method: post
      url: %[1]s/b
`, srv.URL), false)

	out, err := runCLI(t, "run", "--config", cfg)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	var results []pipehttp.Result
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if len(results) != 2 || results[0].Content != "GET /a" || results[1].Content != "POST /b" {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestRunCommand_ConfigFailureReturnsError(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "config.yaml",
		fmt.Sprintf("pipelines:\n  path: %s\nlogging:\n  level: error\n", filepath.Join(dir, "missing.json")))

	out, err := runCLI(t, "run", "--config", cfg)
	if err == nil {
		t.Fatalf("expected error for missing pipeline file")
	}
	if strings.TrimSpace(out) != "[]" {
		t.Fatalf("expected empty results, got %q", out)
	}
}

func TestRunCommand_RecordsAndListsRuns(t *testing.T) {
	srv := newEchoServer(t)
	dir := t.TempDir()
	cfg := writeConfig(t, dir, fmt.Sprintf(`
- backends:
    - method: GET
      url: %[1]s/x
    - method: GET
      url: %[1]s/y
`, srv.URL), true)

	out, err := runCLI(t, "run", "--config", cfg, "--full")
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	var run pipehttp.Run
	if err := json.Unmarshal([]byte(out), &run); err != nil {
		t.Fatalf("decode run: %v\n%s", err, out)
	}
	if run.ID == "" || len(run.Results) != 2 {
		t.Fatalf("unexpected run: %+v", run)
	}

	out, err = runCLI(t, "runs", "--config", cfg)
	if err != nil {
		t.Fatalf("runs: %v\n%s", err, out)
	}
	if !strings.Contains(out, run.ID) || !strings.Contains(out, "ok") {
		t.Fatalf("run %s not listed:\n%s", run.ID, out)
	}

	out, err = runCLI(t, "runs", "--config", cfg, "--id", run.ID)
	if err != nil {
		t.Fatalf("runs --id: %v\n%s", err, out)
	}
	if !strings.Contains(out, "GET /x") {
		t.Fatalf("stored results missing:\n%s", out)
	}
}

func TestRunsCommand_RequiresStore(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir, "[]\n", false)
	if _, err := runCLI(t, "runs", "--config", cfg); err == nil {
		t.Fatalf("expected error without a store")
	}
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	good := writeConfig(t, dir, `
- name: users
  backends:
    - method: GET
      url: http://example.com/users
`, false)
	out, err := runCLI(t, "validate", "--config", good)
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "users: parallel, 1 backend(s)") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	bad := t.TempDir()
	cfg := writeConfig(t, bad, `
- backends:
    - method: FETCH
      url: http://example.com
`, false)
	if _, err := runCLI(t, "validate", "--config", cfg); err == nil {
		t.Fatalf("expected invalid method error")
	}
}

func TestValidateCommand_LeavesURLsToTransport(t *testing.T) {
	cmd := newValidateCmd(viper.New())
	if strings.Contains(cmd.Long, "Absolute") {
		t.Fatalf("help must only list checks validate performs:\n%s", cmd.Long)
	}

	dir := t.TempDir()
	cfg := writeConfig(t, dir, `
- backends:
    - method: GET
      url: not-a-url
`, false)
	out, err := runCLI(t, "validate", "--config", cfg)
	if err != nil {
		t.Fatalf("url shape is not validated at load time: %v\n%s", err, out)
	}
}

func TestPipelinesFlagOverridesConfig(t *testing.T) {
	srv := newEchoServer(t)
	dir := t.TempDir()
	cfg := writeConfig(t, dir, "[]\n", false)
	other := writeFile(t, dir, "other.json",
		fmt.Sprintf(`[{"config":{"sequential":true},"backends":[{"method":"GET","url":"%s/o"}]}]`, srv.URL))

	out, err := runCLI(t, "run", "--config", cfg, "--pipelines", other)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	if !strings.Contains(out, "GET /o") {
		t.Fatalf("override not applied:\n%s", out)
	}
}

func TestExplicitMissingConfigFails(t *testing.T) {
	if _, err := runCLI(t, "validate", "--config", filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing explicit config")
	}
}
