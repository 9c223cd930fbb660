package pipeline

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Method is the closed set of HTTP verbs a backend may use.
type Method string

const (
	MethodGet     Method = http.MethodGet
	MethodHead    Method = http.MethodHead
	MethodPost    Method = http.MethodPost
	MethodPut     Method = http.MethodPut
	MethodPatch   Method = http.MethodPatch
	MethodDelete  Method = http.MethodDelete
	MethodOptions Method = http.MethodOptions
	MethodTrace   Method = http.MethodTrace
)

var methods = map[string]Method{
	http.MethodGet:     MethodGet,
	http.MethodHead:    MethodHead,
	http.MethodPost:    MethodPost,
	http.MethodPut:     MethodPut,
	http.MethodPatch:   MethodPatch,
	http.MethodDelete:  MethodDelete,
	http.MethodOptions: MethodOptions,
	http.MethodTrace:   MethodTrace,
}

// ParseMethod maps a method token onto the enumeration. Matching is
// case-insensitive; surrounding whitespace is ignored.
func ParseMethod(s string) (Method, error) {
	if m, ok := methods[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMethod, s)
}

// Backend describes one downstream call. It is never mutated after loading.
type Backend struct {
	Method  string            `json:"method" yaml:"method" validate:"required"`
	URL     string            `json:"url" yaml:"url" validate:"required"`
	Body    *string           `json:"body" yaml:"body"`
	Headers map[string]string `json:"headers" yaml:"headers"`
}

// JoinPolicy decides what a parallel pipeline keeps when some backends fail.
type JoinPolicy string

const (
	// JoinFailFast discards every Result of the pipeline on the first failure.
	JoinFailFast JoinPolicy = "fail_fast"
	// JoinCollectAll keeps each backend's Result, marking failed ones with ErrorInfo.
	JoinCollectAll JoinPolicy = "collect_all"
)

// Config is the per-pipeline execution settings block.
type Config struct {
	Sequential bool       `json:"sequential" yaml:"sequential"`
	JoinPolicy JoinPolicy `json:"join_policy,omitempty" yaml:"join_policy,omitempty" validate:"omitempty,oneof=fail_fast collect_all"`
}

// Pipeline is an ordered list of backends plus its execution mode.
type Pipeline struct {
	Name     string    `json:"name,omitempty" yaml:"name,omitempty"`
	Config   Config    `json:"config" yaml:"config"`
	Backends []Backend `json:"backends" yaml:"backends" validate:"required,dive"`
}

// Mode returns "sequential" or "parallel".
func (p Pipeline) Mode() string {
	if p.Config.Sequential {
		return "sequential"
	}
	return "parallel"
}

// ErrorInfo describes why a backend produced no response. It only appears in
// Results of collect_all pipelines.
type ErrorInfo struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Result is what one backend call contributed to the Run Output.
type Result struct {
	Content    string            `json:"content"`
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers,omitempty"`
	Error      *ErrorInfo        `json:"error,omitempty"`
}

// State is the lifecycle position of one pipeline inside an execution.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// PipelineOutcome summarizes how one pipeline ended.
type PipelineOutcome struct {
	Index      int    `json:"index"`
	Name       string `json:"name,omitempty"`
	Mode       string `json:"mode"`
	State      State  `json:"state"`
	Results    int    `json:"results"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// Run is the value produced by one Execute call. Results is the Run Output.
type Run struct {
	ID         string            `json:"id"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Results    []Result          `json:"results"`
	Pipelines  []PipelineOutcome `json:"pipelines"`
	// Err holds the config acquisition failure, if any.
	Err error `json:"-"`
}

// Failed reports whether any pipeline failed or the config could not be loaded.
func (r *Run) Failed() bool {
	if r.Err != nil {
		return true
	}
	for _, p := range r.Pipelines {
		if p.State == StateFailed {
			return true
		}
	}
	return false
}
