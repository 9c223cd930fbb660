package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/DaianCosta/pipehttp/internal/common"
)

// ErrInvalidMethod is returned when a backend names an HTTP verb outside the enumeration.
var ErrInvalidMethod = errors.New("invalid http method")

// ConfigAcquisitionError means the pipeline list could not be obtained. It is
// fatal to the whole execution.
type ConfigAcquisitionError struct {
	Source string
	Err    error
}

func (e *ConfigAcquisitionError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("config acquisition failed: %v", e.Err)
	}
	return fmt.Sprintf("config acquisition failed (%s): %v", e.Source, e.Err)
}

func (e *ConfigAcquisitionError) Unwrap() error { return e.Err }

// TransportError is a connection, TLS or deadline failure of one backend call.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// PipelineExecutionError wraps whatever stopped a pipeline. The executor logs
// it and moves on to the next pipeline.
type PipelineExecutionError struct {
	Index int
	Name  string
	Mode  string
	Err   error
}

func (e *PipelineExecutionError) Error() string {
	label := fmt.Sprintf("pipeline %d", e.Index)
	if e.Name != "" {
		label = fmt.Sprintf("pipeline %d (%s)", e.Index, e.Name)
	}
	return fmt.Sprintf("%s %s execution failed: %v", label, e.Mode, e.Err)
}

func (e *PipelineExecutionError) Unwrap() error { return e.Err }

// errorInfo classifies err for a collect_all Result.
func errorInfo(err error) *ErrorInfo {
	kind := "transport"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = "deadline_exceeded"
	case errors.Is(err, context.Canceled):
		kind = "canceled"
	}
	return &ErrorInfo{Kind: kind, Message: common.MaskSensitiveData(err.Error())}
}
