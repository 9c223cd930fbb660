package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source supplies the ordered pipeline list for one execution.
type Source interface {
	Load(ctx context.Context) ([]Pipeline, error)
}

// FileSource reads the pipeline document from disk on every Load.
type FileSource struct {
	Path string
}

func (s FileSource) Load(ctx context.Context) ([]Pipeline, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ConfigAcquisitionError{Source: s.Path, Err: err}
	}
	return LoadFile(s.Path)
}

// StaticSource serves a fixed pipeline list, validated on every Load.
type StaticSource []Pipeline

func (s StaticSource) Load(context.Context) ([]Pipeline, error) {
	if err := Validate(s); err != nil {
		return nil, &ConfigAcquisitionError{Source: "static", Err: err}
	}
	out := make([]Pipeline, len(s))
	copy(out, s)
	return out, nil
}

// LoadFile reads, decodes and validates a pipeline document. JSON is the
// default; .yaml and .yml files are decoded as YAML. Every failure is a
// *ConfigAcquisitionError.
func LoadFile(path string) ([]Pipeline, error) {
	clean := filepath.Clean(path)
	info, err := os.Stat(clean)
	if err != nil {
		return nil, &ConfigAcquisitionError{Source: clean, Err: err}
	}
	if !info.Mode().IsRegular() {
		return nil, &ConfigAcquisitionError{Source: clean, Err: fmt.Errorf("not a regular file")}
	}
	// #nosec G304 -- the pipeline path is operator configuration
	data, err := os.ReadFile(clean)
	if err != nil {
		return nil, &ConfigAcquisitionError{Source: clean, Err: err}
	}
	pipelines, err := Decode(data, formatOf(clean))
	if err != nil {
		return nil, &ConfigAcquisitionError{Source: clean, Err: err}
	}
	return pipelines, nil
}

// Decode parses and validates a pipeline document in the given format
// ("json" or "yaml").
func Decode(data []byte, format string) ([]Pipeline, error) {
	var pipelines []Pipeline
	switch format {
	case "yaml":
		if err := yaml.Unmarshal(data, &pipelines); err != nil {
			return nil, fmt.Errorf("decode yaml pipelines: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &pipelines); err != nil {
			return nil, fmt.Errorf("decode json pipelines: %w", err)
		}
	}
	if pipelines == nil {
		return nil, errors.New("pipeline document is empty or null")
	}
	if err := Validate(pipelines); err != nil {
		return nil, err
	}
	return pipelines, nil
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}
