// Package match evaluates JSONata expressions against JSON documents.
package match

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonata "github.com/blues/jsonata-go"
	"github.com/tidwall/gjson"
)

var (
	// ErrEmptyQuery is returned when the instruction is blank.
	ErrEmptyQuery = errors.New("instruction is required")
	// ErrInvalidDocument is returned when data is not valid JSON.
	ErrInvalidDocument = errors.New("data is not valid JSON")
	// ErrInvalidQuery is returned when the instruction is not a valid JSONata expression.
	ErrInvalidQuery = errors.New("invalid instruction")
)

// Evaluate compiles query as a JSONata expression, runs it on document and
// returns the result as JSON. An expression that yields nothing gives the
// JSON literal null.
func Evaluate(query string, document []byte) ([]byte, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if !gjson.ValidBytes(document) {
		return nil, ErrInvalidDocument
	}

	expr, err := jsonata.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}

	var data interface{}
	if err := json.Unmarshal(document, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	res, err := expr.Eval(data)
	if errors.Is(err, jsonata.ErrUndefined) {
		return []byte("null"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("evaluate %q: %w", query, err)
	}

	out, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("encode result of %q: %w", query, err)
	}
	return out, nil
}
