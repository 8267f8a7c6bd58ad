package backend

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"
)

// selector unwraps a response payload with a jq expression.
type selector struct {
	expr string
	code *gojq.Code
}

func newSelector(expr string) (*selector, error) {
	if expr == "" {
		return nil, nil
	}

	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("jq parse error in %q: %w", expr, err)
	}

	code, err := gojq.Compile(query, gojq.WithEnvironLoader(func() []string { return nil }))
	if err != nil {
		return nil, fmt.Errorf("jq compile error in %q: %w", expr, err)
	}

	return &selector{expr: expr, code: code}, nil
}

// apply runs the selector over the JSON payload and returns the first output as
// JSON. A nil selector returns the payload unchanged.
//
// Objects go through Go maps, the output has its keys sorted. Status node order
// is only kept without a selector.
func (s *selector) apply(ctx context.Context, data []byte) ([]byte, error) {
	if s == nil || len(data) == 0 {
		return data, nil
	}

	var in any
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("invalid JSON payload: %w", err)
	}

	iter := s.code.RunWithContext(ctx, in)
	v, ok := iter.Next()
	if !ok {
		return []byte("null"), nil
	}
	if err, isErr := v.(error); isErr {
		return nil, fmt.Errorf("jq evaluation failed for %q: %w", s.expr, err)
	}

	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("could not encode %q output: %w", s.expr, err)
	}

	return out, nil
}
