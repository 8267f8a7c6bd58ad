package structure

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/slok/stagewatch/internal/model"
)

// Parse returns the stage tree of a backend structure payload, detecting its format:
//
//   - Structured: a JSON object (or an array whose first item is an object) with the stage tree.
//   - Bordered: a JSON array of strings with the box drawn textual form.
//
// Empty payloads and malformed bordered roots return a nil tree without error,
// there is no structure available. Invalid JSON and structured payloads not
// matching the stage shape return an error.
func Parse(payload []byte) (*model.StageNode, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 || string(payload) == "null" {
		return nil, nil
	}

	switch payload[0] {
	case '{':
		return parseStructured(payload)
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(payload, &items); err != nil {
			return nil, fmt.Errorf("could not decode structure payload: %w", err)
		}
		if len(items) == 0 {
			return nil, nil
		}

		first := bytes.TrimSpace(items[0])
		switch {
		case len(first) > 0 && first[0] == '{':
			return parseStructured(first)
		case len(first) > 0 && first[0] == '"':
			var lines []string
			if err := json.Unmarshal(payload, &lines); err != nil {
				return nil, fmt.Errorf("could not decode bordered structure lines: %w", err)
			}
			return ParseBordered(lines), nil
		}
	}

	return nil, fmt.Errorf("unknown structure payload format: %w", model.ErrNotValid)
}

func parseStructured(payload []byte) (*model.StageNode, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, fmt.Errorf("could not decode structure payload: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	if err := validateShape(payload); err != nil {
		return nil, err
	}

	var root model.StageNode
	if err := json.Unmarshal(payload, &root); err != nil {
		return nil, fmt.Errorf("could not decode stage tree: %w", err)
	}

	return &root, nil
}

const stageSchemaURL = "https://stagewatch.local/schemas/stage.json"

const stageSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["stage_name"],
  "properties": {
    "stage_name": {"type": "string", "minLength": 1},
    "stage_mode": {"type": "string"},
    "func_name": {"type": "string"},
    "visited": {"type": "boolean"},
    "next_stages": {
      "type": ["array", "null"],
      "items": {"$ref": "#"}
    }
  }
}`

var stageSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(stageSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshal stage schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(stageSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("add stage schema resource: %w", err)
	}

	return c.Compile(stageSchemaURL)
})

func validateShape(payload []byte) error {
	schema, err := stageSchema()
	if err != nil {
		return fmt.Errorf("could not compile stage schema: %w", err)
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("could not decode structure payload: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("structure payload is not a stage tree: %s: %w", err, model.ErrNotValid)
	}

	return nil
}
