package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/hellodavidux/runtrace/pkg/schema"
)

const fixtureSchemaURL = "https://runtrace.dev/schemas/fixture.json"

// fixtureSchemaJSON describes the fixture document. Interval ordering,
// uniqueness and hierarchy are checked semantically.
const fixtureSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://runtrace.dev/schemas/fixture.json",
  "type": "object",
  "required": ["nodes"],
  "properties": {
    "workflow": { "type": "string" },
    "nodes": {
      "type": "array",
      "minItems": 1,
      "items": { "$ref": "#/$defs/node" }
    },
    "runs": {
      "type": "array",
      "items": { "$ref": "#/$defs/run" }
    }
  },
  "additionalProperties": false,
  "$defs": {
    "node": {
      "type": "object",
      "required": ["id", "label", "start_sec", "end_sec"],
      "properties": {
        "id": { "type": "string", "minLength": 1 },
        "label": { "type": "string" },
        "start_sec": { "type": "number", "minimum": 0 },
        "end_sec": { "type": "number", "minimum": 0 },
        "depth": { "type": "integer", "minimum": 0 },
        "has_children": { "type": "boolean" },
        "icon": {
          "type": "string",
          "enum": ["", "play", "zap", "file", "mail", "check", "send", "folder", "route", "branch"]
        },
        "status": { "type": "string", "enum": ["", "success", "error"] },
        "kind": { "type": "string", "enum": ["", "input", "output", "action"] },
        "app": { "type": "string" },
        "input": { "type": "object" },
        "output": { "type": "object" }
      },
      "additionalProperties": false
    },
    "run": {
      "type": "object",
      "required": ["run_id"],
      "properties": {
        "run_id": { "type": "string", "minLength": 1 },
        "conversation_id": { "type": "string" },
        "created": { "type": "string" },
        "status": { "type": "string", "enum": ["", "success", "error", "running"] },
        "input": { "type": "string" },
        "output": { "type": "string" },
        "latency": { "type": "string" },
        "tokens": { "type": "integer", "minimum": 0 },
        "user": { "type": "string" }
      },
      "additionalProperties": false
    }
  }
}`

// JSONSchemaValidator validates fixture documents against the embedded
// fixture schema. It is safe for concurrent use.
type JSONSchemaValidator struct {
	fixtureSchema *jsonschema.Schema
}

// NewJSONSchemaValidator compiles the fixture schema.
func NewJSONSchemaValidator() (*JSONSchemaValidator, error) {
	c := jsonschema.NewCompiler()
	c.AssertFormat()

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(fixtureSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshal fixture schema: %w", err)
	}
	if err := c.AddResource(fixtureSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("add fixture schema resource: %w", err)
	}
	compiled, err := c.Compile(fixtureSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile fixture schema: %w", err)
	}
	return &JSONSchemaValidator{fixtureSchema: compiled}, nil
}

// ValidateDocument validates a decoded fixture document. The value may come
// from encoding/json or yaml.v3; it is normalized to JSON values first.
func (v *JSONSchemaValidator) ValidateDocument(doc any) error {
	if doc == nil {
		return schema.NewError(schema.ErrCodeValidation, "fixture document is empty")
	}
	value, err := toJSONValue(doc)
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "fixture is not representable as JSON").WithCause(err)
	}
	if err := v.fixtureSchema.Validate(value); err != nil {
		return toTraceError(err)
	}
	return nil
}

// toJSONValue round-trips a Go value through JSON encoding so that numbers
// become json.Number, which the jsonschema library requires.
func toJSONValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(b))
}

// toTraceError flattens a jsonschema.ValidationError into one TraceError
// listing every leaf violation.
func toTraceError(err error) *schema.TraceError {
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return schema.NewError(schema.ErrCodeValidation, err.Error())
	}

	violations := collectViolations(verr)
	switch len(violations) {
	case 0:
		return schema.NewError(schema.ErrCodeValidation, verr.Error())
	case 1:
		return schema.NewError(schema.ErrCodeValidation, violations[0].String()).
			WithDetails(map[string]any{"violations": violations})
	default:
		return schema.NewErrorf(schema.ErrCodeValidation, "schema validation failed with %d errors", len(violations)).
			WithDetails(map[string]any{"violations": violations})
	}
}

// violation is one leaf schema error.
type violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (v violation) String() string {
	return v.Path + ": " + v.Message
}

func collectViolations(verr *jsonschema.ValidationError) []violation {
	if len(verr.Causes) == 0 {
		loc := "/"
		if len(verr.InstanceLocation) > 0 {
			loc = "/" + strings.Join(verr.InstanceLocation, "/")
		}
		return []violation{{Path: loc, Message: verr.Error()}}
	}

	var out []violation
	for _, cause := range verr.Causes {
		out = append(out, collectViolations(cause)...)
	}
	return out
}
