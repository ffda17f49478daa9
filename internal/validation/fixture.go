package validation

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/hellodavidux/runtrace/pkg/schema"
)

// FixtureValidator runs the validation pipeline:
// 1. Structural (JSON Schema)
// 2. Semantic (IDs, intervals, horizon, input uniqueness)
// 3. Hierarchy (depth structure)
type FixtureValidator struct {
	jsonSchema *JSONSchemaValidator
}

// NewFixtureValidator creates a FixtureValidator.
func NewFixtureValidator() (*FixtureValidator, error) {
	jsv, err := NewJSONSchemaValidator()
	if err != nil {
		return nil, err
	}
	return &FixtureValidator{jsonSchema: jsv}, nil
}

// ValidateDocument validates a raw decoded document. Structural errors
// short-circuit the later stages.
func (fv *FixtureValidator) ValidateDocument(doc any) *schema.ValidationResult {
	result := validateStructural(fv.jsonSchema, doc)
	if !result.Valid() {
		return result
	}

	f, err := decodeFixture(doc)
	if err != nil {
		result.AddError("/", "", schema.ErrCodeValidation, err.Error())
		return result
	}
	result.Merge(validateFixture(f))
	return result
}

// Validate validates an already decoded fixture.
func (fv *FixtureValidator) Validate(f *schema.Fixture) *schema.ValidationResult {
	if f == nil {
		r := &schema.ValidationResult{}
		r.AddError("/", "", schema.ErrCodeValidation, "fixture is nil")
		return r
	}
	result := validateStructural(fv.jsonSchema, f)
	if !result.Valid() {
		return result
	}
	result.Merge(validateFixture(f))
	return result
}

func validateFixture(f *schema.Fixture) *schema.ValidationResult {
	result := validateSemantic(f)
	// Depth checks assume node IDs are sound.
	if result.Valid() {
		result.Merge(validateHierarchy(f.Nodes))
	}
	return result
}

// validateStructural converts schema violations into issues, attaching the
// node ID when a violation points into the node list.
func validateStructural(v *JSONSchemaValidator, doc any) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	err := v.ValidateDocument(doc)
	if err == nil {
		return result
	}

	var te *schema.TraceError
	if !errors.As(err, &te) {
		result.AddError("/", "", schema.ErrCodeValidation, err.Error())
		return result
	}
	violations, ok := te.Details["violations"].([]violation)
	if !ok {
		result.AddError("/", "", te.Code, te.Message)
		return result
	}

	ids := nodeIDs(doc)
	for _, vi := range violations {
		result.AddError(vi.Path, nodeAt(ids, vi.Path), schema.ErrCodeValidation, vi.Message)
	}
	return result
}

func decodeFixture(doc any) (*schema.Fixture, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var f schema.Fixture
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func nodeIDs(doc any) []string {
	var probe struct {
		Nodes []struct {
			ID string `json:"id"`
		} `json:"nodes"`
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return nil
	}
	// Best effort: a malformed list just yields no IDs.
	_ = json.Unmarshal(b, &probe)
	ids := make([]string, len(probe.Nodes))
	for i, n := range probe.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// nodeAt maps an instance location like /nodes/3/end_sec to the ID of node 3.
func nodeAt(ids []string, path string) string {
	rest, ok := strings.CutPrefix(path, "/nodes/")
	if !ok {
		return ""
	}
	idx, _, _ := strings.Cut(rest, "/")
	i, err := strconv.Atoi(idx)
	if err != nil || i < 0 || i >= len(ids) {
		return ""
	}
	return ids[i]
}

var _ Validator = (*FixtureValidator)(nil)
