package validation

import (
	"encoding/json"
	"testing"

	"github.com/hellodavidux/runtrace/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newValidator(t *testing.T) *FixtureValidator {
	t.Helper()
	v, err := NewFixtureValidator()
	require.NoError(t, err)
	return v
}

func validFixture() *schema.Fixture {
	return &schema.Fixture{
		Workflow: "Support agent",
		Nodes: []schema.TimelineNode{
			{ID: "1", Label: "User Input", StartSec: 0, EndSec: 1.2, Icon: schema.IconPlay},
			{ID: "2", Label: "AI Agent", StartSec: 1.2, EndSec: 8, Icon: schema.IconZap},
			{ID: "9", Label: "Project node", StartSec: 0, EndSec: 6, HasChildren: true, Icon: schema.IconFolder},
			{ID: "9a", Label: "Notion", StartSec: 1, EndSec: 3, Depth: 1, Icon: schema.IconFile},
			{ID: "8", Label: "Send Output", StartSec: 16, EndSec: 17, Icon: schema.IconSend},
		},
		Runs: []schema.RunSummary{{RunID: "r1", Status: schema.RunStatusSuccess, Tokens: 12}},
	}
}

func decode(t *testing.T, doc string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(doc), &v))
	return v
}

func codes(issues []schema.ValidationIssue) []string {
	out := make([]string, len(issues))
	for i, is := range issues {
		out[i] = is.Code
	}
	return out
}

func TestValidateValidFixture(t *testing.T) {
	res := newValidator(t).Validate(validFixture())
	assert.True(t, res.Valid(), "%v", res.Errors)
	assert.Empty(t, res.Warnings)
	assert.NoError(t, res.ToError())
}

func TestValidateNil(t *testing.T) {
	res := newValidator(t).Validate(nil)
	assert.False(t, res.Valid())
}

func TestValidateDocumentStructural(t *testing.T) {
	doc := decode(t, `{
		"nodes": [
			{"id": "1", "label": "User Input", "start_sec": 0, "end_sec": 1},
			{"id": "2", "label": "AI Agent", "start_sec": "late", "end_sec": 3, "colour": "red"}
		]
	}`)
	res := newValidator(t).ValidateDocument(doc)
	require.False(t, res.Valid())
	for _, is := range res.Errors {
		assert.Equal(t, schema.ErrCodeValidation, is.Code)
		assert.Equal(t, "2", is.NodeID, is.String())
	}
}

func TestValidateDocumentMissingNodes(t *testing.T) {
	res := newValidator(t).ValidateDocument(decode(t, `{"workflow": "x"}`))
	require.False(t, res.Valid())
	assert.Empty(t, res.Errors[0].NodeID)

	res = newValidator(t).ValidateDocument(nil)
	assert.False(t, res.Valid())
}

func TestValidateDocumentUnknownEnum(t *testing.T) {
	doc := decode(t, `{"nodes": [{"id": "1", "label": "x", "start_sec": 0, "end_sec": 1, "icon": "rocket"}]}`)
	res := newValidator(t).ValidateDocument(doc)
	require.False(t, res.Valid())
	assert.Equal(t, "1", res.Errors[0].NodeID)
	assert.Contains(t, res.Errors[0].Path, "/nodes/0")
}

func TestValidateDocumentValid(t *testing.T) {
	doc := decode(t, `{
		"workflow": "w",
		"nodes": [{"id": "1", "label": "User Input", "start_sec": 0, "end_sec": 1.2, "icon": "play", "input": {"q": "hi"}}],
		"runs": [{"run_id": "abc", "status": "error", "tokens": 5}]
	}`)
	res := newValidator(t).ValidateDocument(doc)
	assert.True(t, res.Valid(), "%v", res.Errors)
}

func TestSemanticDuplicateID(t *testing.T) {
	f := validFixture()
	f.Nodes[1].ID = "1"
	res := newValidator(t).Validate(f)
	require.False(t, res.Valid())
	assert.Equal(t, []string{schema.ErrCodeDuplicateID}, codes(res.Errors))
	assert.Equal(t, "nodes[1].id", res.Errors[0].Path)
}

func TestSemanticInvalidInterval(t *testing.T) {
	f := validFixture()
	f.Nodes[1].EndSec = f.Nodes[1].StartSec
	res := newValidator(t).Validate(f)
	require.False(t, res.Valid())
	assert.Equal(t, schema.ErrCodeInvalidInterval, res.Errors[0].Code)
	assert.Equal(t, "2", res.Errors[0].NodeID)

	err := res.ToError()
	var te *schema.TraceError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, schema.ErrCodeInvalidInterval, te.Code)
	assert.Equal(t, "2", te.NodeID)
}

func TestSemanticHorizonWarning(t *testing.T) {
	f := validFixture()
	f.Nodes[4].EndSec = 24
	res := newValidator(t).Validate(f)
	assert.True(t, res.Valid())
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "8", res.Warnings[0].NodeID)
}

func TestSemanticSingleInput(t *testing.T) {
	f := validFixture()
	f.Nodes = append(f.Nodes, schema.TimelineNode{ID: "10", Label: "Form", StartSec: 2, EndSec: 3, Kind: schema.KindInput})
	res := newValidator(t).Validate(f)
	require.False(t, res.Valid())
	assert.Equal(t, "10", res.Errors[0].NodeID)
}

func TestSemanticDuplicateRun(t *testing.T) {
	f := validFixture()
	f.Runs = append(f.Runs, schema.RunSummary{RunID: "r1"})
	res := newValidator(t).Validate(f)
	require.False(t, res.Valid())
	assert.Equal(t, "runs[1].run_id", res.Errors[0].Path)
}

func TestHierarchy(t *testing.T) {
	tests := []struct {
		name     string
		nodes    []schema.TimelineNode
		errors   int
		warnings int
	}{
		{
			name:  "flat",
			nodes: []schema.TimelineNode{{ID: "a"}, {ID: "b"}},
		},
		{
			name:   "first nested",
			nodes:  []schema.TimelineNode{{ID: "a", Depth: 1}},
			errors: 1,
		},
		{
			name:   "jump",
			nodes:  []schema.TimelineNode{{ID: "g", HasChildren: true}, {ID: "c", Depth: 2}},
			errors: 1, warnings: 0,
		},
		{
			name:   "child of non-group",
			nodes:  []schema.TimelineNode{{ID: "a"}, {ID: "c", Depth: 1}},
			errors: 1,
		},
		{
			name:     "empty group",
			nodes:    []schema.TimelineNode{{ID: "g", HasChildren: true}, {ID: "b"}},
			warnings: 1,
		},
		{
			name: "nested groups",
			nodes: []schema.TimelineNode{
				{ID: "g", HasChildren: true},
				{ID: "h", Depth: 1, HasChildren: true},
				{ID: "c", Depth: 2},
				{ID: "d", Depth: 1},
				{ID: "e"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := validateHierarchy(tt.nodes)
			assert.Len(t, res.Errors, tt.errors, "%v", res.Errors)
			assert.Len(t, res.Warnings, tt.warnings, "%v", res.Warnings)
			for _, is := range res.Errors {
				assert.Equal(t, schema.ErrCodeHierarchy, is.Code)
			}
		})
	}
}

func TestNodeAt(t *testing.T) {
	ids := []string{"a", "b"}
	assert.Equal(t, "b", nodeAt(ids, "/nodes/1/end_sec"))
	assert.Equal(t, "a", nodeAt(ids, "/nodes/0"))
	assert.Equal(t, "", nodeAt(ids, "/nodes/7"))
	assert.Equal(t, "", nodeAt(ids, "/runs/0"))
}
