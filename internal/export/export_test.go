package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hellodavidux/runtrace/internal/gantt"
	"github.com/hellodavidux/runtrace/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func built() *gantt.Result {
	nodes := []schema.TimelineNode{
		{ID: "1", Label: "User Input", StartSec: 0, EndSec: 1.2, Icon: schema.IconPlay},
		{ID: "5", Label: "Send, Email", StartSec: 13.5, EndSec: 15, Icon: schema.IconMail, Status: schema.StatusError},
	}
	return gantt.NewBuilder(nodes, nil).Build(gantt.Options{})
}

func TestRecords(t *testing.T) {
	recs := Records(built())
	require.Len(t, recs, 2)
	assert.Equal(t, "in-0", recs[0].Identifier)
	assert.Equal(t, "in", recs[0].Role)
	assert.Equal(t, schema.DisplayError, recs[1].Status)
	assert.InDelta(t, 1.5, recs[1].DurationSec, 1e-9)

	m := recs[1].Map()
	assert.Equal(t, "error", m["status"])
	assert.Equal(t, 13.5, m["start_sec"])
}

func TestRowsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RowsCSV(&buf, Records(built())))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,label,identifier,role,status,start_sec,end_sec,duration_sec,depth", lines[0])
	assert.Equal(t, "1,User Input,in-0,in,success,0,1.2,1.2,0", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], `5,"Send, Email",action-0,action,error,13.5,15,`))
}

func TestRowsJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RowsJSON(&buf, Records(built())))
	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "action-0", got[1]["identifier"])

	buf.Reset()
	require.NoError(t, RowsJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestDataCSV(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"scalar", 42.0, "42"},
		{"string", "hello", "hello"},
		{"null", nil, "null"},
		{"empty list", []any{}, ""},
		{
			"list of objects",
			[]any{
				map[string]any{"name": "a", "score": 1.0},
				map[string]any{"name": "b", "tags": []any{"x"}},
			},
			"name,score\na,1\nb,",
		},
		{"list of scalars", []any{1.0, "two"}, "value\n1\ntwo"},
		{
			"object",
			map[string]any{"status": "sent", "meta": map[string]any{"id": 7.0}},
			"Key,Value\nmeta,\"{\"\"id\"\":7}\"\nstatus,sent",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DataCSV(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDataJSON(t *testing.T) {
	got, err := DataJSON(map[string]any{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}", got)

	_, err = DataJSON(map[string]any{"bad": make(chan int)})
	var te *schema.TraceError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, schema.ErrCodeExport, te.Code)
}
