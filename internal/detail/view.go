package detail

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hellodavidux/runtrace/internal/gantt"
	"github.com/hellodavidux/runtrace/pkg/schema"
)

// View is what the node detail panel shows.
type View struct {
	NodeID      string               `json:"node_id"`
	Label       string               `json:"label"`
	Identifier  string               `json:"identifier"`
	Status      schema.DisplayStatus `json:"status"`
	DurationSec float64              `json:"duration_sec"`
	Input       any                  `json:"input"`
	Output      any                  `json:"output"`
}

// FromRow builds the detail view of a timeline row.
func FromRow(row gantt.Row) View {
	return View{
		NodeID:      row.Node.ID,
		Label:       row.Node.Label,
		Identifier:  row.Identifier,
		Status:      row.Status,
		DurationSec: row.Node.Duration(),
		Input:       normalizePayload(row.Node.Input),
		Output:      normalizePayload(row.Node.Output),
	}
}

// Title is the panel heading: label and node number.
func (v View) Title() string {
	return fmt.Sprintf("%s %s", v.Label, NodeNumber(v.identifier()))
}

func (v View) identifier() string {
	if v.Identifier == "" {
		return v.NodeID
	}
	return v.Identifier
}

// Markdown renders the view as a Markdown document.
func (v View) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", v.Title())
	fmt.Fprintf(&b, "`%s` · %s", v.identifier(), v.Status)
	if v.DurationSec > 0 && v.Status != schema.DisplayPending && v.Status != schema.DisplaySkipped {
		fmt.Fprintf(&b, " · %.1fs", v.DurationSec)
	}
	b.WriteString("\n\n")
	writeSection(&b, "Input", normalizePayload(v.Input))
	writeSection(&b, "Output", normalizePayload(v.Output))
	return b.String()
}

func writeSection(b *strings.Builder, title string, payload any) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		data = []byte(fmt.Sprintf("%q", fmt.Sprint(payload)))
	}
	fmt.Fprintf(b, "### %s\n\n```json\n%s\n```\n\n", title, data)
}

// Document returns the view as plain decoded JSON, the shape jq queries run on.
func (v View) Document() (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeQuery, "encode node detail").WithNode(v.NodeID).WithCause(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, schema.NewError(schema.ErrCodeQuery, "decode node detail").WithNode(v.NodeID).WithCause(err)
	}
	return doc, nil
}
