// Package export writes timeline rows and node payloads as CSV or JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/hellodavidux/runtrace/internal/gantt"
	"github.com/hellodavidux/runtrace/pkg/schema"
)

// Record is the exported form of one timeline row.
type Record struct {
	ID          string               `json:"id"`
	Label       string               `json:"label"`
	Identifier  string               `json:"identifier"`
	Role        string               `json:"role"`
	Status      schema.DisplayStatus `json:"status"`
	StartSec    float64              `json:"start_sec"`
	EndSec      float64              `json:"end_sec"`
	DurationSec float64              `json:"duration_sec"`
	Depth       int                  `json:"depth"`
}

var recordHeader = []string{"id", "label", "identifier", "role", "status", "start_sec", "end_sec", "duration_sec", "depth"}

// Records converts the rows of a built timeline.
func Records(res *gantt.Result) []Record {
	out := make([]Record, len(res.Rows))
	for i, row := range res.Rows {
		out[i] = Record{
			ID:          row.Node.ID,
			Label:       row.Node.Label,
			Identifier:  row.Identifier,
			Role:        string(row.Role),
			Status:      row.Status,
			StartSec:    row.Node.StartSec,
			EndSec:      row.Node.EndSec,
			DurationSec: row.Node.Duration(),
			Depth:       row.Node.Depth,
		}
	}
	return out
}

// Map returns the record as a generic map, the shape query engines see.
func (r Record) Map() map[string]any {
	return map[string]any{
		"id":           r.ID,
		"label":        r.Label,
		"identifier":   r.Identifier,
		"role":         r.Role,
		"status":       string(r.Status),
		"start_sec":    r.StartSec,
		"end_sec":      r.EndSec,
		"duration_sec": r.DurationSec,
		"depth":        r.Depth,
	}
}

// RowsJSON writes records as an indented JSON array.
func RowsJSON(w io.Writer, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return schema.NewError(schema.ErrCodeExport, "encode rows").WithCause(err)
	}
	return nil
}

// RowsCSV writes records as CSV with a header line.
func RowsCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(recordHeader); err != nil {
		return schema.NewError(schema.ErrCodeExport, "write csv header").WithCause(err)
	}
	for _, r := range records {
		line := []string{
			r.ID,
			r.Label,
			r.Identifier,
			r.Role,
			string(r.Status),
			formatFloat(r.StartSec),
			formatFloat(r.EndSec),
			formatFloat(r.DurationSec),
			strconv.Itoa(r.Depth),
		}
		if err := cw.Write(line); err != nil {
			return schema.NewError(schema.ErrCodeExport, "write csv row").WithNode(r.ID).WithCause(err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return schema.NewError(schema.ErrCodeExport, "flush csv").WithCause(err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
