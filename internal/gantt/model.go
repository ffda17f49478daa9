package gantt

import (
	"time"

	"github.com/hellodavidux/runtrace/internal/timeline"
	"github.com/hellodavidux/runtrace/pkg/schema"
)

// Geometry constants for the two timeline layouts.
const (
	CompactPxPerSec  = 20.0
	CompactDonePill  = 32.0
	CompactMinBarPx  = 6.0
	MinWidthPct      = 1.0
	DurationLabelPct = 3.0
)

// Options describes what the host view is showing.
type Options struct {
	RunID          string
	Collapsed      map[string]bool
	Running        bool
	StartTime      *time.Time
	Now            time.Time
	Compact        bool
	ViewportWidth  float64
	SelectedNodeID string
}

// Bar is the geometry of one timeline bar.
type Bar struct {
	LeftPct   float64 `json:"left_pct"`
	WidthPct  float64 `json:"width_pct"`
	LeftPx    float64 `json:"left_px,omitempty"`
	WidthPx   float64 `json:"width_px,omitempty"`
	ShowLabel bool    `json:"show_label"`
}

// Row is one rendered timeline line.
type Row struct {
	Node       schema.TimelineNode  `json:"node"`
	Identifier string               `json:"identifier"`
	Role       timeline.Role        `json:"role"`
	Phase      schema.Phase         `json:"phase"`
	Status     schema.DisplayStatus `json:"status"`
	Selected   bool                 `json:"selected,omitempty"`
	Bar        Bar                  `json:"bar"`
}

// Result is everything a view needs to draw a timeline.
type Result struct {
	RunID        string  `json:"run_id,omitempty"`
	Rows         []Row   `json:"rows"`
	HorizonSec   float64 `json:"horizon_sec"`
	Active       bool    `json:"active"`
	Progress     float64 `json:"progress"`
	SimulatedSec float64 `json:"simulated_sec"`
	AreaWidthPx  float64 `json:"area_width_px,omitempty"`
	ScrollPx     float64 `json:"scroll_px,omitempty"`
}

// Done reports whether a live playback reached the end.
func (r *Result) Done() bool {
	return r.Active && r.Progress >= 1
}

// Row returns the row for a node ID.
func (r *Result) Row(id string) (Row, bool) {
	for _, row := range r.Rows {
		if row.Node.ID == id {
			return row, true
		}
	}
	return Row{}, false
}

// Status summarizes the run: error if any node errored, running while any
// node is pending or running, success otherwise.
func (r *Result) Status() schema.RunStatus {
	running := false
	for _, row := range r.Rows {
		switch row.Status {
		case schema.DisplayError:
			return schema.RunStatusError
		case schema.DisplayPending, schema.DisplayRunning:
			running = true
		}
	}
	if running {
		return schema.RunStatusRunning
	}
	return schema.RunStatusSuccess
}
