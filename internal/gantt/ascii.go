package gantt

import (
	"fmt"
	"math"
	"strings"

	"github.com/hellodavidux/runtrace/pkg/schema"
)

const (
	defaultBarColumns = 60
	labelColumns      = 24
	identColumns      = 16
	indentPerDepth    = 2
	axisTickSec       = 5
)

// StatusTag returns a short ASCII indicator for a display status.
func StatusTag(s schema.DisplayStatus) string {
	switch s {
	case schema.DisplaySuccess:
		return "[OK]"
	case schema.DisplayError:
		return "[FAIL]"
	case schema.DisplayRunning:
		return "[RUN]"
	case schema.DisplayPending:
		return "[PEND]"
	case schema.DisplaySkipped:
		return "[SKIP]"
	default:
		return ""
	}
}

// RenderASCII renders a Result as a text Gantt chart. barColumns is the
// width of the bar area; non-positive values use 60 columns.
func RenderASCII(title string, res *Result, barColumns int) string {
	if barColumns <= 0 {
		barColumns = defaultBarColumns
	}
	var b strings.Builder

	if title != "" {
		fmt.Fprintf(&b, "=== %s ===\n", title)
	}
	if res.RunID != "" {
		fmt.Fprintf(&b, "run %s  status %s\n", res.RunID, res.Status())
	}
	if res.Active {
		fmt.Fprintf(&b, "playback %3.0f%%  t=%.1fs\n", res.Progress*100, res.SimulatedSec)
	}
	b.WriteByte('\n')

	prefix := strings.Repeat(" ", 11+labelColumns+identColumns)
	b.WriteString(prefix + axisLine(res.HorizonSec, barColumns) + "\n")
	if res.Active {
		col := int(math.Min(float64(barColumns-1), res.SimulatedSec/res.HorizonSec*float64(barColumns)))
		b.WriteString(prefix + strings.Repeat(" ", col) + "v\n")
	}

	for _, row := range res.Rows {
		label := strings.Repeat(" ", row.Node.Depth*indentPerDepth) + row.Node.Label
		marker := " "
		if row.Selected {
			marker = ">"
		}
		fmt.Fprintf(&b, "%s%-6s %s %s |%s| %s\n",
			marker,
			StatusTag(row.Status),
			pad(label, labelColumns),
			pad(row.Identifier, identColumns),
			barLine(row, res, barColumns),
			durationText(row),
		)
	}
	return b.String()
}

func axisLine(horizon float64, cols int) string {
	line := []rune(strings.Repeat("-", cols))
	for sec := 0; float64(sec) <= horizon; sec += axisTickSec {
		col := int(float64(sec) / horizon * float64(cols))
		label := []rune(fmt.Sprintf("%ds", sec))
		for i, r := range label {
			if col+i < cols {
				line[col+i] = r
			}
		}
	}
	return string(line)
}

func barLine(row Row, res *Result, cols int) string {
	cells := []rune(strings.Repeat(" ", cols))
	n := row.Node
	from := int(math.Floor(n.StartSec / res.HorizonSec * float64(cols)))
	to := int(math.Ceil(n.EndSec / res.HorizonSec * float64(cols)))
	from = clampInt(from, 0, cols-1)
	to = clampInt(to, from+1, cols)

	fill := '#'
	switch row.Status {
	case schema.DisplayError:
		fill = 'x'
	case schema.DisplaySkipped:
		fill = '.'
	case schema.DisplayPending:
		return string(cells)
	case schema.DisplayRunning:
		to = clampInt(int(math.Ceil(res.SimulatedSec/res.HorizonSec*float64(cols))), from+1, to)
		fill = '='
	}
	for i := from; i < to; i++ {
		cells[i] = fill
	}
	if row.Status == schema.DisplayRunning {
		cells[to-1] = '>'
	}
	return string(cells)
}

func durationText(row Row) string {
	switch row.Status {
	case schema.DisplayPending, schema.DisplaySkipped:
		return ""
	case schema.DisplayRunning:
		return "running"
	default:
		return fmt.Sprintf("%.1fs", row.Node.Duration())
	}
}

func pad(s string, width int) string {
	r := []rune(s)
	if len(r) > width {
		return string(r[:width-1]) + "~"
	}
	return s + strings.Repeat(" ", width-len(r))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
