package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hellodavidux/runtrace/internal/gantt"
	"github.com/hellodavidux/runtrace/internal/overlay"
)

const (
	// cellPx is how many timeline pixels one terminal column covers.
	cellPx = 4

	rowsTop      = 4
	labelCols    = 22
	identCols    = 14
	prefixCols   = 1 + 6 + 1 + labelCols + 1 + identCols + 1
	minTimeline  = 10
	defaultWidth = 100
)

func (m *Model) timelineColumns() int {
	w := m.width
	if w <= 0 {
		w = defaultWidth
	}
	return max(minTimeline, w-prefixCols)
}

func (m *Model) detailWidth() int {
	w := m.width
	if w <= 0 {
		w = defaultWidth
	}
	return max(30, min(w-4, 100))
}

// layoutDetail records where the detail panel sits so pointer gestures can
// be hit-tested against it.
func (m *Model) layoutDetail() {
	if !m.overlays.Open(detailOverlayID) || m.frame == nil {
		return
	}
	box := m.styles.overlay.Render(m.detailBody)
	m.overlays.SetBounds(detailOverlayID, overlay.Rect{
		X: 0,
		Y: rowsTop + len(m.frame.Rows) + 1,
		W: lipgloss.Width(box),
		H: lipgloss.Height(box),
	})
}

// View renders the timeline, the detail panel when open, and the help line.
func (m *Model) View() string {
	if m.frame == nil {
		return ""
	}
	var b strings.Builder

	title := m.title
	if title == "" {
		title = "Run timeline"
	}
	b.WriteString(m.styles.title.Render(title) + "\n")
	b.WriteString(m.subtitle() + "\n\n")
	b.WriteString(m.axis() + "\n")

	cols := m.timelineColumns()
	scroll := int(m.frame.ScrollPx / cellPx)
	for i, row := range m.frame.Rows {
		b.WriteString(m.renderRow(row, i == m.cursor, cols, scroll) + "\n")
	}

	b.WriteString("\n")
	if m.overlays.Open(detailOverlayID) {
		b.WriteString(m.styles.overlay.Render(m.detailBody) + "\n")
	}
	if m.toast != "" {
		b.WriteString(m.styles.toast.Render(m.toast) + "\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) subtitle() string {
	status := m.frame.Status()
	badge := m.styles.badge[status].Render(strings.ToUpper(string(status)))
	parts := []string{"run " + displayRunID(m.frame.RunID), badge}
	if m.frame.Active {
		parts = append(parts, fmt.Sprintf("%3.0f%%  t=%.1fs", m.frame.Progress*100, m.frame.SimulatedSec))
	}
	if top, ok := m.overlays.Top(); ok && top.Pinned {
		parts = append(parts, "pinned")
	}
	return m.styles.subtitle.Render(strings.Join(parts, "  "))
}

func displayRunID(id string) string {
	if id == "" {
		return "canonical"
	}
	return id
}

func (m *Model) axis() string {
	cols := m.timelineColumns()
	scroll := int(m.frame.ScrollPx / cellPx)
	line := []rune(strings.Repeat("·", cols))
	colsPerSec := gantt.CompactPxPerSec / cellPx
	for sec := 0; float64(sec) <= m.frame.HorizonSec; sec += 5 {
		col := int(float64(sec)*colsPerSec) - scroll
		for i, r := range fmt.Sprintf("%ds", sec) {
			if col+i >= 0 && col+i < cols {
				line[col+i] = r
			}
		}
	}
	if m.frame.Active {
		col := int(m.frame.SimulatedSec*colsPerSec) - scroll
		if col >= 0 && col < cols {
			line[col] = '▼'
		}
	}
	return strings.Repeat(" ", prefixCols) + m.styles.axis.Render(string(line))
}

func (m *Model) renderRow(row gantt.Row, selected bool, cols, scroll int) string {
	marker := " "
	if selected {
		marker = "›"
	}
	label := strings.Repeat("  ", row.Node.Depth) + row.Node.Label
	if row.Node.HasChildren {
		if m.session.Collapsed(row.Node.ID) {
			label = strings.Repeat("  ", row.Node.Depth) + "▸ " + row.Node.Label
		} else {
			label = strings.Repeat("  ", row.Node.Depth) + "▾ " + row.Node.Label
		}
	}

	prefix := fmt.Sprintf("%s%-6s %s %s ",
		marker,
		gantt.StatusTag(row.Status),
		fit(label, labelCols),
		fit(row.Identifier, identCols),
	)
	style := m.styles.row
	if selected {
		style = m.styles.rowSelected
	}
	return style.Render(prefix) + m.styles.forStatus(row.Status).Render(bar(row, cols, scroll))
}

func bar(row gantt.Row, cols, scroll int) string {
	cells := []rune(strings.Repeat(" ", cols))
	if row.Bar.WidthPx <= 0 {
		return string(cells)
	}
	from := int(row.Bar.LeftPx/cellPx) - scroll
	width := max(1, int(math.Ceil(row.Bar.WidthPx/cellPx)))
	for i := from; i < from+width; i++ {
		if i >= 0 && i < cols {
			cells[i] = '█'
		}
	}
	return string(cells)
}

func fit(s string, width int) string {
	r := []rune(s)
	if len(r) > width {
		return string(r[:width-1]) + "…"
	}
	return s + strings.Repeat(" ", width-len(r))
}
