package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/hellodavidux/runtrace/pkg/schema"
)

type styles struct {
	title, subtitle  lipgloss.Style
	row, rowSelected lipgloss.Style
	ident, axis      lipgloss.Style
	overlay, toast   lipgloss.Style
	status           map[schema.DisplayStatus]lipgloss.Style
	badge            map[schema.RunStatus]lipgloss.Style
}

func newStyles() styles {
	base := lipgloss.NewStyle()

	return styles{
		title:       base.Copy().Bold(true).Padding(0, 1),
		subtitle:    base.Copy().Faint(true).Padding(0, 1),
		row:         base,
		rowSelected: base.Copy().Bold(true).Reverse(true),
		ident:       base.Copy().Faint(true),
		axis:        base.Copy().Faint(true),
		overlay:     base.Copy().Border(lipgloss.RoundedBorder()).Padding(0, 1),
		toast:       base.Copy().Italic(true).Padding(0, 1),
		status: map[schema.DisplayStatus]lipgloss.Style{
			schema.DisplaySuccess: base.Copy().Foreground(lipgloss.Color("2")),
			schema.DisplayError:   base.Copy().Foreground(lipgloss.Color("1")),
			schema.DisplayRunning: base.Copy().Foreground(lipgloss.Color("4")),
			schema.DisplayPending: base.Copy().Faint(true),
			schema.DisplaySkipped: base.Copy().Faint(true).Strikethrough(true),
		},
		badge: map[schema.RunStatus]lipgloss.Style{
			schema.RunStatusSuccess: base.Copy().Foreground(lipgloss.Color("2")).Bold(true),
			schema.RunStatusError:   base.Copy().Foreground(lipgloss.Color("1")).Bold(true),
			schema.RunStatusRunning: base.Copy().Foreground(lipgloss.Color("4")).Bold(true),
		},
	}
}

func (s styles) forStatus(st schema.DisplayStatus) lipgloss.Style {
	if style, ok := s.status[st]; ok {
		return style
	}
	return s.row
}
