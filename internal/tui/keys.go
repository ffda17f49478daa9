package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	up       key.Binding
	down     key.Binding
	collapse key.Binding
	detail   key.Binding
	pin      key.Binding
	close    key.Binding
	play     key.Binding
	newRun   key.Binding
	copyID   key.Binding
	help     key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "previous node"),
		),
		down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next node"),
		),
		collapse: key.NewBinding(
			key.WithKeys(" ", "space"),
			key.WithHelp("space", "collapse group"),
		),
		detail: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "node detail"),
		),
		pin: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "pin detail"),
		),
		close: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close panel"),
		),
		play: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "replay run"),
		),
		newRun: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new run"),
		),
		copyID: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy identifier"),
		),
		help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.up, k.down, k.detail, k.play, k.copyID, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.collapse},
		{k.detail, k.pin, k.close},
		{k.play, k.newRun, k.copyID},
		{k.help, k.quit},
	}
}
