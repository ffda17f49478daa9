package detail

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

// Theme selects the glamour style.
type Theme string

const (
	ThemeAuto  Theme = "auto"
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
	ThemeNoTTY Theme = "notty"
)

type rendererKey struct {
	theme Theme
	width int
}

var (
	renderMu  sync.Mutex
	renderers = map[rendererKey]*glamour.TermRenderer{}
)

// Render returns glamour terminal output for markdown. When the renderer
// cannot be built or fails, the markdown is returned unchanged with the error.
func Render(markdown string, theme Theme, width int) (string, error) {
	renderMu.Lock()
	defer renderMu.Unlock()

	r, err := renderer(theme, width)
	if err != nil {
		return markdown, err
	}
	out, err := r.Render(markdown)
	if err != nil {
		return markdown, err
	}
	return out, nil
}

// renderer must be called with renderMu held.
func renderer(theme Theme, width int) (*glamour.TermRenderer, error) {
	if width < 0 {
		width = 0
	}
	key := rendererKey{theme: theme, width: width}
	if r, ok := renderers[key]; ok {
		return r, nil
	}

	options := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	switch theme {
	case ThemeDark, ThemeLight, ThemeNoTTY:
		options = append(options, glamour.WithStandardStyle(string(theme)))
	default:
		options = append(options, glamour.WithAutoStyle())
	}
	r, err := glamour.NewTermRenderer(options...)
	if err != nil {
		return nil, err
	}
	renderers[key] = r
	return r, nil
}
