package markup

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// TerminalRenderer renders replies for a terminal with glamour.
type TerminalRenderer struct {
	renderer *glamour.TermRenderer
}

// NewTerminalRenderer creates a renderer wrapping at width columns. With
// color disabled the plain "notty" style is used.
func NewTerminalRenderer(width int, color bool) (*TerminalRenderer, error) {
	style := glamour.WithAutoStyle()
	if !color {
		style = glamour.WithStandardStyle("notty")
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return nil, err
	}
	return &TerminalRenderer{renderer: r}, nil
}

// Render returns the styled reply. On renderer failure the plain text is
// returned instead.
func (t *TerminalRenderer) Render(text string) string {
	out, err := t.renderer.Render(Markdown(text))
	if err != nil {
		return Plain(text)
	}
	return strings.TrimRight(out, "\n ")
}
