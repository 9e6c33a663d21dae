package render

import (
	"github.com/charmbracelet/glamour"
)

// noMarginStyle drops glamour's document margins so output lines up with
// popup borders.
const noMarginStyle = `{
	"document": {
		"margin": 0,
		"block_prefix": "",
		"block_suffix": ""
	}
}`

// Markdown renders README-style files for `peek show --markdown`.
type Markdown struct {
	renderer *glamour.TermRenderer
	width    int
}

// NewMarkdown creates a renderer wrapping at width. style is "dark",
// "light", or "auto".
func NewMarkdown(width int, style string) (*Markdown, error) {
	styleOpt := glamour.WithAutoStyle()
	if style == "dark" || style == "light" {
		styleOpt = glamour.WithStandardStyle(style)
	}
	r, err := glamour.NewTermRenderer(
		styleOpt,
		glamour.WithStylesFromJSONBytes([]byte(noMarginStyle)),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	return &Markdown{renderer: r, width: width}, nil
}

// Width returns the configured word wrap width.
func (m *Markdown) Width() int {
	return m.width
}

// Render transforms markdown into styled terminal output.
func (m *Markdown) Render(source string) (string, error) {
	return m.renderer.Render(source)
}
