package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/padding"
	"github.com/muesli/reflow/truncate"
)

// Rounded border pieces.
const (
	borderTopLeft     = "╭"
	borderTopRight    = "╮"
	borderBottomLeft  = "╰"
	borderBottomRight = "╯"
	borderHorizontal  = "─"
	borderVertical    = "│"
)

// Box describes a bordered panel with a title embedded in the top border:
// ╭─ Title ─────╮
type Box struct {
	Title string
	// Footer is embedded in the bottom border the same way.
	Footer      string
	Lines       []string
	Width       int
	Height      int
	BorderColor lipgloss.TerminalColor
	TitleColor  lipgloss.TerminalColor
	// Faint draws the whole box dimmed, used while a popup fades out.
	Faint bool
}

// Render draws the box at exactly Width x Height cells. Lines wider than the
// inner width are cut with an ellipsis; missing lines are blank.
func (b Box) Render() string {
	width := max(b.Width, 2)
	height := max(b.Height, 2)
	inner := width - 2

	var borderColor lipgloss.TerminalColor = BorderDefaultColor
	if b.BorderColor != nil {
		borderColor = b.BorderColor
	}
	var titleColor lipgloss.TerminalColor = OverlayTitleColor
	if b.TitleColor != nil {
		titleColor = b.TitleColor
	}
	borderStyle := lipgloss.NewStyle().Foreground(borderColor).Faint(b.Faint)
	titleStyle := lipgloss.NewStyle().Foreground(titleColor).Bold(true).Faint(b.Faint)

	out := make([]string, 0, height)
	out = append(out, edge(borderTopLeft, borderTopRight, b.Title, inner, borderStyle, titleStyle))
	for i := 0; i < height-2; i++ {
		var line string
		if i < len(b.Lines) {
			line = Fit(b.Lines[i], inner)
		} else {
			line = strings.Repeat(" ", inner)
		}
		if b.Faint {
			line = lipgloss.NewStyle().Faint(true).Render(line)
		}
		out = append(out, borderStyle.Render(borderVertical)+line+borderStyle.Render(borderVertical))
	}
	out = append(out, edge(borderBottomLeft, borderBottomRight, b.Footer, inner, borderStyle, MutedStyle.Faint(b.Faint)))
	return strings.Join(out, "\n")
}

// Fit cuts s to width cells, ANSI-aware, and pads it to exactly width.
func Fit(s string, width int) string {
	if width < 1 {
		return ""
	}
	if lipgloss.Width(s) > width {
		if width > 1 {
			s = truncate.StringWithTail(s, uint(width), "…") //nolint:gosec // width is positive
		} else {
			s = truncate.String(s, 1)
		}
	}
	return padding.String(s, uint(width)) //nolint:gosec // width is positive
}

// edge builds a horizontal border with an optional embedded label.
func edge(left, right, label string, inner int, borderStyle, labelStyle lipgloss.Style) string {
	// "─ " + label + " ─" needs at least 5 cells to show one label cell.
	if label == "" || inner < 5 {
		return borderStyle.Render(left + strings.Repeat(borderHorizontal, inner) + right)
	}

	label = truncate.StringWithTail(label, uint(inner-4), "…") //nolint:gosec // inner >= 5
	rest := max(inner-3-lipgloss.Width(label), 0)
	return borderStyle.Render(left+borderHorizontal+" ") +
		labelStyle.Render(label) +
		borderStyle.Render(" "+strings.Repeat(borderHorizontal, rest)+right)
}
