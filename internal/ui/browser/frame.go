package browser

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/peek-a-repo/peek/internal/popup"
	"github.com/peek-a-repo/peek/internal/preview"
	"github.com/peek-a-repo/peek/internal/render"
	"github.com/peek-a-repo/peek/internal/session"
	"github.com/peek-a-repo/peek/internal/ui/styles"
)

// panel is a frame's drawable text before it is boxed.
type panel struct {
	title  string
	footer string
	lines  []string
}

// height is the boxed height: content plus top and bottom border.
func (p panel) height() int {
	return len(p.lines) + 2*session.BorderSize
}

// panelFor builds the text of frame f. hovered is the row anchor ID under the
// pointer, if any.
func (m Model) panelFor(f *session.Frame, hovered string) panel {
	c := f.Content
	p := panel{title: f.Target.Name()}

	switch {
	case c.State == session.Loading || c.State == session.Idle:
		p.lines = []string{m.spinner.View() + " Loading…"}

	case c.Code != nil:
		p.title += styles.MutedStyle.Render(" · " + c.Code.Language)
		p.lines = codeLines(c.Code, c.Expanded)
		if c.Code.Truncated() && !c.Expanded {
			p.footer = fmt.Sprintf("+%d lines · e expand", c.Code.TotalLines()-len(c.Code.Lines(false)))
		}

	case len(c.Rows) > 0:
		p.lines = append(p.lines, styles.MutedStyle.Render(directorySummary(f.Target, c)))
		for i, row := range c.Rows {
			p.lines = append(p.lines, rowLine(f, i, row, hovered))
		}

	case c.Document != nil:
		p.lines = documentLines(c.Document)

	case c.Image != nil:
		p.lines = []string{
			render.PadIcon(render.IconImage) + " " + c.Image.Name,
			"",
			styles.MutedStyle.Render("Image source:"),
			c.Image.URL,
		}

	case c.Message != nil:
		style := styles.ErrorStyle
		if c.State == session.Empty {
			style = styles.MutedStyle
		}
		p.lines = []string{style.Render(c.Message.Text)}
		if c.Message.Link != "" {
			p.lines = append(p.lines, "", styles.MutedStyle.Render("Open: ")+c.Message.Link)
		}
	}

	if p.footer == "" && f.Level == 0 && c.URL != "" && c.State == session.Shown {
		p.footer = "o copy link"
	}
	return p
}

func codeLines(code *render.Code, expanded bool) []string {
	styled := code.Styled(expanded)
	gutter := len(fmt.Sprint(len(styled)))
	lines := make([]string, len(styled))
	for i, line := range styled {
		num := styles.MutedStyle.Render(fmt.Sprintf("%*d ", gutter, i+1))
		lines[i] = num + strings.TrimRight(line, "\r")
	}
	return lines
}

func directorySummary(t preview.Target, c *session.Content) string {
	where := t.Owner + "/" + t.Repo
	if t.Path != "" {
		where += "/" + t.Path
	}
	n := len(c.Page.Entries)
	if n > len(c.Rows) {
		return fmt.Sprintf("%s · %d of %d", where, len(c.Rows), n)
	}
	return fmt.Sprintf("%s · %d items", where, n)
}

func rowLine(f *session.Frame, i int, row render.Row, hovered string) string {
	text := render.PadIcon(row.Icon) + " " + row.Name
	switch {
	case session.AnchorID(f.Level+1, row.Target) == hovered:
		return styles.SelectedStyle.Render(styles.Fit(text, f.Bounds.W-2*session.BorderSize))
	case row.Type == preview.EntryDirectory:
		return styles.DirectoryStyle.Render(text)
	default:
		return text
	}
}

func documentLines(doc *render.Document) []string {
	if doc.Rendered {
		return append([]string(nil), doc.Lines...)
	}
	reason := "PDF preview unavailable"
	switch doc.Reason {
	case preview.Timeout:
		reason = "PDF preview timed out"
	case preview.RenderFailure:
		reason = "Could not render this PDF"
	}
	return []string{
		render.PadIcon(render.IconPDF) + " " + doc.Name,
		"",
		styles.ErrorStyle.Render(reason),
		styles.MutedStyle.Render("Open: ") + doc.URL,
	}
}

// fit sizes every drawn frame to its content so hit testing matches what is
// on screen.
func (m Model) fit() {
	for _, f := range m.session.Stack().Rendered() {
		f.Fit(m.panelFor(f, "").height())
	}
}

// renderFrame boxes the panel at the frame's bounds.
func (m Model) renderFrame(f *session.Frame, hovered string) string {
	p := m.panelFor(f, hovered)
	var border lipgloss.TerminalColor = styles.BorderDefaultColor
	switch {
	case f.Content.State == session.Errored:
		border = styles.StatusErrorColor
	case m.focus == f.Level:
		border = styles.BorderActiveColor
	}
	return styles.Box{
		Title:       p.title,
		Footer:      p.footer,
		Lines:       p.lines,
		Width:       f.Bounds.W,
		Height:      f.Bounds.H,
		BorderColor: border,
		Faint:       f.Visibility == popup.Leaving,
	}.Render()
}
