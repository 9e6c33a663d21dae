package browser

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/peek-a-repo/peek/internal/hover"
	"github.com/peek-a-repo/peek/internal/popup"
	"github.com/peek-a-repo/peek/internal/preview"
	"github.com/peek-a-repo/peek/internal/render"
	"github.com/peek-a-repo/peek/internal/session"
	"github.com/peek-a-repo/peek/internal/ui/styles"
)

// Page layout, in cells.
const (
	pageTop    = 2 // title row and a blank row above the first link
	linkIndent = 2
	statusRows = 1
)

// Link is one hoverable reference on the page.
type Link struct {
	Label  string
	Target preview.Target
}

// LinksFromListing turns a directory listing into page links, keeping the
// listing order.
func LinksFromListing(dir preview.Target, entries []preview.Entry) []Link {
	links := make([]Link, 0, len(entries))
	for _, e := range entries {
		links = append(links, Link{Label: e.Name, Target: dir.Child(e)})
	}
	return links
}

func linkZoneID(i int) string {
	return fmt.Sprintf("peek-link:%d", i)
}

// text is the link as drawn: icon, a space, then the label.
func (l Link) text() string {
	return render.PadIcon(render.Icon(l.Target)) + " " + l.Label
}

// visibleLinks is how many link rows fit between the title and status bar.
func (m Model) visibleLinks() int {
	return max(m.height-pageTop-statusRows, 0)
}

// linkRect is where link i is drawn, and whether it is on screen.
func (m Model) linkRect(i int) (popup.Rect, bool) {
	row := i - m.offset
	if i < 0 || i >= len(m.links) || row < 0 || row >= m.visibleLinks() {
		return popup.Rect{}, false
	}
	return popup.Rect{
		X: linkIndent,
		Y: pageTop + row,
		W: lipgloss.Width(m.links[i].text()),
		H: 1,
	}, true
}

// pageAnchorAt returns the link anchor under (x, y).
func (m Model) pageAnchorAt(x, y int) (hover.Anchor, int, bool) {
	i := y - pageTop + m.offset
	rect, ok := m.linkRect(i)
	if !ok || !rect.Contains(x, y) {
		return hover.Anchor{}, -1, false
	}
	return session.PageAnchor(m.links[i].Target, rect), i, true
}

// linkIndex finds the link drawn at rect.
func (m Model) linkIndex(rect popup.Rect) int {
	for i := range m.links {
		if r, ok := m.linkRect(i); ok && r == rect {
			return i
		}
	}
	return -1
}

// scroll moves the page by delta rows. A visible root popup locks the page.
func (m *Model) scroll(delta int) bool {
	if m.session.Stack().ScrollLocked() {
		return false
	}
	limit := max(len(m.links)-m.visibleLinks(), 0)
	next := min(max(m.offset+delta, 0), limit)
	if next == m.offset {
		return false
	}
	m.offset = next
	return true
}

// renderPage draws the title, the visible links and blank filler rows.
func (m Model) renderPage() string {
	lines := make([]string, 0, m.height)
	lines = append(lines, styles.Fit(styles.TitleStyle.Render(m.title), m.width), "")

	hovered := ""
	if m.ptr.anchor != nil && m.ptr.anchor.Depth == 0 {
		hovered = m.ptr.anchor.ID
	}
	for row := 0; row < m.visibleLinks(); row++ {
		i := m.offset + row
		if i >= len(m.links) {
			break
		}
		l := m.links[i]
		style := styles.LinkStyle
		switch {
		case hovered != "" && hovered == session.AnchorID(0, l.Target):
			style = styles.LinkHoverStyle
		case l.Target.Kind == preview.KindDirectory:
			style = styles.DirectoryStyle
		}
		text := zone.Mark(linkZoneID(i), style.Render(l.text()))
		lines = append(lines, styles.Fit(strings.Repeat(" ", linkIndent)+text, m.width))
	}
	if len(m.links) == 0 {
		lines = append(lines, styles.Fit(strings.Repeat(" ", linkIndent)+styles.MutedStyle.Render("No links on this page"), m.width))
	}
	for len(lines) < m.height-statusRows {
		lines = append(lines, strings.Repeat(" ", m.width))
	}
	return strings.Join(lines, "\n")
}
