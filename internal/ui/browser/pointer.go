package browser

import (
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"

	"github.com/peek-a-repo/peek/internal/hover"
	"github.com/peek-a-repo/peek/internal/log"
	"github.com/peek-a-repo/peek/internal/popup"
)

func (m *Model) mouse(msg tea.MouseMsg) {
	if m.logView.Visible() {
		return
	}

	mods := hover.Mods{Ctrl: msg.Ctrl, Alt: msg.Alt, Shift: msg.Shift}
	if mods != m.mods {
		m.mods = mods
		m.session.Dispatcher().Modifiers(mods)
	}

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.scroll(-1)
	case msg.Button == tea.MouseButtonWheelDown:
		m.scroll(1)
	case msg.Action == tea.MouseActionMotion:
		m.move(msg.X, msg.Y)
	case msg.Action == tea.MouseActionRelease && msg.Button == tea.MouseButtonLeft:
		m.move(msg.X, msg.Y)
		m.click(msg)
	}
}

// click copies the link of a page entry or frame row under the pointer.
func (m *Model) click(msg tea.MouseMsg) {
	if a := m.ptr.anchor; a != nil && a.Depth > 0 {
		m.open()
		return
	}
	for i := range m.links {
		if zone.Get(linkZoneID(i)).InBounds(msg) {
			log.Debug(log.CatUI, "link clicked", "target", m.links[i].Target.String())
			m.open()
			return
		}
	}
}

// move reports a pointer move to the dispatcher as leave, frame change and
// enter events, in that order.
func (m *Model) move(x, y int) {
	d := m.session.Dispatcher()

	level := -1
	if f := m.session.Stack().HitTest(x, y); f != nil {
		level = f.Level
	}

	var next *hover.Anchor
	if level >= 0 {
		if a, ok := m.session.AnchorAt(x, y); ok {
			next = &a
		}
	} else if a, _, ok := m.pageAnchorAt(x, y); ok {
		next = &a
	}

	to := hover.Location{Frame: level}
	if next != nil {
		to.AnchorID = next.ID
	}

	prev := m.ptr
	m.ptr = pointer{x: x, y: y, anchor: next, frame: level}

	if prev.anchor != nil && !same(prev.anchor, next) {
		d.Leave(*prev.anchor, to)
	}
	if prev.frame != level {
		if prev.frame >= 0 {
			d.FrameLeave(prev.frame, to)
		}
		if level >= 0 {
			d.FrameEnter(level)
		}
	}
	if next != nil && !same(prev.anchor, next) {
		d.Enter(*next)
	}
}

func same(a, b *hover.Anchor) bool {
	return a != nil && b != nil && a.ID == b.ID
}

// moveTo rests the pointer on the first cell of rect.
func (m *Model) moveTo(rect popup.Rect) {
	m.move(rect.X, rect.Y)
}

// rowRects are the on-screen rows of the frame at level.
func (m Model) rowRects(level int) []popup.Rect {
	anchors := m.session.RowAnchors(level)
	rects := make([]popup.Rect, len(anchors))
	for i, a := range anchors {
		rects[i] = a.Rect
	}
	return rects
}

// step moves the keyboard cursor within the focused page or frame.
func (m *Model) step(delta int) {
	if m.focus >= 0 {
		rows := m.rowRects(m.focus)
		if len(rows) == 0 {
			return
		}
		m.cursor = min(max(m.cursor+delta, 0), len(rows)-1)
		m.moveTo(rows[m.cursor])
		return
	}

	if len(m.links) == 0 {
		return
	}
	next := min(max(m.cursor+delta, 0), len(m.links)-1)
	if _, ok := m.linkRect(next); !ok {
		if next < m.offset {
			m.scroll(next - m.offset)
		} else {
			m.scroll(next - m.offset - m.visibleLinks() + 1)
		}
	}
	rect, ok := m.linkRect(next)
	if !ok {
		// page is scroll locked
		return
	}
	m.cursor = next
	m.moveTo(rect)
}

// into moves the keyboard into the first row of the next frame.
func (m *Model) into() {
	level := m.focus + 1
	rows := m.rowRects(level)
	if len(rows) == 0 {
		return
	}
	m.focus = level
	m.cursor = 0
	m.moveTo(rows[0])
}

// back returns the keyboard to the anchor that owns the focused frame.
func (m *Model) back() {
	if m.focus < 0 {
		return
	}
	f := m.session.Stack().At(m.focus)
	m.focus--
	m.cursor = -1
	if f == nil {
		return
	}
	if m.focus < 0 {
		m.cursor = m.linkIndex(f.Anchor)
	} else {
		for i, r := range m.rowRects(m.focus) {
			if r == f.Anchor {
				m.cursor = i
			}
		}
	}
	m.moveTo(f.Anchor)
}
