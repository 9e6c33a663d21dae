package session

import (
	"fmt"

	"github.com/peek-a-repo/peek/internal/hover"
	"github.com/peek-a-repo/peek/internal/popup"
	"github.com/peek-a-repo/peek/internal/preview"
)

// Frame layout shared with the view: a one-cell border and a title row sit
// above the first listing row.
const (
	BorderSize = 1
	RowTop     = BorderSize + 1
)

// PageAnchor is the depth-0 anchor for a link drawn at rect on the page.
func PageAnchor(t preview.Target, rect popup.Rect) hover.Anchor {
	return hover.Anchor{ID: AnchorID(0, t), Depth: 0, Rect: rect, Target: t}
}

// RowAnchors returns the listing rows of the frame at level as anchors one
// level deeper. Rows that fall outside the frame are omitted.
func (s *Session) RowAnchors(level int) []hover.Anchor {
	f := s.stack.At(level)
	if f == nil || len(f.Content.Rows) == 0 {
		return nil
	}

	limit := f.MaxHeight - RowTop - BorderSize
	anchors := make([]hover.Anchor, 0, min(len(f.Content.Rows), max(limit, 0)))
	for i, row := range f.Content.Rows {
		if i >= limit {
			break
		}
		anchors = append(anchors, hover.Anchor{
			ID:    AnchorID(level+1, row.Target),
			Depth: level + 1,
			Rect: popup.Rect{
				X: f.Bounds.X + BorderSize,
				Y: f.Bounds.Y + RowTop + i,
				W: f.Bounds.W - 2*BorderSize,
				H: 1,
			},
			Target: row.Target,
		})
	}
	return anchors
}

// AnchorAt returns the anchor under (x, y): a row of the deepest frame
// containing the point, or nothing.
func (s *Session) AnchorAt(x, y int) (hover.Anchor, bool) {
	f := s.stack.HitTest(x, y)
	if f == nil {
		return hover.Anchor{}, false
	}
	for _, a := range s.RowAnchors(f.Level) {
		if a.Rect.Contains(x, y) {
			return a, true
		}
	}
	return hover.Anchor{}, false
}

// RowIndex returns the listing index of a row anchor.
func (s *Session) RowIndex(a hover.Anchor) int {
	for i, candidate := range s.RowAnchors(a.Depth - 1) {
		if candidate.ID == a.ID {
			return i
		}
	}
	return -1
}

// AnchorID identifies the anchor for t at depth.
func AnchorID(depth int, t preview.Target) string {
	return fmt.Sprintf("%d:%s", depth, t.Key())
}
