package popup

import "time"

// Rect is a cell-aligned rectangle on the terminal surface.
type Rect struct {
	X, Y, W, H int
}

// Right is the first column past the rectangle.
func (r Rect) Right() int { return r.X + r.W }

// Bottom is the first row past the rectangle.
func (r Rect) Bottom() int { return r.Y + r.H }

// Contains reports whether the cell (x, y) lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}

// Geometry holds the placement constants, in cells.
type Geometry struct {
	Gap        int           `mapstructure:"popup_gap"`
	MinWidth   int           `mapstructure:"min_popup_width"`
	MaxWidth   int           `mapstructure:"max_popup_width"`
	MinHeight  int           `mapstructure:"min_popup_height"`
	EdgeMargin int           `mapstructure:"edge_margin"`
	Transition time.Duration `mapstructure:"transition"`
}

// DefaultGeometry mirrors the browser layout scaled to terminal cells.
func DefaultGeometry() Geometry {
	return Geometry{
		Gap:        1,
		MinWidth:   30,
		MaxWidth:   84,
		MinHeight:  6,
		EdgeMargin: 1,
		Transition: 150 * time.Millisecond,
	}
}

// room is the width available to the right of anchor.
func (g Geometry) room(viewport, anchor Rect) int {
	return viewport.W - anchor.Right() - g.Gap - g.EdgeMargin
}

// place computes frame bounds. H is the maximum height the frame may use.
// Nested frames must already have passed the room check; a root frame that
// does not fit on the right is shifted left and clamped to the viewport.
func (g Geometry) place(viewport, anchor Rect, root bool) Rect {
	x := anchor.Right() + g.Gap
	w := min(g.room(viewport, anchor), g.MaxWidth)

	if root && w < g.MinWidth {
		w = min(g.MaxWidth, viewport.W-2*g.EdgeMargin)
		x = max(g.EdgeMargin, viewport.W-g.EdgeMargin-w)
	}
	w = max(w, 1)

	y := anchor.Y
	h := viewport.H - y - g.EdgeMargin
	if h < g.MinHeight {
		y = max(0, viewport.H-g.EdgeMargin-g.MinHeight)
		h = viewport.H - y - g.EdgeMargin
	}
	return Rect{X: x, Y: y, W: w, H: max(h, 1)}
}
