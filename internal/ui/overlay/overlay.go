// Package overlay composes foreground blocks onto a rendered background
// without clearing the screen. Popups are placed at absolute cells; toasts
// and dialogs use a relative Position.
package overlay

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Position specifies where Place puts the overlay.
type Position int

const (
	Center Position = iota
	Top
	Bottom
)

// Config controls relative placement.
type Config struct {
	Width    int
	Height   int
	Position Position
	// PadY keeps Top and Bottom overlays away from the edge.
	PadY int
}

// Layer is a block drawn at an absolute cell.
type Layer struct {
	X, Y    int
	Content string
}

// Place renders fg on top of bg at the position given by cfg.
func Place(cfg Config, fg, bg string) string {
	fgLines := strings.Split(fg, "\n")
	x, y := position(cfg, lipgloss.Width(fg), len(fgLines))
	return compose(cfg.Width, cfg.Height, bg, Layer{X: x, Y: y, Content: fg})
}

// PlaceAt renders fg with its top-left corner at (x, y). Rows below the
// background are added as blank lines up to height; anything past height is
// clipped.
func PlaceAt(width, height, x, y int, fg, bg string) string {
	return compose(width, height, bg, Layer{X: x, Y: y, Content: fg})
}

// Stack draws layers in order, so later layers cover earlier ones.
func Stack(width, height int, bg string, layers ...Layer) string {
	return compose(width, height, bg, layers...)
}

func compose(width, height int, bg string, layers ...Layer) string {
	bgLines := strings.Split(bg, "\n")
	for len(bgLines) < height {
		bgLines = append(bgLines, strings.Repeat(" ", width))
	}

	for _, l := range layers {
		x := max(l.X, 0)
		for i, fgLine := range strings.Split(l.Content, "\n") {
			row := l.Y + i
			if row < 0 {
				continue
			}
			if row >= len(bgLines) {
				break
			}
			bgLines[row] = splice(bgLines[row], fgLine, x)
		}
	}

	return strings.Join(bgLines, "\n")
}

// splice replaces the cells of line starting at x with fg, keeping ANSI
// styling on both sides intact.
func splice(line, fg string, x int) string {
	left := ansi.Truncate(line, x, "")
	if w := ansi.StringWidth(left); w < x {
		left += strings.Repeat(" ", x-w)
	}

	var right string
	end := x + ansi.StringWidth(fg)
	if end < ansi.StringWidth(line) {
		right = ansi.TruncateLeft(line, end, "")
	}
	return left + fg + right
}

func position(cfg Config, fgWidth, fgHeight int) (x, y int) {
	x = (cfg.Width - fgWidth) / 2
	switch cfg.Position {
	case Top:
		y = cfg.PadY
	case Bottom:
		y = cfg.Height - fgHeight - cfg.PadY
	default:
		y = (cfg.Height - fgHeight) / 2
	}
	return max(x, 0), max(y, 0)
}
