package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
)

var (
	pagePattern     = regexp.MustCompile(`/Type\s*/Page\b`)
	mediaBoxPattern = regexp.MustCompile(`/MediaBox\s*\[\s*(-?[\d.]+)\s+(-?[\d.]+)\s+(-?[\d.]+)\s+(-?[\d.]+)\s*\]`)

	errNotPDF   = errors.New("not a PDF document")
	errNoPages  = errors.New("document has no pages")
	letterWidth = 612.0
	letterHight = 792.0
)

// Inspector is the bundled Renderer. It reads the page tree well enough to
// size a preview: page count and the first page's media box.
type Inspector struct{}

// Render scales each shown page to fit MaxWidth, capped at Scale, and
// reports the stacked height.
func (Inspector) Render(data []byte, opts Options) (Layout, error) {
	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), []byte("%PDF-")) {
		return Layout{}, errNotPDF
	}

	pages := len(pagePattern.FindAll(data, -1))
	if pages == 0 {
		return Layout{}, errNoPages
	}

	width, height := letterWidth, letterHight
	if m := mediaBoxPattern.FindSubmatch(data); m != nil {
		x0, _ := strconv.ParseFloat(string(m[1]), 64)
		y0, _ := strconv.ParseFloat(string(m[2]), 64)
		x1, _ := strconv.ParseFloat(string(m[3]), 64)
		y1, _ := strconv.ParseFloat(string(m[4]), 64)
		if w, h := math.Abs(x1-x0), math.Abs(y1-y0); w > 0 && h > 0 {
			width, height = w, h
		}
	}

	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = 1
	}
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}
	if opts.MaxWidth > 0 {
		scale = math.Min(scale, float64(opts.MaxWidth)/width)
	}

	shown := min(pages, maxPages)
	pageW := int(math.Round(width * scale))
	pageH := int(math.Round(height * scale))

	lines := []string{fmt.Sprintf("PDF Document • %d page%s", pages, plural(pages))}
	for i := 1; i <= shown; i++ {
		lines = append(lines, fmt.Sprintf("Page %d  %d×%d", i, pageW, pageH))
	}
	if pages > shown {
		more := pages - shown
		lines = append(lines, fmt.Sprintf("+ %d more page%s", more, plural(more)))
	}

	return Layout{Pages: pages, Height: shown * pageH, Lines: lines}, nil
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
