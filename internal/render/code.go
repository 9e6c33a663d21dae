package render

import (
	"strings"

	"github.com/peek-a-repo/peek/internal/preview"
)

// Policy bounds what a preview shows.
type Policy struct {
	MaxLines   int
	MaxEntries int
}

// DefaultPolicy clamps code to 30 lines and listings to 25 rows.
func DefaultPolicy() Policy {
	return Policy{MaxLines: 30, MaxEntries: 25}
}

// Code is a rendered file preview. It keeps the full content so expanding a
// truncated preview never refetches. Code is immutable and safe to share
// between frames.
type Code struct {
	Path     string
	Language string

	lines     []string
	styled    []string
	clampAt   int
	truncated bool
}

// NewCode highlights content once and records where it is clamped.
func NewCode(filePath, content string, p Policy, h Highlighter) *Code {
	if h == nil {
		h = PlainHighlighter{}
	}
	lang := Language(filePath)
	lines := strings.Split(content, "\n")
	styled := h.Highlight(lang, content)
	if len(styled) != len(lines) {
		styled = lines
	}

	_, truncated := Clamp(content, p.MaxLines)
	clampAt := len(lines)
	if truncated {
		clampAt = p.MaxLines
	}

	return &Code{
		Path:      filePath,
		Language:  lang,
		lines:     lines,
		styled:    styled,
		clampAt:   clampAt,
		truncated: truncated,
	}
}

// Truncated reports whether the collapsed view hides lines.
func (c *Code) Truncated() bool {
	return c.truncated
}

// TotalLines is the line count of the full content.
func (c *Code) TotalLines() int {
	return len(c.lines)
}

// Lines returns the plain lines shown in the collapsed or expanded view.
func (c *Code) Lines(expanded bool) []string {
	if expanded {
		return c.lines
	}
	return c.lines[:c.clampAt]
}

// Styled returns the highlighted lines for the collapsed or expanded view.
func (c *Code) Styled(expanded bool) []string {
	if expanded {
		return c.styled
	}
	return c.styled[:c.clampAt]
}

// Content returns the full text.
func (c *Code) Content() string {
	return strings.Join(c.lines, "\n")
}

// Builder renders file content for a preview.Resolver.
type Builder struct {
	Policy      Policy
	Highlighter Highlighter
}

// File is a preview.BuildFunc producing *Code.
func (b Builder) File(t preview.Target, content string) (*Code, error) {
	return NewCode(t.Path, content, b.Policy, b.Highlighter), nil
}
