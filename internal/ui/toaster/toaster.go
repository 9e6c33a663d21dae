// Package toaster provides a notification toast overlay component.
package toaster

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/peek-a-repo/peek/internal/ui/overlay"
	"github.com/peek-a-repo/peek/internal/ui/styles"
)

// Style determines the visual appearance of the toast.
type Style int

const (
	StyleSuccess Style = iota
	StyleError
	StyleInfo
	StyleWarn
)

// DefaultDuration is how long a transient toast stays up.
const DefaultDuration = 3 * time.Second

// Model holds the toaster state. Each Show bumps the generation so a
// dismissal scheduled for an older toast is ignored.
type Model struct {
	title   string
	message string
	hint    string
	style   Style
	visible bool
	sticky  bool
	gen     int
}

// New creates a new toaster model.
func New() Model {
	return Model{}
}

// Show displays a transient toast.
func (m Model) Show(message string, style Style) Model {
	m.title = ""
	m.message = message
	m.hint = ""
	m.style = style
	m.visible = true
	m.sticky = false
	m.gen++
	return m
}

// Prompt displays a toast with a title and a key hint that stays up until
// hidden explicitly.
func (m Model) Prompt(title, message, hint string) Model {
	m = m.Show(message, StyleInfo)
	m.title = title
	m.hint = hint
	m.sticky = true
	return m
}

// Hide dismisses the toast.
func (m Model) Hide() Model {
	m.visible = false
	m.sticky = false
	m.title = ""
	m.message = ""
	m.hint = ""
	return m
}

// Visible returns whether the toast is currently showing.
func (m Model) Visible() bool {
	return m.visible
}

// Sticky reports whether the visible toast ignores timed dismissal.
func (m Model) Sticky() bool {
	return m.visible && m.sticky
}

// Title returns the prompt title, empty for plain toasts.
func (m Model) Title() string {
	return m.title
}

// Update handles DismissMsg for the current generation.
func (m Model) Update(msg tea.Msg) Model {
	if d, ok := msg.(DismissMsg); ok && d.gen == m.gen && !m.sticky {
		return m.Hide()
	}
	return m
}

// View renders the toast box.
func (m Model) View() string {
	if !m.visible || m.message == "" {
		return ""
	}

	style := lipgloss.NewStyle().
		Padding(0, 1).
		Border(lipgloss.RoundedBorder())

	var icon string
	switch m.style {
	case StyleError:
		style = style.BorderForeground(styles.ToastBorderErrorColor)
		icon = "❌ "
	case StyleInfo:
		style = style.BorderForeground(styles.ToastBorderInfoColor)
		icon = "ℹ️ "
	case StyleWarn:
		style = style.BorderForeground(styles.ToastBorderWarnColor)
		icon = "⚠️ "
	default:
		style = style.BorderForeground(styles.ToastBorderSuccessColor)
		icon = "✅ "
	}

	content := icon + m.message
	if m.title != "" {
		content = styles.TitleStyle.Render(icon+m.title) + "\n" + m.message
	}
	if m.hint != "" {
		content += "\n" + styles.MutedStyle.Render(m.hint)
	}
	return style.Render(content)
}

// Overlay renders the toast at the bottom center of a background view.
func (m Model) Overlay(bg string, width, height int) string {
	if !m.visible || m.message == "" {
		return bg
	}
	return overlay.Place(overlay.Config{
		Width:    width,
		Height:   height,
		Position: overlay.Bottom,
		PadY:     1,
	}, m.View(), bg)
}

// DismissMsg signals that the toast of one generation should go away.
type DismissMsg struct {
	gen int
}

// ScheduleDismiss returns a command that dismisses the current toast after d.
func (m Model) ScheduleDismiss(d time.Duration) tea.Cmd {
	gen := m.gen
	return tea.Tick(d, func(time.Time) tea.Msg {
		return DismissMsg{gen: gen}
	})
}
