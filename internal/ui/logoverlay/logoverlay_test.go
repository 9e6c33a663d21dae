package logoverlay

import (
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/peek-a-repo/peek/internal/log"
)

func entry(level, msg string) string {
	return fmt.Sprintf("2026-01-02T15:04:05 [%s] [session] %s\n", level, msg)
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNew(t *testing.T) {
	m := New(0)

	require.False(t, m.Visible())
	require.Empty(t, m.View())
	require.Equal(t, log.LevelDebug, m.minLevel)
	require.Equal(t, DefaultCapacity, m.capacity)
}

func TestToggle(t *testing.T) {
	m := New(10)
	m.SetSize(100, 40)

	m.Toggle()
	require.True(t, m.Visible())
	require.Contains(t, m.View(), "Logs")

	m.Toggle()
	require.False(t, m.Visible())
}

func TestAppend_KeepsCapacity(t *testing.T) {
	m := New(3)
	for i := range 5 {
		m.Append(entry("INFO", fmt.Sprintf("entry-%d", i)))
	}
	m.Append("")

	require.Equal(t, 3, m.Len())
	require.Contains(t, m.entries[0], "entry-2")
	require.Contains(t, m.entries[2], "entry-4")
}

func TestView_ShowsEntries(t *testing.T) {
	m := New(10)
	m.SetSize(120, 40)
	m.Append(entry("INFO", "session started"))
	m.Toggle()

	require.Contains(t, m.View(), "session started")
}

func TestView_Empty(t *testing.T) {
	m := New(10)
	m.SetSize(120, 40)
	m.Toggle()

	require.Contains(t, m.View(), "No logs to display")
}

func TestLevelFilter(t *testing.T) {
	m := New(10)
	m.SetSize(120, 40)
	m.Append(entry("DEBUG", "frame state"))
	m.Append(entry("ERROR", "request failed"))
	m.Toggle()

	m, _ = m.Update(key("e"))
	require.Equal(t, log.LevelError, m.minLevel)
	view := m.View()
	require.Contains(t, view, "request failed")
	require.NotContains(t, view, "frame state")

	m, _ = m.Update(key("d"))
	require.Contains(t, m.View(), "frame state")
}

func TestClear(t *testing.T) {
	m := New(10)
	m.SetSize(120, 40)
	m.Append(entry("INFO", "something"))
	m.Toggle()

	m, _ = m.Update(key("c"))
	require.Zero(t, m.Len())
	require.Contains(t, m.View(), "No logs to display")
}

func TestEscapeCloses(t *testing.T) {
	m := New(10)
	m.SetSize(120, 40)
	m.Toggle()

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.False(t, m.Visible())
	require.NotNil(t, cmd)
	require.IsType(t, CloseMsg{}, cmd())
}

func TestUpdate_IgnoredWhenHidden(t *testing.T) {
	m := New(10)
	m.Append(entry("INFO", "x"))

	m, cmd := m.Update(key("c"))
	require.Nil(t, cmd)
	require.Equal(t, 1, m.Len())
}

func TestOverlay(t *testing.T) {
	m := New(10)
	m.SetSize(80, 30)
	bg := "background"
	require.Equal(t, bg, m.Overlay(bg))

	m.Toggle()
	require.Contains(t, m.Overlay(bg), "Logs")
}
