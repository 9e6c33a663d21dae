// Package keys contains keybinding definitions.
package keys

import "github.com/charmbracelet/bubbles/key"

// BrowserKeyMap holds the bindings of the link browser. Movement keys walk a
// virtual pointer over links and rows, so the keyboard drives the same hover
// logic as the mouse.
type BrowserKeyMap struct {
	Up   key.Binding
	Down key.Binding
	Into key.Binding
	Back key.Binding
	Top  key.Binding

	Expand  key.Binding
	Open    key.Binding
	Dismiss key.Binding
	Close   key.Binding

	Logs key.Binding
	Help key.Binding
	Quit key.Binding
}

// Browser is the default keymap for the link browser.
var Browser = BrowserKeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "previous"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "next"),
	),
	Into: key.NewBinding(
		key.WithKeys("l", "right"),
		key.WithHelp("l/→", "into preview"),
	),
	Back: key.NewBinding(
		key.WithKeys("h", "left"),
		key.WithHelp("h/←", "back out"),
	),
	Top: key.NewBinding(
		key.WithKeys("g"),
		key.WithHelp("g", "first link"),
	),
	Expand: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "expand code"),
	),
	Open: key.NewBinding(
		key.WithKeys("o", "enter"),
		key.WithHelp("o", "copy link"),
	),
	Dismiss: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "dismiss sign-in"),
	),
	Close: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "close previews"),
	),
	Logs: key.NewBinding(
		key.WithKeys("L"),
		key.WithHelp("L", "logs"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "toggle help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// ShortHelp implements help.KeyMap.
func (k BrowserKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.Into, k.Expand, k.Open, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k BrowserKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Into, k.Back, k.Top},
		{k.Expand, k.Open, k.Dismiss, k.Close},
		{k.Logs, k.Help, k.Quit},
	}
}
