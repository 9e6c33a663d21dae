// Package styles contains Lip Gloss style definitions.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Text hierarchy
	TextPrimaryColor   = lipgloss.AdaptiveColor{Light: "#2D3436", Dark: "#CCCCCC"}
	TextSecondaryColor = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BBBBBB"}
	TextMutedColor     = lipgloss.AdaptiveColor{Light: "#888888", Dark: "#696969"}

	// Borders
	BorderDefaultColor = lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#696969"}
	BorderActiveColor  = lipgloss.AdaptiveColor{Light: "#54A0FF", Dark: "#54A0FF"}

	// Status
	StatusSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	StatusWarningColor = lipgloss.AdaptiveColor{Light: "#FECA57", Dark: "#FECA57"}
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}

	// Links on the page
	LinkColor        = lipgloss.AdaptiveColor{Light: "#1E66F5", Dark: "#89B4FA"}
	LinkHoverColor   = lipgloss.AdaptiveColor{Light: "#8839EF", Dark: "#CBA6F7"}
	DirectoryColor   = lipgloss.AdaptiveColor{Light: "#179299", Dark: "#94E2D5"}
	SelectionColor   = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#FFFFFF"}
	SelectionBgColor = lipgloss.AdaptiveColor{Light: "#1A5276", Dark: "#1A5276"}

	// Overlay and toast colors
	OverlayTitleColor       = lipgloss.AdaptiveColor{Light: "#2D3436", Dark: "#C9C9C9"}
	OverlayBorderColor      = lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#8C8C8C"}
	ToastBorderSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	ToastBorderErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}
	ToastBorderInfoColor    = lipgloss.AdaptiveColor{Light: "#54A0FF", Dark: "#54A0FF"}
	ToastBorderWarnColor    = lipgloss.AdaptiveColor{Light: "#FECA57", Dark: "#FECA57"}

	SpinnerColor = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#FFF"}

	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(TextPrimaryColor)
	MutedStyle = lipgloss.NewStyle().Foreground(TextMutedColor)
	ErrorStyle = lipgloss.NewStyle().Foreground(StatusErrorColor)
	LinkStyle  = lipgloss.NewStyle().Foreground(LinkColor).Underline(true)

	LinkHoverStyle = lipgloss.NewStyle().Foreground(LinkHoverColor).Underline(true).Bold(true)
	DirectoryStyle = lipgloss.NewStyle().Foreground(DirectoryColor)
	SelectedStyle  = lipgloss.NewStyle().Foreground(SelectionColor).Background(SelectionBgColor)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextSecondaryColor).
			Padding(0, 1)
)
