// Package settings persists user preferences (token, per-kind toggles,
// delay, modifier gating) in a small SQLite key/value store that other
// processes may write concurrently.
package settings

import (
	"time"
)

// Keys recognised by the store. Values are stored as JSON.
const (
	KeyAuthToken                  = "authToken"
	KeyEnableImagePreviews        = "enableImagePreviews"
	KeyEnableCodePreviews         = "enableCodePreviews"
	KeyEnableFolderPreviews       = "enableFolderPreviews"
	KeyEnableDelay                = "enableDelay"
	KeyPreviewDelay               = "previewDelay"
	KeyEnableModifierKey          = "enableModifierKey"
	KeyModifierKey                = "modifierKey"
	KeyDismissedLoginNotification = "dismissedLoginNotification"
)

// Keys lists every recognised key.
var Keys = []string{
	KeyAuthToken,
	KeyEnableImagePreviews,
	KeyEnableCodePreviews,
	KeyEnableFolderPreviews,
	KeyEnableDelay,
	KeyPreviewDelay,
	KeyEnableModifierKey,
	KeyModifierKey,
	KeyDismissedLoginNotification,
}

// MaxPreviewDelay bounds previewDelay, in milliseconds.
const MaxPreviewDelay = 2000

// Chord is a recorded modifier combination. Key is kept for display; the
// terminal only reports modifiers alongside pointer events.
type Chord struct {
	Ctrl  bool   `json:"ctrl"`
	Alt   bool   `json:"alt"`
	Shift bool   `json:"shift"`
	Meta  bool   `json:"meta"`
	Key   string `json:"key,omitempty"`
}

// Settings is a snapshot of the store.
type Settings struct {
	AuthToken                  string `json:"authToken"`
	EnableImagePreviews        bool   `json:"enableImagePreviews"`
	EnableCodePreviews         bool   `json:"enableCodePreviews"`
	EnableFolderPreviews       bool   `json:"enableFolderPreviews"`
	EnableDelay                bool   `json:"enableDelay"`
	PreviewDelay               int    `json:"previewDelay"`
	EnableModifierKey          bool   `json:"enableModifierKey"`
	ModifierKey                *Chord `json:"modifierKey"`
	DismissedLoginNotification bool   `json:"dismissedLoginNotification"`
}

// Defaults enables every preview kind with no delay and no gating.
func Defaults() Settings {
	return Settings{
		EnableImagePreviews:  true,
		EnableCodePreviews:   true,
		EnableFolderPreviews: true,
	}
}

// Delay is the show delay for page links: zero unless enabled, clamped to
// [0, MaxPreviewDelay] ms.
func (s Settings) Delay() time.Duration {
	if !s.EnableDelay {
		return 0
	}
	ms := min(max(s.PreviewDelay, 0), MaxPreviewDelay)
	return time.Duration(ms) * time.Millisecond
}

// Gated reports whether shows require the modifier chord, and which one.
// Gating without a recorded chord is treated as off.
func (s Settings) Gated() (Chord, bool) {
	if !s.EnableModifierKey || s.ModifierKey == nil {
		return Chord{}, false
	}
	return *s.ModifierKey, true
}

// NeedsLogin reports whether the login notice should be offered, judging by
// the stored token alone. Store.NeedsLogin also counts the fallback token.
func (s Settings) NeedsLogin() bool {
	return s.AuthToken == "" && !s.DismissedLoginNotification
}
