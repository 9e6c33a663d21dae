// Package render turns fetched repository content into preview payloads:
// clamped, highlighted code; capped folder listings; image and PDF
// descriptors; and user-facing messages.
package render

import "strings"

// Clamp keeps the first maxLines lines of content and reports whether any
// were dropped. A non-positive maxLines keeps everything.
func Clamp(content string, maxLines int) (string, bool) {
	lines := strings.Split(content, "\n")
	if maxLines <= 0 || len(lines) <= maxLines {
		return content, false
	}
	return strings.Join(lines[:maxLines], "\n"), true
}
