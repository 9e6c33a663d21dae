package render

import (
	"path"
	"strings"
)

// PlainLanguage is the tag for content shown without highlighting.
const PlainLanguage = "plain"

var languages = map[string]string{
	"js":   "javascript",
	"jsx":  "javascript",
	"ts":   "typescript",
	"tsx":  "typescript",
	"json": "json",
	"py":   "python",
	"go":   "go",
	"rs":   "rust",
	"html": "markup",
	"css":  "css",
	"md":   "markdown",
	"sh":   "bash",
	"yml":  "yaml",
	"yaml": "yaml",
}

// Language maps a file path to a highlighting tag by extension.
func Language(filePath string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filePath), "."))
	if lang, ok := languages[ext]; ok {
		return lang
	}
	return PlainLanguage
}
