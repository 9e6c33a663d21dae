package render

import (
	"bytes"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/muesli/termenv"

	"github.com/peek-a-repo/peek/internal/log"
)

// Highlighter styles source text for the terminal, one string per line.
type Highlighter interface {
	Highlight(language, content string) []string
}

// PlainHighlighter returns lines untouched.
type PlainHighlighter struct{}

func (PlainHighlighter) Highlight(_ string, content string) []string {
	return strings.Split(content, "\n")
}

// chroma lexer names for tags that differ.
var lexerNames = map[string]string{
	"markup": "html",
}

// ChromaHighlighter highlights with chroma using a named style.
type ChromaHighlighter struct {
	style     *chroma.Style
	formatter chroma.Formatter
}

// AutoFormatter picks the chroma formatter from the terminal's color
// profile.
const AutoFormatter = "auto"

// FormatterFor maps a terminal color profile to a chroma formatter name.
func FormatterFor(p termenv.Profile) string {
	switch p {
	case termenv.TrueColor:
		return "terminal16m"
	case termenv.ANSI256:
		return "terminal256"
	case termenv.ANSI:
		return "terminal16"
	default:
		return "noop"
	}
}

// NewChromaHighlighter creates a highlighter. Unknown style or formatter
// names fall back to chroma defaults; "auto" asks the environment.
func NewChromaHighlighter(styleName, formatterName string) *ChromaHighlighter {
	if formatterName == AutoFormatter {
		formatterName = FormatterFor(termenv.EnvColorProfile())
	}
	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}
	formatter := formatters.Get(formatterName)
	if formatter == nil {
		formatter = formatters.Fallback
	}
	return &ChromaHighlighter{style: style, formatter: formatter}
}

// Highlight returns one styled string per source line. Each line is
// formatted on its own so styles never bleed across line boundaries.
func (h *ChromaHighlighter) Highlight(language, content string) []string {
	plain := strings.Split(content, "\n")
	if language == PlainLanguage {
		return plain
	}

	name := language
	if alias, ok := lexerNames[language]; ok {
		name = alias
	}
	lexer := lexers.Get(name)
	if lexer == nil {
		return plain
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, content)
	if err != nil {
		log.Debug(log.CatRender, "tokenise failed", "language", language, "error", err)
		return plain
	}

	tokenLines := chroma.SplitTokensIntoLines(iterator.Tokens())
	out := make([]string, 0, len(plain))
	var buf bytes.Buffer
	for _, tokens := range tokenLines {
		for i := range tokens {
			tokens[i].Value = strings.TrimRight(tokens[i].Value, "\n")
		}
		buf.Reset()
		if err := h.formatter.Format(&buf, h.style, chroma.Literator(tokens...)); err != nil {
			return plain
		}
		out = append(out, buf.String())
	}

	// The tokenizer may drop or add a trailing empty line; keep the line
	// count aligned with the source.
	for len(out) < len(plain) {
		out = append(out, "")
	}
	return out[:len(plain)]
}
