package render

import (
	"github.com/mattn/go-runewidth"

	"github.com/peek-a-repo/peek/internal/preview"
)

const (
	IconFolder = "📁"
	IconFile   = "📄"
	IconPDF    = "📑"
	IconImage  = "🖼"
)

// Row is one visible line of a folder preview.
type Row struct {
	Name   string
	Type   preview.EntryType
	Icon   string
	Target preview.Target
}

// Listing returns the first maxEntries rows of dir's sorted entries. Extra
// entries are dropped without an indicator.
func Listing(dir preview.Target, entries []preview.Entry, maxEntries int) []Row {
	n := len(entries)
	if maxEntries > 0 && n > maxEntries {
		n = maxEntries
	}
	rows := make([]Row, 0, n)
	for _, e := range entries[:n] {
		child := dir.Child(e)
		rows = append(rows, Row{Name: e.Name, Type: e.Type, Icon: Icon(child), Target: child})
	}
	return rows
}

// Icon picks the listing icon for t by kind.
func Icon(t preview.Target) string {
	switch t.Kind {
	case preview.KindDirectory:
		return IconFolder
	case preview.KindPDF:
		return IconPDF
	case preview.KindImage:
		return IconImage
	default:
		return IconFile
	}
}

// IconWidth is the widest icon in terminal cells, used to align row names.
func IconWidth() int {
	w := 0
	for _, i := range []string{IconFolder, IconFile, IconPDF, IconImage} {
		w = max(w, runewidth.StringWidth(i))
	}
	return w
}

// PadIcon right-pads icon to IconWidth cells.
func PadIcon(icon string) string {
	return runewidth.FillRight(icon, IconWidth())
}
