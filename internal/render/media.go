package render

import (
	"github.com/peek-a-repo/peek/internal/preview"
)

// Image describes an image preview. The URL is the raw content URL used
// as is; images are never fetched through the gateway.
type Image struct {
	Name string
	URL  string
}

// NewImage builds the image descriptor for t under rawBase.
func NewImage(t preview.Target, rawBase string) *Image {
	return &Image{Name: t.Name(), URL: t.RawURL(rawBase)}
}

// Document is a PDF preview: either a rendered layout or a fallback with a
// link to open the file externally.
type Document struct {
	Name     string
	URL      string
	Pages    int
	Height   int
	Lines    []string
	Rendered bool
	// Reason is set when Rendered is false.
	Reason preview.ErrorKind
}

// Message is a text-only preview such as an error or an empty folder.
type Message struct {
	Kind preview.ErrorKind
	Text string
	Link string
}

// NewMessage returns the user-facing message for kind.
func NewMessage(kind preview.ErrorKind) Message {
	return Message{Kind: kind, Text: preview.Message(kind)}
}
