package session

import (
	"github.com/peek-a-repo/peek/internal/popup"
	"github.com/peek-a-repo/peek/internal/preview"
	"github.com/peek-a-repo/peek/internal/render"
)

// State is where a frame's preview is in its lifecycle.
type State int

const (
	Idle State = iota
	Loading
	Shown
	Errored
	Empty
	Destroyed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Shown:
		return "shown"
	case Errored:
		return "errored"
	case Empty:
		return "empty"
	case Destroyed:
		return "destroyed"
	default:
		return "idle"
	}
}

// Content is what one frame displays. Exactly one of Code, Rows, Image,
// Document or Message is set once the frame leaves Loading.
type Content struct {
	State    State
	Code     *render.Code
	Expanded bool
	Rows     []render.Row
	Page     preview.PageResult
	Image    *render.Image
	Document *render.Document
	Message  *render.Message
	// URL opens the target in a browser.
	URL string
}

// Frame is a popup frame carrying session content.
type Frame = popup.Frame[*Content]

// Transition reports a frame state change.
type Transition struct {
	Level  int
	Frame  uint64
	Target preview.Target
	From   State
	To     State
	// Kind is set for Errored and Empty.
	Kind preview.ErrorKind
}

// NoticeKind distinguishes user-facing notices.
type NoticeKind int

const (
	NoticeLogin NoticeKind = iota
	NoticeCopied
	NoticeError
)

// Notice is a transient message for the status area.
type Notice struct {
	Kind  NoticeKind
	Title string
	Text  string
	URL   string
}
