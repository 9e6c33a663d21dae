package preview

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind is the flat classification of everything that can stop a preview.
type ErrorKind int

const (
	GenericFailure ErrorKind = iota
	NoCredential
	RateLimited
	NoAccess
	RenderTimeout
	RenderFailure
	EmptyResult
)

func (k ErrorKind) String() string {
	switch k {
	case NoCredential:
		return "NO_TOKEN"
	case RateLimited:
		return "RATE_LIMIT"
	case NoAccess:
		return "PRIVATE_REPO_NO_ACCESS"
	case RenderTimeout:
		return "RENDER_TIMEOUT"
	case RenderFailure:
		return "RENDER_FAILURE"
	case EmptyResult:
		return "EMPTY"
	default:
		return "DEFAULT"
	}
}

// Error is a classified preview failure.
type Error struct {
	Kind   ErrorKind
	Status int // HTTP status when the failure came from the gateway
	Err    error
}

// NewError wraps err with kind.
func NewError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Status != 0:
		return fmt.Sprintf("%s (HTTP %d): %v", e.Kind, e.Status, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s (HTTP %d)", e.Kind, e.Status)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf classifies err. Unclassified errors, including context deadlines
// outside a PDF render, are GenericFailure.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return GenericFailure
}

// IsCancelled reports whether err stems from a cancelled context.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}

var messages = map[ErrorKind]string{
	NoCredential:   "Please set your GitHub token in settings.",
	RateLimited:    "API rate limit exceeded. Please wait a moment before trying again.",
	NoAccess:       "This is a private repository. Please sign in with private repo access enabled in settings.",
	GenericFailure: "An error occurred. Please try again.",
	RenderTimeout:  "Unable to preview PDF",
	RenderFailure:  "Unable to preview PDF",
	EmptyResult:    "Empty folder",
}

// Message returns the user-facing text for kind.
func Message(kind ErrorKind) string {
	if msg, ok := messages[kind]; ok {
		return msg
	}
	return messages[GenericFailure]
}
