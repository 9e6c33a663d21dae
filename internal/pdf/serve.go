package pdf

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
)

// Layout is what a surface reports for a rendered document.
type Layout struct {
	Pages  int
	Height int
	Lines  []string
}

// Renderer lays out a document on the surface side.
type Renderer interface {
	Render(data []byte, opts Options) (Layout, error)
}

// Serve runs the surface side of the contract on r/w until r is exhausted or
// ctx is cancelled: it announces READY, then answers every RENDER_REQUEST.
func Serve(ctx context.Context, r io.Reader, w io.Writer, renderer Renderer) error {
	t := NewStreamTransport(r, w, nil)
	if err := t.Send(Message{Type: TypeReady}); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-t.Messages():
			if !ok {
				return nil
			}
			if msg.Type != TypeRenderRequest {
				continue
			}
			if err := t.Send(answer(msg, renderer)); err != nil {
				return err
			}
		}
	}
}

func answer(req Message, renderer Renderer) Message {
	reply := Message{Type: TypeRenderDone, ID: req.ID}

	data, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		reply.Error = fmt.Sprintf("decoding document: %v", err)
		return reply
	}

	opts := TopLevelOptions()
	if req.Options != nil {
		opts = *req.Options
	}

	layout, err := renderer.Render(data, opts)
	if err != nil {
		reply.Error = err.Error()
		return reply
	}

	reply.Success = true
	reply.Pages = layout.Pages
	reply.Height = layout.Height
	reply.Lines = layout.Lines
	return reply
}
