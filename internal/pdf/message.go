// Package pdf implements the message contract with the isolated PDF
// rendering surface: a READY handshake, then correlated RENDER_REQUEST /
// RENDER_DONE round trips carrying base64 document bytes one way and a
// layout summary the other.
package pdf

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
)

// MessageType names a message in the surface contract.
type MessageType string

const (
	TypeReady         MessageType = "READY"
	TypeRenderRequest MessageType = "RENDER_REQUEST"
	TypeRenderDone    MessageType = "RENDER_DONE"
)

// Options controls how much of a document the surface lays out.
type Options struct {
	MaxPages int     `json:"maxPages" mapstructure:"max_pages"`
	Scale    float64 `json:"scale" mapstructure:"scale"`
	MaxWidth int     `json:"maxWidth" mapstructure:"max_width"`
}

// TopLevelOptions are used for a PDF hovered on the page.
func TopLevelOptions() Options {
	return Options{MaxPages: 2, Scale: 1.2, MaxWidth: 380}
}

// NestedOptions are used for a PDF hovered inside a folder preview.
func NestedOptions() Options {
	return Options{MaxPages: 1, Scale: 1.0, MaxWidth: 300}
}

// Message is one frame on the wire.
type Message struct {
	Type MessageType `json:"type"`
	ID   string      `json:"id,omitempty"`

	// RENDER_REQUEST
	Data    string   `json:"data,omitempty"`
	Options *Options `json:"options,omitempty"`

	// RENDER_DONE
	Success bool     `json:"success"`
	Height  int      `json:"height,omitempty"`
	Pages   int      `json:"pages,omitempty"`
	Lines   []string `json:"lines,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// MarshalJSON writes success on every RENDER_DONE, false included, and
// leaves it off the other message types.
func (m Message) MarshalJSON() ([]byte, error) {
	type fields Message
	out := struct {
		fields
		Success *bool `json:"success,omitempty"`
	}{fields: fields(m)}
	if m.Type == TypeRenderDone {
		out.Success = &m.Success
	}
	return json.Marshal(out)
}

// ErrClosed is returned once a transport has shut down.
var ErrClosed = errors.New("pdf surface closed")

// Transport carries messages to and from a surface.
type Transport interface {
	Send(msg Message) error
	// Messages yields incoming messages and is closed when the surface goes away.
	Messages() <-chan Message
	Close() error
}

// StreamTransport speaks newline-delimited JSON over a reader/writer pair.
type StreamTransport struct {
	enc    *json.Encoder
	w      io.Writer
	closer io.Closer
	in     chan Message
	mu     sync.Mutex
	once   sync.Once
	closed bool
}

// NewStreamTransport starts reading from r. closer, if non-nil, is closed by
// Close.
func NewStreamTransport(r io.Reader, w io.Writer, closer io.Closer) *StreamTransport {
	t := &StreamTransport{
		enc:    json.NewEncoder(w),
		w:      w,
		closer: closer,
		in:     make(chan Message, 8),
	}
	go t.read(r)
	return t
}

func (t *StreamTransport) read(r io.Reader) {
	defer close(t.in)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxFrame)
	for scanner.Scan() {
		var msg Message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			continue
		}
		t.in <- msg
	}
}

// maxFrame bounds one JSON line; base64 documents dominate its size.
const maxFrame = 64 << 20

// Send writes msg as one JSON line.
func (t *StreamTransport) Send(msg Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	if err := t.enc.Encode(msg); err != nil {
		return fmt.Errorf("sending %s: %w", msg.Type, err)
	}
	return nil
}

// Messages returns the incoming message stream.
func (t *StreamTransport) Messages() <-chan Message {
	return t.in
}

// Close releases the underlying streams.
func (t *StreamTransport) Close() error {
	var err error
	t.once.Do(func() {
		t.mu.Lock()
		t.closed = true
		t.mu.Unlock()
		if t.closer != nil {
			err = t.closer.Close()
		}
	})
	return err
}
