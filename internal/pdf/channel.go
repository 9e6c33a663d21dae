package pdf

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/peek-a-repo/peek/internal/log"
	"github.com/peek-a-repo/peek/internal/preview"
	"github.com/peek-a-repo/peek/internal/tracing"
)

// DefaultTimeout bounds a whole render, handshake included.
const DefaultTimeout = 15 * time.Second

// Result is a successful render.
type Result struct {
	Pages  int
	Height int
	Lines  []string
}

// Channel is the host side of the surface contract. It waits for READY
// before the first request and keeps at most one request outstanding.
type Channel struct {
	transport Transport
	timeout   time.Duration
	tracer    trace.Tracer

	mu      sync.Mutex // serialises Render
	ready   chan struct{}
	results chan Message
	done    chan struct{}
}

// NewChannel starts listening on transport. A zero timeout uses
// DefaultTimeout.
func NewChannel(transport Transport, timeout time.Duration, tracer trace.Tracer) *Channel {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("pdf")
	}
	c := &Channel{
		transport: transport,
		timeout:   timeout,
		tracer:    tracer,
		ready:     make(chan struct{}),
		results:   make(chan Message, 1),
		done:      make(chan struct{}),
	}
	go c.listen()
	return c
}

func (c *Channel) listen() {
	defer close(c.done)
	var readyOnce sync.Once
	for msg := range c.transport.Messages() {
		switch msg.Type {
		case TypeReady:
			readyOnce.Do(func() { close(c.ready) })
			log.Debug(log.CatPDF, "surface ready")
		case TypeRenderDone:
			// A reply to a request that already timed out is replaced by
			// newer replies rather than blocking the listener.
			select {
			case c.results <- msg:
			default:
				select {
				case <-c.results:
				default:
				}
				c.results <- msg
			}
		default:
			log.Debug(log.CatPDF, "ignoring surface message", "type", msg.Type)
		}
	}
	log.Debug(log.CatPDF, "surface stream ended")
}

// Render sends data to the surface and waits for its layout. Failures are
// *preview.Error with kind RenderTimeout or RenderFailure.
func (c *Channel) Render(ctx context.Context, data []byte, opts Options) (res Result, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := uuid.NewString()
	ctx, span := tracing.Start(ctx, c.tracer, tracing.SpanPDFRender,
		attribute.String(tracing.AttrRequestID, id),
		attribute.Int(tracing.AttrBytes, len(data)),
	)
	defer func() {
		attrs := []attribute.KeyValue{attribute.Int(tracing.AttrPages, res.Pages)}
		if err != nil {
			attrs = append(attrs, attribute.String(tracing.AttrErrorKind, preview.KindOf(err).String()))
		}
		tracing.End(span, err, attrs...)
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	select {
	case <-c.ready:
	case <-c.done:
		return Result{}, preview.NewError(preview.RenderFailure, ErrClosed)
	case <-ctx.Done():
		return Result{}, c.ctxError(ctx, "waiting for surface")
	}

	// Drop any reply left over from a request that timed out.
	select {
	case <-c.results:
	default:
	}

	if err := c.transport.Send(Message{
		Type:    TypeRenderRequest,
		ID:      id,
		Data:    base64.StdEncoding.EncodeToString(data),
		Options: &opts,
	}); err != nil {
		return Result{}, preview.NewError(preview.RenderFailure, err)
	}

	for {
		select {
		case msg := <-c.results:
			if msg.ID != id {
				log.Debug(log.CatPDF, "dropping stale render reply", "id", msg.ID, "want", id)
				continue
			}
			if !msg.Success {
				log.Warn(log.CatPDF, "surface failed to render", "id", id, "error", msg.Error)
				return Result{}, preview.NewError(preview.RenderFailure, errors.New(msg.Error))
			}
			return Result{Pages: msg.Pages, Height: msg.Height, Lines: msg.Lines}, nil
		case <-c.done:
			return Result{}, preview.NewError(preview.RenderFailure, ErrClosed)
		case <-ctx.Done():
			return Result{}, c.ctxError(ctx, "waiting for render")
		}
	}
}

func (c *Channel) ctxError(ctx context.Context, stage string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		log.Warn(log.CatPDF, "render timed out", "stage", stage, "timeout", c.timeout)
		return preview.NewError(preview.RenderTimeout, ctx.Err())
	}
	return preview.NewError(preview.RenderFailure, ctx.Err())
}

// Close shuts the transport down.
func (c *Channel) Close() error {
	return c.transport.Close()
}
