package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span names.
const (
	SpanGetFile      = "gateway.get_file"
	SpanGetDirectory = "gateway.get_directory"
	SpanFetchRaw     = "gateway.fetch_raw"
	SpanPrefetch     = "gateway.prefetch"
	SpanPDFRender    = "pdf.render"
)

// Attribute keys.
const (
	AttrOwner     = "repo.owner"
	AttrRepo      = "repo.name"
	AttrBranch    = "repo.branch"
	AttrPath      = "repo.path"
	AttrKind      = "preview.kind"
	AttrStatus    = "http.status_code"
	AttrEntries   = "listing.entries"
	AttrPrefetch  = "listing.prefetched"
	AttrBytes     = "content.bytes"
	AttrRequestID = "pdf.request_id"
	AttrPages     = "pdf.pages"
	AttrErrorKind = "error.kind"
)

// Start opens a client span with attrs.
func Start(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(attrs...))
}

// End records err on span, if any, and ends it.
func End(span trace.Span, err error, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
