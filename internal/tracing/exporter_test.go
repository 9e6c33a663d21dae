package tracing

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestFileExporter_AppendsJSONL(t *testing.T) {
	tracePath := filepath.Join(t.TempDir(), "traces.jsonl")
	require.NoError(t, os.WriteFile(tracePath, []byte(`{"existing":"data"}`+"\n"), 0o600))

	exporter, err := NewFileExporter(tracePath)
	require.NoError(t, err)

	start := time.Now()
	stub := tracetest.SpanStub{
		Name:      SpanGetFile,
		SpanKind:  trace.SpanKindClient,
		StartTime: start,
		EndTime:   start.Add(25 * time.Millisecond),
		Status:    sdktrace.Status{Code: codes.Error, Description: "rate limited"},
		Attributes: []attribute.KeyValue{
			attribute.String(AttrPath, "src/app.go"),
			attribute.Int(AttrStatus, 403),
		},
		Events: []sdktrace.Event{{Name: "retry", Time: start.Add(time.Millisecond)}},
	}
	require.NoError(t, exporter.ExportSpans(context.Background(), []sdktrace.ReadOnlySpan{stub.Snapshot()}))
	require.NoError(t, exporter.Shutdown(context.Background()))

	file, err := os.Open(tracePath)
	require.NoError(t, err)
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.Len(t, lines, 2)

	var record SpanRecord
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &record))
	require.Equal(t, SpanGetFile, record.Name)
	require.Equal(t, "CLIENT", record.Kind)
	require.Equal(t, "ERROR", record.Status)
	require.Equal(t, "rate limited", record.StatusMsg)
	require.InDelta(t, 25.0, record.DurationMs, 0.01)
	require.Equal(t, "src/app.go", record.Attributes[AttrPath])
	require.Len(t, record.Events, 1)
}

func TestFileExporter_ExportAfterShutdownFails(t *testing.T) {
	exporter, err := NewFileExporter(filepath.Join(t.TempDir(), "t.jsonl"))
	require.NoError(t, err)
	require.NoError(t, exporter.Shutdown(context.Background()))
	require.NoError(t, exporter.Shutdown(context.Background()))

	stub := tracetest.SpanStub{Name: "late"}
	require.Error(t, exporter.ExportSpans(context.Background(), []sdktrace.ReadOnlySpan{stub.Snapshot()}))
	require.NoError(t, exporter.ExportSpans(context.Background(), nil))
}
