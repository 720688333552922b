package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/listdelta/pkg/observability"
)

func newJSONLogger(buf *bytes.Buffer, mode observability.AppMode) *slog.Logger {
	inner := slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})

	return slog.New(observability.NewTracingHandler(inner, "test-svc", mode))
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	return record
}

func TestTracingHandler_InjectsTraceContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := newJSONLogger(&buf, observability.ModeCLI)

	traceID, err := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	require.NoError(t, err)

	spanID, err := trace.SpanIDFromHex("0102030405060708")
	require.NoError(t, err)

	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	logger.InfoContext(ctx, "event published")

	record := decode(t, &buf)
	assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", record["trace_id"])
	assert.Equal(t, "0102030405060708", record["span_id"])
	assert.Equal(t, "test-svc", record["service"])
	assert.Equal(t, "cli", record["mode"])
}

func TestTracingHandler_NoTraceContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	newJSONLogger(&buf, observability.ModeMCP).InfoContext(context.Background(), "no span")

	record := decode(t, &buf)
	assert.NotContains(t, record, "trace_id")
	assert.Equal(t, "mcp", record["mode"])
}

func TestTracingHandler_WithGroup(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	grouped := newJSONLogger(&buf, observability.ModeCLI).WithGroup("assembler")
	grouped.InfoContext(context.Background(), "switch", slog.Int("mutation", 3))

	record := decode(t, &buf)
	assert.Equal(t, "test-svc", record["service"])

	group, ok := record["assembler"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 3, group["mutation"], 0)
}

func TestTracingHandler_WithAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	newJSONLogger(&buf, observability.ModeCLI).With(slog.String("op", "replay")).Info("started")

	record := decode(t, &buf)
	assert.Equal(t, "replay", record["op"])
	assert.Equal(t, "test-svc", record["service"])
}

func TestTracingHandler_WarningsBecomeSpanEvents(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	var buf bytes.Buffer

	logger := newJSONLogger(&buf, observability.ModeCLI)

	ctx, span := tp.Tracer("test").Start(context.Background(), "replay")
	logger.InfoContext(ctx, "step done")
	logger.WarnContext(ctx, "snapshot missing")
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)

	events := spans[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "snapshot missing", events[0].Name)
}
