package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"student-registry/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func spanContext(t *testing.T) context.Context {
	t.Helper()
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func TestNewWithOptions_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithOptions(logger.Options{Writer: &buf, JSON: true, Level: slog.LevelDebug})

	t.Run("TraceContext", func(t *testing.T) {
		buf.Reset()
		log.With("table", "students").InfoContext(spanContext(t), "rows fetched", "count", 2)

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "rows fetched", entry["msg"])
		assert.Equal(t, "students", entry["table"])
		assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", entry["trace_id"])
		assert.Equal(t, "00f067aa0ba902b7", entry["span_id"])
	})

	t.Run("NoSpan", func(t *testing.T) {
		buf.Reset()
		log.InfoContext(context.Background(), "plain")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.NotContains(t, entry, "trace_id")
	})
}

func TestNewWithOptions_Text(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithOptions(logger.Options{Writer: &buf, Level: slog.LevelInfo})

	log.Debug("hidden")
	assert.Empty(t, buf.String())

	log.Info("visible", "grade", 6)
	assert.Contains(t, buf.String(), "msg=visible")
	assert.Contains(t, buf.String(), "grade=6")
	assert.NotContains(t, buf.String(), `\x1b[31m`)

	buf.Reset()
	log.WithGroup("db").Error("boom", "op", "insert")
	out := buf.String()
	// TextHandler quotes the escape sequence.
	assert.True(t, strings.Contains(out, `msg="\x1b[31mboom\x1b[0m"`), out)
	assert.Contains(t, out, "db.op=insert")
}
