package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level LogLevel) (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	cfg := DefaultConfig("production-scheduler")
	cfg.Level = level
	cfg.Output = buf
	return New(cfg), buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogger_BaseAttributes(t *testing.T) {
	logger, buf := newBufferLogger(LevelInfo)

	logger.WithError(errors.New("boom")).WithOrder("ORD-1").Info("Failed to save order")

	entry := decodeLine(t, buf)
	assert.Equal(t, "production-scheduler", entry["service"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "ORD-1", entry["orderId"])
	assert.Equal(t, "Failed to save order", entry["msg"])
}

func TestLogger_WithContext(t *testing.T) {
	logger, buf := newBufferLogger(LevelInfo)

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithCorrelationID(ctx, "corr-1")
	logger.WithContext(ctx).Info("hello")

	entry := decodeLine(t, buf)
	assert.Equal(t, "req-1", entry["requestId"])
	assert.Equal(t, "corr-1", entry["correlationId"])
	assert.Same(t, logger, logger.WithContext(context.Background()))
}

func TestLogger_SchedulePassLevel(t *testing.T) {
	logger, buf := newBufferLogger(LevelWarn)

	logger.SchedulePass(context.Background(), "2025-03-03", 4, 24, 0, time.Millisecond)
	assert.Zero(t, buf.Len(), "clean pass is logged at info")

	logger.SchedulePass(context.Background(), "2025-03-03", 4, 20, 2, time.Millisecond)
	entry := decodeLine(t, buf)
	assert.Equal(t, "WARN", entry["level"])
	assert.EqualValues(t, 2, entry["shortfalls"])
}

func TestLogLevel_Parse(t *testing.T) {
	logger, buf := newBufferLogger(LevelError)
	logger.Info("dropped")
	logger.Warn("dropped")
	assert.Zero(t, buf.Len())
	logger.Error("kept")
	assert.NotZero(t, buf.Len())
}
