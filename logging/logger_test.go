package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedLogger(level, format string) (*BrainLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return &BrainLogger{
		level:   level,
		format:  format,
		service: "brain-test",
		output:  buf,
		mu:      &sync.RWMutex{},
	}, buf
}

func TestTextFormatIncludesServiceAndFields(t *testing.T) {
	l, buf := newBufferedLogger("INFO", "text")
	l.Info("hello world", map[string]interface{}{"count": 3})

	line := buf.String()
	assert.Contains(t, line, "[brain-test:]")
	assert.Contains(t, line, "hello world")
	assert.Contains(t, line, "count=3")
}

func TestJSONFormatProducesValidJSON(t *testing.T) {
	l, buf := newBufferedLogger("INFO", "json")
	l.Warn("disk low", map[string]interface{}{"free_gb": 2})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "disk low", entry["message"])
	assert.Equal(t, float64(2), entry["free_gb"])
}

func TestLevelFilteringSuppressesBelowThreshold(t *testing.T) {
	l, buf := newBufferedLogger("WARN", "text")
	l.Debug("too quiet", nil)
	l.Info("still too quiet", nil)
	assert.Empty(t, buf.String())

	l.Warn("loud enough", nil)
	assert.NotEmpty(t, buf.String())
}

func TestWithComponentTagsSubsequentLines(t *testing.T) {
	l, buf := newBufferedLogger("INFO", "text")
	child := l.WithComponent("executor")
	child.Info("dispatching", nil)
	assert.Contains(t, buf.String(), "[brain-test:executor]")
}

func TestWithContextAttachesTraceID(t *testing.T) {
	l, buf := newBufferedLogger("INFO", "json")
	ctx := ContextWithTraceID(context.Background(), "trace-123")
	l.InfoWithContext(ctx, "step done", nil)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "trace-123", entry["trace_id"])
}

func TestContextWithoutTraceIDOmitsField(t *testing.T) {
	l, buf := newBufferedLogger("INFO", "json")
	l.InfoWithContext(context.Background(), "step done", nil)

	assert.False(t, strings.Contains(buf.String(), "trace_id"))
}

func TestNoOpLoggerNeverPanics(t *testing.T) {
	var n NoOpLogger
	n.Info("x", nil)
	n.Warn("x", nil)
	n.Error("x", nil)
	n.Debug("x", nil)
	n.InfoWithContext(context.Background(), "x", nil)
	assert.Equal(t, Logger(n), n.WithComponent("c"))
}
