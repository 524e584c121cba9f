package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestWithRequestIDAddsField(t *testing.T) {
	var buf bytes.Buffer
	base, err := New(Config{Level: "debug", Service: "gateway", Output: zapcore.AddSync(&buf)})
	require.NoError(t, err)

	ctx := ContextWithRequestID(context.Background(), "req-42")
	WithRequestID(ctx, base).Info("hello")
	require.NoError(t, base.Sync())

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "req-42", line["request_id"])
	assert.Equal(t, "gateway", line["service"])
	assert.Contains(t, line, "timestamp")
}

func TestNewFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "chatty", Output: zapcore.AddSync(&buf)})
	require.NoError(t, err)

	l.Debug("hidden")
	assert.Zero(t, buf.Len())
	assert.True(t, l.Core().Enabled(zap.InfoLevel))
}

func TestWithRequestIDNilSafe(t *testing.T) {
	assert.NotNil(t, WithRequestID(context.Background(), nil))
	assert.Equal(t, "", RequestID(context.Background()))
}
