package logging

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTraceIDRoundTrip(t *testing.T) {
	ctx := WithTraceID(context.Background(), "abc-123")
	assert.Equal(t, "abc-123", TraceIDFromContext(ctx))
	assert.Empty(t, TraceIDFromContext(context.Background()))
}

func TestInitLoggerWritesFiles(t *testing.T) {
	prev := []*zap.Logger{AppLogger, RequestLogger, TimerLogger, ErrorLogger}
	t.Cleanup(func() {
		AppLogger, RequestLogger, TimerLogger, ErrorLogger = prev[0], prev[1], prev[2], prev[3]
	})

	dir := t.TempDir()
	require.NoError(t, InitLogger(Options{Dir: dir, Level: "info"}))

	ctx := WithTraceID(context.Background(), "trace-1")
	LogDuration(ctx, "unit_test")()
	ErrorLogger.Error("boom")
	AppLogger.Debug("hidden at info level")
	Sync()

	timer, err := os.ReadFile(filepath.Join(dir, "timer.log"))
	require.NoError(t, err)
	assert.Contains(t, string(timer), `"func":"unit_test"`)
	assert.Contains(t, string(timer), `"trace_id":"trace-1"`)

	errs, err := os.ReadFile(filepath.Join(dir, "error.log"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(errs), "boom"))

	app, err := os.ReadFile(filepath.Join(dir, "app.log"))
	if err == nil {
		assert.NotContains(t, string(app), "hidden at info level")
	}
}

func TestInitLoggerRejectsBadLevel(t *testing.T) {
	err := InitLogger(Options{Dir: t.TempDir(), Level: "loud"})
	assert.Error(t, err)
}
