package logging

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.input), "level %q", tt.input)
	}
}

func TestLogFilePath(t *testing.T) {
	start := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	path := LogFilePath("/var/log/livetrack", "livetrackd", start)
	assert.Contains(t, path, "livetrackd.20240315_103000.log")
}

func TestSlogManager_SetupAndLog(t *testing.T) {
	var buf bytes.Buffer

	m := NewSlogManager()
	m.Setup(&buf, "debug", "", nil)

	logger := m.Logger()
	require.NotNil(t, logger)

	logger.Info("test message", "tracker", "JohnDoe")
	assert.Contains(t, buf.String(), "test message")
	assert.Contains(t, buf.String(), "tracker=JohnDoe")
}

func TestSlogManager_LoggerBeforeSetup(t *testing.T) {
	m := NewSlogManager()
	assert.NotNil(t, m.Logger())
}

func TestSlogManager_FlushWithoutProvider(t *testing.T) {
	m := NewSlogManager()
	assert.NoError(t, m.Flush(t.Context()))
}

func TestMultiHandler_FansOut(t *testing.T) {
	var a, b bytes.Buffer
	h := NewMultiHandler(
		slog.NewTextHandler(&a, nil),
		slog.NewTextHandler(&b, nil),
		nil, // nil handlers are filtered
	)

	logger := slog.New(h)
	logger.Warn("fan out")

	assert.Contains(t, a.String(), "fan out")
	assert.Contains(t, b.String(), "fan out")
}

func TestMultiHandler_LevelGating(t *testing.T) {
	var buf bytes.Buffer
	h := NewMultiHandler(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelError}))

	logger := slog.New(h)
	logger.Info("dropped")
	assert.Empty(t, buf.String())

	logger.Error("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestGelfLevelMapping(t *testing.T) {
	assert.Equal(t, int32(gelfLevelError), gelfLevel(slog.LevelError))
	assert.Equal(t, int32(gelfLevelWarn), gelfLevel(slog.LevelWarn))
	assert.Equal(t, int32(gelfLevelInfo), gelfLevel(slog.LevelInfo))
	assert.Equal(t, int32(gelfLevelDebug), gelfLevel(slog.LevelDebug))
}
