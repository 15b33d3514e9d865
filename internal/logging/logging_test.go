package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}

	for input, want := range tests {
		t.Run(input, func(t *testing.T) {
			assert.Equal(t, want, ParseLevel(input))
		})
	}
}

// captureDefault installs a text handler at level for the test's duration.
func captureDefault(t *testing.T, level slog.Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestGormLogger_KeepsSeverityAtInfo(t *testing.T) {
	buf := captureDefault(t, slog.LevelInfo)
	ctx := context.Background()
	l := GormLogger()
	query := func() (string, int64) { return "SELECT * FROM books", 0 }

	l.Error(ctx, "failed to open %s", "bookshelf.db")
	l.Trace(ctx, time.Now(), query, errors.New("disk I/O error"))
	l.Trace(ctx, time.Now().Add(-time.Second), query, nil)
	l.Trace(ctx, time.Now(), query, nil)

	out := buf.String()
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "failed to open bookshelf.db")
	assert.Contains(t, out, "disk I/O error")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "slow query")
	assert.NotContains(t, out, "level=DEBUG")
}

func TestGormLogger_TracesAtDebug(t *testing.T) {
	buf := captureDefault(t, slog.LevelDebug)
	GormLogger().Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 1 }, nil)
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "SELECT 1")
}

func TestGormLogger_SkipsRecordNotFound(t *testing.T) {
	buf := captureDefault(t, slog.LevelDebug)
	l := GormLogger()
	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 0 }, logger.ErrRecordNotFound)
	assert.NotContains(t, buf.String(), "level=ERROR")

	l.LogMode(logger.Silent).Error(context.Background(), "hidden")
	assert.NotContains(t, buf.String(), "hidden")
}
