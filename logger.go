package trajcache

import (
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/trajcache/chunkstore"
)

// Logger wraps slog.Logger with trajcache-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithChunk adds a chunk key field to the logger.
func (l *Logger) WithChunk(key chunkstore.Key) *Logger {
	return &Logger{
		Logger: l.Logger.With("chunk", uint32(key)),
	}
}

// WithFrame adds a frame index field to the logger.
func (l *Logger) WithFrame(frame int) *Logger {
	return &Logger{
		Logger: l.Logger.With("frame", frame),
	}
}

// LogChunkLoad logs a chunk load performed by the prefetch worker.
func (l *Logger) LogChunkLoad(key chunkstore.Key, size int, duration time.Duration, err error) {
	if err != nil {
		l.Error("chunk load failed",
			"chunk", uint32(key),
			"error", err,
		)
	} else {
		l.Debug("chunk loaded",
			"chunk", uint32(key),
			"bytes", size,
			"duration", duration,
		)
	}
}

// LogEviction logs an eviction decision.
func (l *Logger) LogEviction(victim, incoming chunkstore.Key, resident int) {
	l.Debug("chunk evicted",
		"victim", uint32(victim),
		"incoming", uint32(incoming),
		"resident", resident,
	)
}

// LogCleanup logs cache teardown.
func (l *Logger) LogCleanup(loads, evictions int64) {
	l.Info("frame cache closed",
		"loads", loads,
		"evictions", evictions,
	)
}
