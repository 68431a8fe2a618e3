package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var (
	mu       sync.RWMutex
	logger   *slog.Logger
	minLevel = new(slog.LevelVar)
)

func init() {
	minLevel.Set(slog.LevelInfo)
	logger = newLogger(os.Stderr)
}

func newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: minLevel}))
}

// SetLevel changes the minimum level for all subsequent log calls.
func SetLevel(l Level) {
	minLevel.Set(toSlog(l))
}

// ParseLevel maps a config string ("debug", "info", ...) to a Level.
// Unknown values fall back to INFO.
func ParseLevel(s string) Level {
	switch Level(strings.ToUpper(strings.TrimSpace(s))) {
	case LevelDebug:
		return LevelDebug
	case LevelWarn, "WARNING":
		return LevelWarn
	case LevelError:
		return LevelError
	default:
		return LevelInfo
	}
}

// SetOutput redirects log output, mostly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = newLogger(w)
}

func Debug(msg string, kv ...any) {
	logWithLevel(slog.LevelDebug, msg, kv...)
}

func Info(msg string, kv ...any) {
	logWithLevel(slog.LevelInfo, msg, kv...)
}

func Warn(msg string, kv ...any) {
	logWithLevel(slog.LevelWarn, msg, kv...)
}

func Error(msg string, err error, kv ...any) {
	// Prepend error into key-value list.
	extended := append([]any{"err", err}, kv...)
	logWithLevel(slog.LevelError, msg, extended...)
}

func logWithLevel(level slog.Level, msg string, kv ...any) {
	mu.RLock()
	l := logger
	mu.RUnlock()
	l.Log(context.Background(), level, msg, kv...)
}

func toSlog(l Level) slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
