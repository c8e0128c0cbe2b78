package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Log levels
const (
	None    = 0
	Error   = 1
	Warning = 2
	Info    = 3
	Debug   = 4
)

var (
	currentLevel atomic.Int32
	handlerLevel = new(slog.LevelVar)
	logger       atomic.Pointer[slog.Logger]
)

func init() {
	currentLevel.Store(Info)
	handlerLevel.Set(slog.LevelInfo)
	SetOutput(os.Stderr, false)
}

// SetOutput replaces the log destination. jsonFormat selects slog's JSON
// handler instead of the text handler.
func SetOutput(w io.Writer, jsonFormat bool) {
	opts := &slog.HandlerOptions{Level: handlerLevel}
	var h slog.Handler
	if jsonFormat {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	logger.Store(slog.New(h))
}

// Logger returns the current structured logger, e.g. to attach attributes with With.
func Logger() *slog.Logger {
	return logger.Load()
}

// SetLevel sets the global logging level.
func SetLevel(level int) {
	currentLevel.Store(int32(level))
	if level <= None {
		// Above every slog level, so nothing is emitted.
		handlerLevel.Set(slog.LevelError + 4)
	} else {
		handlerLevel.Set(toSlogLevel(level))
	}
	Logf(Debug, "Log level set to %d", level)
}

// GetLevel returns the current logging level.
func GetLevel() int {
	return int(currentLevel.Load())
}

// ParseLevel converts a string level to an integer level.
func ParseLevel(levelStr string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "none":
		return None, nil
	case "error":
		return Error, nil
	case "warn", "warning":
		return Warning, nil
	case "info":
		return Info, nil
	case "debug":
		return Debug, nil
	default:
		return Info, fmt.Errorf("invalid log level string: '%s'", levelStr)
	}
}

// SetupLogging initializes logging based on a level string.
// Returns the integer log level corresponding to the string.
func SetupLogging(levelStr string) int {
	level, err := ParseLevel(levelStr)
	if err != nil {
		Logf(Warning, "Invalid log level '%s' provided, defaulting to 'info'. %v", levelStr, err)
		level = Info
	}
	SetLevel(level)
	return level
}

// Logf logs a formatted message if the given level is enabled.
func Logf(level int, format string, v ...interface{}) {
	if !Enabled(level) {
		return
	}
	logger.Load().Log(context.Background(), toSlogLevel(level), fmt.Sprintf(format, v...))
}

// Log emits msg with structured key/value attributes.
func Log(level int, msg string, args ...any) {
	if !Enabled(level) {
		return
	}
	logger.Load().Log(context.Background(), toSlogLevel(level), msg, args...)
}

// Enabled reports whether messages at level would be written.
func Enabled(level int) bool {
	return level > None && int32(level) <= currentLevel.Load()
}

func toSlogLevel(level int) slog.Level {
	switch level {
	case Error:
		return slog.LevelError
	case Warning:
		return slog.LevelWarn
	case Debug:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
