package logger

import (
	"log/slog"
	"os"
	"sync/atomic"
)

var current atomic.Pointer[slog.Logger]

func init() {
	current.Store(slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

// Init configures the process logger. Production emits JSON at info level,
// every other environment emits text at debug level.
func Init(environment string) {
	var handler slog.Handler
	if environment == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	l := slog.New(handler)
	current.Store(l)
	slog.SetDefault(l)
}

// L returns the process logger.
func L() *slog.Logger {
	return current.Load()
}

func Debug(msg string, args ...any) {
	L().Debug(msg, normalize(args)...)
}

func Info(msg string, args ...any) {
	L().Info(msg, normalize(args)...)
}

func Warn(msg string, args ...any) {
	L().Warn(msg, normalize(args)...)
}

func Error(msg string, args ...any) {
	L().Error(msg, normalize(args)...)
}

func Fatal(msg string, args ...any) {
	L().Error(msg, normalize(args)...)
	os.Exit(1)
}

// normalize lets callers pass a bare error as the only argument.
func normalize(args []any) []any {
	if len(args) == 1 {
		if err, ok := args[0].(error); ok {
			return []any{"error", err}
		}
	}
	return args
}
