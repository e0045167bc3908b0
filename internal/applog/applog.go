// Package applog wires the CLI harness's structured logger: log/slog writing
// JSON lines to stderr, fanned out to a rotating file via lumberjack for any
// command when a log file path is set (the --log-file flag).
package applog

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New.
type Options struct {
	// Level is one of "debug", "info", "warn", "error"; unrecognized values
	// fall back to "info".
	Level string
	// FilePath, if non-empty, rotates JSON log lines into this file in
	// addition to stderr.
	FilePath string
}

func levelFromString(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a slog.Logger per opts. Every handler emits JSON so downstream
// tooling (and the translator support desk) can grep structured fields
// instead of parsing prose.
func New(opts Options) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: levelFromString(opts.Level)}

	var w io.Writer = os.Stderr
	if opts.FilePath != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		w = io.MultiWriter(os.Stderr, rotator)
	}

	return slog.New(slog.NewJSONHandler(w, handlerOpts))
}
