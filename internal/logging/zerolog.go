package logging

import (
	"io"
	"log/slog"

	"github.com/rs/zerolog"
)

// NewZerolog builds the zerolog logger used by the telemetry sink, at the
// same level as the slog output.
func NewZerolog(w io.Writer, level string, component string) zerolog.Logger {
	if w == nil {
		w = console
	}
	return zerolog.New(w).
		Level(zerologLevel(parseLevel(level))).
		With().
		Timestamp().
		Str("component", component).
		Logger()
}

func zerologLevel(l slog.Level) zerolog.Level {
	switch {
	case l <= slog.LevelDebug:
		return zerolog.DebugLevel
	case l <= slog.LevelInfo:
		return zerolog.InfoLevel
	case l <= slog.LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}
