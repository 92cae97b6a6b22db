package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// console is where logs go when no file is configured.
var console io.Writer = os.Stdout

// Options configures SlogManager.Setup.
type Options struct {
	// File receives text logs; stdout is used when nil.
	File  io.Writer
	Level string
	// Provider enables the otelslog bridge when non-nil.
	Provider *sdklog.LoggerProvider
	// Scope is the OTel instrumentation scope name.
	Scope string
	// Context adds dynamic attributes to every record.
	Context ContextProvider
}

// SlogManager manages slog-based logging with optional OTel integration.
type SlogManager struct {
	logger *slog.Logger
	level  slog.Level

	// OTel provider for flushing
	logProvider *sdklog.LoggerProvider
}

// NewSlogManager creates a new slog-based logging manager.
func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup (re)builds the logger. Calling it again replaces the previous
// outputs, which is how the demo moves from stdout to its log file.
func (m *SlogManager) Setup(opts Options) {
	m.level = parseLevel(opts.Level)
	m.logProvider = opts.Provider

	handlerOpts := &slog.HandlerOptions{
		Level: m.level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339Nano))
				}
			}
			return a
		},
	}

	out := opts.File
	if out == nil {
		out = console
	}
	handlers := []slog.Handler{slog.NewTextHandler(out, handlerOpts)}

	if opts.Provider != nil {
		scope := opts.Scope
		if scope == "" {
			scope = "ghostreplay"
		}
		handlers = append(handlers, otelslog.NewHandler(scope, otelslog.WithLoggerProvider(opts.Provider)))
	}

	var h slog.Handler = NewMultiHandler(handlers...)
	if opts.Context != nil {
		h = NewContextHandler(h, opts.Context)
	}

	m.logger = slog.New(h)
	m.logger.Debug("Logging initialized", "level", m.level.String())
}

// Logger returns the configured slog.Logger.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		// Return a default logger if Setup hasn't been called
		return slog.Default()
	}
	return m.logger
}

// Level is the level set by the last Setup.
func (m *SlogManager) Level() slog.Level {
	return m.level
}

// Flush forces a flush of OTel logs if available.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.logProvider != nil {
		return m.logProvider.ForceFlush(ctx)
	}
	return nil
}
