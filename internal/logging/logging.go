// Package logging configures the process-wide slog default and hands out
// component-scoped loggers.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options controls the global logger configuration.
type Options struct {
	Level  string    // debug, info, warn, error; default info
	Format string    // text or json; default text
	Writer io.Writer // default os.Stderr
}

// Setup installs the global slog default according to opts.
func Setup(opts Options) error {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return err
	}

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	ho := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch opts.Format {
	case "", "text":
		handler = slog.NewTextHandler(w, ho)
	case "json":
		handler = slog.NewJSONHandler(w, ho)
	default:
		return fmt.Errorf("unknown log format %q", opts.Format)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// New returns a logger with a "component" attribute for module-scoped logging.
func New(component string) *slog.Logger {
	return slog.Default().With(slog.String("component", component))
}
