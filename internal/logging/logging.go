// Package logging builds the zerolog loggers handed to every controller.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options selects the level, format and sink of a logger.
type Options struct {
	Level  string    `mapstructure:"level"`
	Format string    `mapstructure:"format"` // "console" or "json"
	Writer io.Writer `mapstructure:"-"`
}

// New returns a timestamped logger. Console format is colourised unless the
// writer is not stdout/stderr.
func New(o Options) zerolog.Logger {
	w := o.Writer
	if w == nil {
		w = os.Stderr
	}
	if !strings.EqualFold(o.Format, "json") {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
			NoColor:    w != os.Stdout && w != os.Stderr,
		}
	}
	return zerolog.New(w).Level(ParseLevel(o.Level)).With().Timestamp().Logger()
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "off", "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Component derives a child logger tagged with the component name.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
