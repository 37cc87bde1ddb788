// Package logger builds the zerolog logger shared by the service.
package logger

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger writing to out. format is "json" or "console".
func New(out io.Writer, level zerolog.Level, format string) zerolog.Logger {
	if format != "json" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Nop returns a logger that discards everything, used in tests.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
