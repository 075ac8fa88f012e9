// Package logging configures the process-wide structured logger. It is
// initialized once at startup and injected into components as a
// zerolog.Logger value rather than read back out of a package global, so
// that internal/sweep and friends stay testable with a silent or buffered
// logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Level names accepted by New, matching the wider corpus's log.Level type.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Config controls how the root logger is constructed.
type Config struct {
	Level  Level
	JSON   bool
	Output io.Writer
}

// New builds a root logger per cfg. Console output is used unless cfg.JSON
// is set or the output is an *os.File that is not a terminal; any other
// io.Writer gets console output.
func New(cfg Config) zerolog.Logger {
	var level zerolog.Level
	switch cfg.Level {
	case DebugLevel:
		level = zerolog.DebugLevel
	case WarnLevel:
		level = zerolog.WarnLevel
	case ErrorLevel:
		level = zerolog.ErrorLevel
	default:
		level = zerolog.InfoLevel
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	useJSON := cfg.JSON
	if f, ok := output.(*os.File); ok && !isatty.IsTerminal(f.Fd()) {
		useJSON = true
	}

	var logger zerolog.Logger
	if useJSON {
		logger = zerolog.New(output).Level(level).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}).Level(level).With().Timestamp().Logger()
	}
	return logger
}

// Component returns a child logger tagged with a component field, the
// pattern every internal package uses to identify its log lines.
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}

// Nop returns a logger that discards everything, for tests that don't care
// about log output.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
