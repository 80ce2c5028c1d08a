// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options selects the log level, output format and destination.
type Options struct {
	Level  string // trace, debug, info, warn, error, disabled
	Format string // console or json
	Out    io.Writer
}

// Setup builds a logger and installs it as the global zerolog logger.
func Setup(opts Options) zerolog.Logger {
	var w io.Writer = opts.Out
	if w == nil {
		w = os.Stderr
	}
	if !strings.EqualFold(opts.Format, "json") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	zerolog.TimeFieldFormat = time.RFC3339
	zl := zerolog.New(w).Level(ParseLevel(opts.Level)).With().Timestamp().Logger()
	log.Logger = zl
	return zl
}

// ParseLevel maps a level name onto a zerolog level, defaulting to info.
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
	case "off", "disabled", "none":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
