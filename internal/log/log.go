// Package log creates the zerolog loggers used by the command line tool.
package log

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Output formats
const (
	FormatPretty = "pretty"
	FormatJSON   = "json"
)

// New returns a logger writing to w. format is "pretty" or "json",
// level a zerolog level name such as "INFO" or "debug".
func New(w io.Writer, format, level string) (zerolog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}
	switch strings.ToLower(format) {
	case FormatJSON:
	case FormatPretty, "":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly, NoColor: true}
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q", format)
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// ParseLevel converts a level name, case insensitive. "WARNING" is
// accepted for warn. An empty level is info.
func ParseLevel(level string) (zerolog.Level, error) {
	switch l := strings.ToLower(level); l {
	case "":
		return zerolog.InfoLevel, nil
	case "warning":
		return zerolog.WarnLevel, nil
	default:
		lvl, err := zerolog.ParseLevel(l)
		if err != nil {
			return zerolog.NoLevel, fmt.Errorf("unknown log level %q", level)
		}
		return lvl, nil
	}
}
