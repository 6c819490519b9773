// Package logger sets up console logging and the scenario banners.
package logger

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// TimeFormat is the timestamp layout of every console line.
const TimeFormat = "2006-01-02 15:04:05"

var separator = strings.Repeat("-", 120)

// New returns a console logger writing to w.
func New(w io.Writer, noColor bool) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: TimeFormat,
		NoColor:    noColor,
	}).With().Timestamp().Logger()
}

// Banner logs msg upper-cased between two separator lines.
func Banner(l zerolog.Logger, msg string) {
	l.Info().Msg(separator)
	l.Info().Msg(strings.ToUpper(msg))
	l.Info().Msg(separator)
}

func TestBegin(l zerolog.Logger, scenario string) {
	Banner(l, fmt.Sprintf("Scenario: %s - Started", scenario))
}

func TestEnd(l zerolog.Logger, scenario, status string) {
	Banner(l, fmt.Sprintf("Scenario: %s - %s", scenario, status))
}
