// Package logger provides domain.LogService implementations.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/trussworks/userauth/pkg/domain"
)

// ZerologLogger writes structured log lines with zerolog.
type ZerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger writes JSON lines to w, or human readable lines when console is set.
func NewZerologLogger(w io.Writer, console bool) ZerologLogger {
	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return ZerologLogger{
		log: zerolog.New(w).With().Timestamp().Str("component", "userauth").Logger(),
	}
}

// NewLogger returns a ZerologLogger on stderr for the given LOG_FORMAT.
func NewLogger(format string) ZerologLogger {
	return NewZerologLogger(os.Stderr, format == "console")
}

func withFields(event *zerolog.Event, fields domain.LogFields) *zerolog.Event {
	for k, v := range fields {
		event = event.Str(k, v)
	}
	return event
}

// Info logs at info level
func (l ZerologLogger) Info(message string, fields domain.LogFields) {
	withFields(l.log.Info(), fields).Msg(message)
}

// WarnError logs at warn level with the error attached
func (l ZerologLogger) WarnError(message string, err error, fields domain.LogFields) {
	withFields(l.log.Warn().Err(err), fields).Msg(message)
}
