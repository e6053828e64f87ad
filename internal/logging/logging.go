// Package logging provides the logger interface used across backup-rotator
// and its zerolog-backed implementation.
package logging

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the logging interface consumed by the rest of the application.
// Arguments after the message are alternating key/value pairs.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}

type zeroLogger struct {
	zl zerolog.Logger
}

// New builds a logger writing to stderr. Format "json" emits raw zerolog
// output, anything else uses the human-readable console writer.
func New(level, format string) Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	var zl zerolog.Logger
	if format == "json" {
		zl = zerolog.New(os.Stderr)
	} else {
		zl = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	return &zeroLogger{zl: zl.Level(lvl).With().Timestamp().Logger()}
}

// Nop returns a logger that discards everything. Used in tests.
func Nop() Logger {
	return &zeroLogger{zl: zerolog.Nop()}
}

func (l *zeroLogger) Debug(msg string, kv ...any) { emit(l.zl.Debug(), msg, kv) }
func (l *zeroLogger) Info(msg string, kv ...any)  { emit(l.zl.Info(), msg, kv) }
func (l *zeroLogger) Warn(msg string, kv ...any)  { emit(l.zl.Warn(), msg, kv) }
func (l *zeroLogger) Error(msg string, kv ...any) { emit(l.zl.Error(), msg, kv) }

func emit(ev *zerolog.Event, msg string, kv []any) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		switch v := kv[i+1].(type) {
		case error:
			ev = ev.AnErr(key, v)
		default:
			ev = ev.Interface(key, v)
		}
	}
	ev.Msg(msg)
}
