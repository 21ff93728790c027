package utils

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger provides leveled, printf-style console logging backed by zerolog.
// Errors go to their own writer.
type Logger struct {
	zl  zerolog.Logger
	err zerolog.Logger
}

// NewLogger creates a Logger writing human-readable lines to stdout, and
// errors to stderr.
func NewLogger() *Logger {
	return newLogger(os.Stdout, os.Stderr, zerolog.InfoLevel)
}

// NewLoggerTo creates a Logger writing every level to w at the given minimum level.
func NewLoggerTo(w io.Writer, level zerolog.Level) *Logger {
	return newLogger(w, w, level)
}

func newLogger(out, errOut io.Writer, level zerolog.Level) *Logger {
	return &Logger{
		zl:  consoleLogger(out, level),
		err: consoleLogger(errOut, level),
	}
}

func consoleLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	out := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    w != os.Stdout && w != os.Stderr,
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// SetLevel changes the minimum level. Unknown names leave the level unchanged.
func (l *Logger) SetLevel(name string) {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil || name == "" {
		return
	}
	l.zl = l.zl.Level(level)
	l.err = l.err.Level(level)
}

func (l *Logger) Info(format string, args ...any) {
	l.zl.Info().Msgf(format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.zl.Warn().Msgf(format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.err.Error().Msgf(format, args...)
}

func (l *Logger) Debug(format string, args ...any) {
	l.zl.Debug().Msgf(format, args...)
}
