package utils

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger provides leveled logging throughout the application.
// It keeps a printf-style API on top of a zerolog console writer.
type Logger struct {
	zl zerolog.Logger
}

// NewLogger creates a Logger writing to stdout at info level.
func NewLogger() *Logger {
	return newLogger(os.Stdout, zerolog.InfoLevel)
}

// NewLoggerWithLevel creates a Logger for the given level name
// ("debug", "info", "warn", "error"). Unknown names fall back to info.
func NewLoggerWithLevel(level string) *Logger {
	return NewLoggerTo(os.Stdout, level)
}

// NewLoggerTo is NewLoggerWithLevel writing to out instead of stdout.
func NewLoggerTo(out io.Writer, level string) *Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return newLogger(out, lvl)
}

// NewNopLogger returns a Logger that discards everything.
func NewNopLogger() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

func newLogger(out io.Writer, lvl zerolog.Level) *Logger {
	cw := zerolog.ConsoleWriter{Out: out, TimeFormat: "2006-01-02 15:04:05"}
	return &Logger{zl: zerolog.New(cw).Level(lvl).With().Timestamp().Logger()}
}

// Level reports the minimum level that is written.
func (l *Logger) Level() zerolog.Level {
	return l.zl.GetLevel()
}

func (l *Logger) Info(format string, args ...any) {
	l.zl.Info().Msg(fmt.Sprintf(format, args...))
}

func (l *Logger) Warn(format string, args ...any) {
	l.zl.Warn().Msg(fmt.Sprintf(format, args...))
}

func (l *Logger) Error(format string, args ...any) {
	l.zl.Error().Msg(fmt.Sprintf(format, args...))
}

func (l *Logger) Debug(format string, args ...any) {
	if l.zl.GetLevel() > zerolog.DebugLevel {
		return
	}
	l.zl.Debug().Msg(fmt.Sprintf(format, args...))
}
