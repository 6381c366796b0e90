package logger

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

type Logger struct {
	l *log.Logger
}

// New returns a text logger on stderr at info level.
func New() *Logger {
	return NewWithOptions(os.Stderr, "info", "text")
}

// NewWithOptions builds a logger writing to w. Unknown levels fall back to
// info; format is "text" or "json".
func NewWithOptions(w io.Writer, level, format string) *Logger {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = log.InfoLevel
	}
	opts := log.Options{
		Level:           lvl,
		ReportTimestamp: true,
	}
	if strings.EqualFold(format, "json") {
		opts.Formatter = log.JSONFormatter
	}
	return &Logger{l: log.NewWithOptions(w, opts)}
}

// Discard drops everything; used by tests and library callers without a sink.
func Discard() *Logger {
	return &Logger{l: log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})}
}

// With returns a child logger carrying the key/value pairs on every line.
func (l *Logger) With(keyvals ...any) *Logger {
	return &Logger{l: l.l.With(keyvals...)}
}

func (l *Logger) Debugf(format string, args ...any) {
	l.l.Debugf(format, args...)
}
func (l *Logger) Infof(format string, args ...any) {
	l.l.Infof(format, args...)
}
func (l *Logger) Warnf(format string, args ...any) {
	l.l.Warnf(format, args...)
}
func (l *Logger) Errorf(format string, args ...any) {
	l.l.Errorf(format, args...)
}
