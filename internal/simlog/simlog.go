// Package simlog provides a small leveled logger built on the standard
// library's log package. It exists because no example in the retrieval
// pack pulls in a third-party structured logging library for this kind
// of diagnostic output; it is deliberately peripheral, gated behind the
// CLI's -v flag, and never touches the single required stdout line.
package simlog

import (
	"io"
	"log"
	"os"
)

// Level selects which messages a Logger emits.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// Logger wraps a standard library *log.Logger with a minimum level.
type Logger struct {
	level Level
	std   *log.Logger
}

// New returns a Logger writing to w at the given minimum level.
func New(w io.Writer, level Level) *Logger {
	return &Logger{level: level, std: log.New(w, "", 0)}
}

// Default returns a Logger writing to stderr. verbose selects
// LevelInfo; otherwise only warnings and errors are emitted.
func Default(verbose bool) *Logger {
	level := LevelWarn
	if verbose {
		level = LevelInfo
	}
	return New(os.Stderr, level)
}

func (l *Logger) log(level Level, prefix, format string, args ...any) {
	if level > l.level {
		return
	}
	l.std.Printf(prefix+format, args...)
}

func (l *Logger) Errorf(format string, args ...any) { l.log(LevelError, "ERROR: ", format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.log(LevelWarn, "WARN: ", format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.log(LevelInfo, "INFO: ", format, args...) }
func (l *Logger) Debugf(format string, args ...any) { l.log(LevelDebug, "DEBUG: ", format, args...) }
