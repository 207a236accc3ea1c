package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

// Level orders log severities from most to least verbose
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a config string to a Level, defaulting to info
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger wraps standard log with level-based output
type Logger struct {
	level Level
	tag   string
	info  *log.Logger
	warn  *log.Logger
	error *log.Logger
	debug *log.Logger
}

// NewLogger creates a logger writing info/warn/debug to stdout and errors to stderr
func NewLogger(level Level) *Logger {
	return newLogger(level, os.Stdout, os.Stderr)
}

// NewLoggerTo sends every level to w. Used by tests and by callers that capture output.
func NewLoggerTo(w io.Writer, level Level) *Logger {
	return newLogger(level, w, w)
}

// Discard returns a logger that drops everything
func Discard() *Logger {
	return newLogger(LevelError+1, io.Discard, io.Discard)
}

func newLogger(level Level, out, errOut io.Writer) *Logger {
	flags := log.Lmsgprefix
	return &Logger{
		level: level,
		info:  log.New(out, "[INFO]  ", flags),
		warn:  log.New(out, "[WARN]  ", flags),
		error: log.New(errOut, "[ERROR] ", flags),
		debug: log.New(out, "[DEBUG] ", flags),
	}
}

// With returns a copy of the logger that tags every line, e.g. with a run ID
func (l *Logger) With(tag string) *Logger {
	cp := *l
	if cp.tag != "" {
		cp.tag = cp.tag + " " + tag
	} else {
		cp.tag = tag
	}
	return &cp
}

func (l *Logger) prefix() string {
	if l.tag != "" {
		return fmt.Sprintf(" %s [%s] ", time.Now().Format("15:04:05"), l.tag)
	}
	return fmt.Sprintf(" %s ", time.Now().Format("15:04:05"))
}

func (l *Logger) Info(msg string, args ...interface{}) {
	if l.level <= LevelInfo {
		l.info.Printf(l.prefix()+msg, args...)
	}
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	if l.level <= LevelWarn {
		l.warn.Printf(l.prefix()+msg, args...)
	}
}

func (l *Logger) Error(msg string, args ...interface{}) {
	if l.level <= LevelError {
		l.error.Printf(l.prefix()+msg, args...)
	}
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	if l.level <= LevelDebug {
		l.debug.Printf(l.prefix()+msg, args...)
	}
}

// DebugEnabled reports whether Debug lines are emitted, so callers can skip building them
func (l *Logger) DebugEnabled() bool {
	return l.level <= LevelDebug
}
