// Package logging provides the leveled logger shared by the store, pipeline
// and outer surfaces.
package logging

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Logger is a printf-style leveled logger
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	default:
		return "ERROR"
	}
}

// ParseLevel maps a config string to a Level. Unknown values yield LevelInfo.
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

// Writer logs lines of the form "15:04:05 LEVEL message" to an io.Writer,
// dropping messages below its minimum level. Safe for concurrent use.
type Writer struct {
	mu    sync.Mutex
	out   io.Writer
	min   Level
	clock func() time.Time
}

func New(out io.Writer, min Level) *Writer {
	return &Writer{out: out, min: min, clock: time.Now}
}

func (w *Writer) Debug(format string, args ...any) { w.log(LevelDebug, format, args...) }
func (w *Writer) Info(format string, args ...any)  { w.log(LevelInfo, format, args...) }
func (w *Writer) Warn(format string, args ...any)  { w.log(LevelWarn, format, args...) }
func (w *Writer) Error(format string, args ...any) { w.log(LevelError, format, args...) }

func (w *Writer) log(level Level, format string, args ...any) {
	if level < w.min {
		return
	}
	msg := fmt.Sprintf(format, args...)
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.out, "%s %s %s\n", w.clock().Format("15:04:05"), level, msg)
}

type nop struct{}

func (nop) Debug(string, ...any) {}
func (nop) Info(string, ...any)  {}
func (nop) Warn(string, ...any)  {}
func (nop) Error(string, ...any) {}

// Nop discards everything
var Nop Logger = nop{}

// OrNop returns l, or Nop when l is nil
func OrNop(l Logger) Logger {
	if l == nil {
		return Nop
	}
	return l
}
