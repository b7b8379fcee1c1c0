// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package-level structured logging, trimmed from teacher's logging.go down
// to what a scheduler actually needs to trace: spawn/resume/terminate
// events keyed by fiber id. Unlike teacher's event loop, a process here can
// have many independent schedulers (one per bootstrapped goroutine), so
// there is no package-level global logger singleton — each Scheduler holds
// its own Logger, set via WithLogger, defaulting to a no-op.

package fiber

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// LogLevel is the severity of a log entry.
type LogLevel int32

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", l)
	}
}

// LogEntry is a single structured log record, keyed by fiber id rather than
// teacher's loop/task/timer ids.
type LogEntry struct {
	Level     LogLevel
	Category  string // "scheduler", "fss", "interrupt"
	FiberID   uint64
	FiberName string
	Message   string
	Err       error
	Timestamp time.Time
}

// Logger is the structured logging interface a Scheduler reports through.
// Satisfied by DefaultLogger and NoOpLogger here, or by an adapter over a
// third-party logger (the package's own tests exercise one over
// github.com/joeycumines/logiface).
type Logger interface {
	Log(entry LogEntry)
	IsEnabled(level LogLevel) bool
	Debug(event string, fiberID uint64, fiberName string)
}

// NoOpLogger discards every entry; it is the default when no
// SchedulerOption supplies a Logger.
type NoOpLogger struct{}

func (NoOpLogger) Log(LogEntry)                 {}
func (NoOpLogger) IsEnabled(LogLevel) bool      { return false }
func (NoOpLogger) Debug(string, uint64, string) {}

var defaultLogger Logger = NoOpLogger{}

// DefaultLogger writes pretty (terminal) or JSON (non-terminal) structured
// entries to Out, level-gated, mirroring teacher's DefaultLogger.
type DefaultLogger struct {
	level atomic.Int32
	mu    sync.Mutex
	Out   *os.File
}

// NewDefaultLogger creates a logger that discards entries below level.
func NewDefaultLogger(level LogLevel) *DefaultLogger {
	l := &DefaultLogger{Out: os.Stdout}
	l.level.Store(int32(level))
	return l
}

func (l *DefaultLogger) SetLevel(level LogLevel) { l.level.Store(int32(level)) }

func (l *DefaultLogger) IsEnabled(level LogLevel) bool {
	return level >= LogLevel(l.level.Load())
}

func (l *DefaultLogger) Debug(event string, fiberID uint64, fiberName string) {
	if !l.IsEnabled(LevelDebug) {
		return
	}
	l.Log(LogEntry{Level: LevelDebug, Category: "scheduler", FiberID: fiberID, FiberName: fiberName, Message: event})
}

func (l *DefaultLogger) Log(entry LogEntry) {
	if !l.IsEnabled(entry.Level) {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if isTerminal(l.Out) {
		l.logPretty(entry)
	} else {
		l.logJSON(entry)
	}
}

func (l *DefaultLogger) logPretty(entry LogEntry) {
	colorReset := "\033[0m"
	var color string
	switch entry.Level {
	case LevelDebug:
		color = "\033[90m"
	case LevelInfo:
		color = "\033[36m"
	case LevelWarn:
		color = "\033[33m"
	case LevelError:
		color = "\033[31m"
	}
	fmt.Fprintf(l.Out, "%s%s%s %s [%-10s] %s",
		color, entry.Level.String(), colorReset,
		entry.Timestamp.Format("15:04:05.000"),
		entry.Category,
		entry.Message,
	)
	if entry.FiberID != 0 {
		fmt.Fprintf(l.Out, " fiber=%d(%s)", entry.FiberID, entry.FiberName)
	}
	if entry.Err != nil {
		fmt.Fprintf(l.Out, " err=%v", entry.Err)
	}
	fmt.Fprintln(l.Out)
}

func (l *DefaultLogger) logJSON(entry LogEntry) {
	fmt.Fprintf(l.Out, "{\"timestamp\":%q,\"level\":%q,\"category\":%q,\"message\":%q,\"fiber\":%d,\"fiber_name\":%q",
		entry.Timestamp.Format(time.RFC3339Nano),
		entry.Level.String(),
		entry.Category,
		entry.Message,
		entry.FiberID,
		entry.FiberName,
	)
	if entry.Err != nil {
		fmt.Fprintf(l.Out, ",\"error\":%q}\n", entry.Err.Error())
	} else {
		fmt.Fprintln(l.Out, "}")
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// WriterLogger is a plain-text Logger over any io.Writer, useful in tests
// that want to assert on emitted lines without a terminal.
type WriterLogger struct {
	level atomic.Int32
	mu    sync.Mutex
	out   io.Writer
}

func NewWriterLogger(level LogLevel, out io.Writer) *WriterLogger {
	l := &WriterLogger{out: out}
	l.level.Store(int32(level))
	return l
}

func (l *WriterLogger) IsEnabled(level LogLevel) bool { return level >= LogLevel(l.level.Load()) }

func (l *WriterLogger) Debug(event string, fiberID uint64, fiberName string) {
	if !l.IsEnabled(LevelDebug) {
		return
	}
	l.Log(LogEntry{Level: LevelDebug, Category: "scheduler", FiberID: fiberID, FiberName: fiberName, Message: event})
}

func (l *WriterLogger) Log(entry LogEntry) {
	if !l.IsEnabled(entry.Level) {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, "[%s] [%s] [%-10s] %s", entry.Level, entry.Timestamp.Format("15:04:05.000"), entry.Category, entry.Message)
	if entry.FiberID != 0 {
		fmt.Fprintf(l.out, " fiber=%d(%s)", entry.FiberID, entry.FiberName)
	}
	if entry.Err != nil {
		fmt.Fprintf(l.out, " err=%v", entry.Err)
	}
	fmt.Fprintln(l.out)
}
