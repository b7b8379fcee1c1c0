package fiber

import (
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// LogifaceLogger adapts a *logiface.Logger[*stumpy.Event] — logiface's
// reference JSON implementation — to this package's Logger interface, for
// callers who already standardize on logiface elsewhere in their process and
// want a Scheduler's spawn/resume/terminate tracing folded into the same
// sink instead of a second, unrelated logging stack.
type LogifaceLogger struct {
	L *logiface.Logger[*stumpy.Event]
}

// NewLogifaceLogger wraps an already-configured stumpy-backed logiface
// Logger (built via stumpy.L.New(...)).
func NewLogifaceLogger(l *logiface.Logger[*stumpy.Event]) *LogifaceLogger {
	return &LogifaceLogger{L: l}
}

func toLogifaceLevel(level LogLevel) logiface.Level {
	switch level {
	case LevelDebug:
		return logiface.LevelDebug
	case LevelInfo:
		return logiface.LevelInformational
	case LevelWarn:
		return logiface.LevelWarning
	case LevelError:
		return logiface.LevelError
	default:
		return logiface.LevelInformational
	}
}

// IsEnabled reports whether level would actually be written, without
// allocating or emitting an entry.
func (l *LogifaceLogger) IsEnabled(level LogLevel) bool {
	b := l.L.Build(toLogifaceLevel(level))
	enabled := b.Enabled()
	if enabled {
		b.Release()
	}
	return enabled
}

// Debug implements the Logger interface's fast path for dispatcher tracing.
func (l *LogifaceLogger) Debug(event string, fiberID uint64, fiberName string) {
	l.Log(LogEntry{Level: LevelDebug, Category: "scheduler", FiberID: fiberID, FiberName: fiberName, Message: event})
}

// Log writes entry through the wrapped logiface Logger, tagging every field
// this package's LogEntry carries.
func (l *LogifaceLogger) Log(entry LogEntry) {
	b := l.L.Build(toLogifaceLevel(entry.Level))
	if !b.Enabled() {
		return
	}
	b = b.Str("category", entry.Category)
	if entry.FiberID != 0 {
		b = b.Int("fiber_id", int(entry.FiberID)).Str("fiber_name", entry.FiberName)
	}
	if entry.Err != nil {
		b = b.Err(entry.Err)
	}
	b.Log(entry.Message)
}
