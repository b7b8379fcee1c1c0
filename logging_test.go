package fiber

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoOpLogger_DiscardsEverything(t *testing.T) {
	var l NoOpLogger
	assert.False(t, l.IsEnabled(LevelError))
	l.Log(LogEntry{Level: LevelError, Message: "should be discarded"})
	l.Debug("event", 1, "f")
}

func TestWriterLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(LevelWarn, &buf)
	assert.False(t, l.IsEnabled(LevelInfo))
	assert.True(t, l.IsEnabled(LevelError))

	l.Log(LogEntry{Level: LevelInfo, Category: "scheduler", Message: "suppressed"})
	assert.Empty(t, buf.String())

	l.Log(LogEntry{Level: LevelError, Category: "scheduler", Message: "reported", FiberID: 7, FiberName: "worker"})
	out := buf.String()
	assert.Contains(t, out, "reported")
	assert.Contains(t, out, "worker")
}

// TestLogifaceAdapter_ExercisesSchedulerDebugTracing wires a stumpy-backed
// logiface Logger into a Scheduler via WithLogger, confirming spawn/resume
// debug events actually reach the logiface sink with the right fields.
func TestLogifaceAdapter_ExercisesSchedulerDebugTracing(t *testing.T) {
	var buf bytes.Buffer
	underlying := stumpy.L.New(
		stumpy.L.WithLevel(logiface.LevelDebug),
		stumpy.L.WithStumpy(
			stumpy.WithWriter(&buf),
			stumpy.WithTimeField(``),
		),
	)
	adapter := NewLogifaceLogger(underlying)
	require.True(t, adapter.IsEnabled(LevelDebug))

	done := make(chan struct{})
	go func() {
		defer close(done)
		Bootstrap(WithLogger(adapter))
		f := Spawn(func() { YieldNow() }, WithName("traced"))
		_ = Join(f)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("test did not complete in time")
	}

	out := buf.String()
	assert.Contains(t, out, "spawn")
	assert.Contains(t, out, "resume")
	assert.Contains(t, out, "traced")
	assert.True(t, strings.Count(out, "\n") >= 2)
}
