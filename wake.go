package fiber

import "time"

// wakePrimitive is the real OS-level wake-up a scheduler's dispatcher blocks
// on when it has nothing ready and nothing sleeping with an imminent
// deadline, per the teacher's wakeup_linux.go/wakeup_darwin.go split
// (eventfd vs self-pipe), generalized to a single wait/notify/close surface
// so scheduler.go stays platform-agnostic. This is what makes a remote
// set_ready actually interrupt an idle OS thread rather than merely
// appending to a queue nobody is looking at.
type wakePrimitive interface {
	// wait blocks until notified or timeout elapses. A negative timeout
	// blocks indefinitely.
	wait(timeout time.Duration)
	// notify wakes a single pending (or future) wait call.
	notify()
	close()
}
