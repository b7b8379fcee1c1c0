package fiber

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestInterrupt_WakesSleeper exercises S6: a fiber parked in
// WaitUntil(now+1h) is interrupted, and must unwind via the interruption
// point well before the deadline would otherwise elapse.
func TestInterrupt_WakesSleeper(t *testing.T) {
	var elapsed time.Duration
	var joinErr error
	var reachedAfterWaitUntil bool
	done := make(chan struct{})
	go func() {
		defer close(done)
		start := time.Now()
		target := Spawn(func() {
			WaitUntil(start.Add(time.Hour))
			reachedAfterWaitUntil = true // should never execute
		})

		// Let target actually reach WaitUntil and park in the sleep queue
		// before requesting interruption, since Interrupt's
		// fast-path requires target to already be off the ready queue.
		YieldNow()

		Interrupt(target)
		joinErr = Join(target)
		elapsed = time.Since(start)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("test did not complete in time")
	}

	assert.False(t, reachedAfterWaitUntil)
	assert.NoError(t, joinErr, "interruption is a clean termination, not a PanicError")
	assert.Less(t, elapsed, time.Second)
}

// TestInterrupt_WakesJoiner interrupts a fiber parked in Join,
// forcing it out of the target's wait queue immediately: the panic unwinds
// straight out of the blocked Join call, so the joiner terminates cleanly
// without ever reaching code after Join.
func TestInterrupt_WakesJoiner(t *testing.T) {
	var reachedAfterJoin bool
	var joinerJoinErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		neverTerminates := Spawn(func() {
			WaitUntil(time.Now().Add(time.Hour))
		})
		joiner := Spawn(func() {
			_ = Join(neverTerminates)
			reachedAfterJoin = true // should never execute
		})

		YieldNow() // let joiner actually park in Join
		YieldNow()

		Interrupt(joiner)
		joinerJoinErr = Join(joiner)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("test did not complete in time")
	}
	assert.False(t, reachedAfterJoin)
	assert.NoError(t, joinerJoinErr, "interruption is a clean termination, not a PanicError")
}

func TestWithInterruptionBlocked_SuppressesInterruption(t *testing.T) {
	var sawInterruptedInsideBlock bool
	var sawInterruptedAfterBlock bool
	done := make(chan struct{})
	go func() {
		defer close(done)
		target := Spawn(func() {
			WithInterruptionBlocked(func() {
				// parking (rather than merely yielding) while blocked
				// exercises the same forced-ready path as the sleeper
				// and joiner cases above, just with the wake suppressed.
				WaitUntil(time.Now().Add(time.Hour)) // interruption must not fire here
				sawInterruptedInsideBlock = false
			})
			func() {
				defer func() {
					if recover() != nil {
						sawInterruptedAfterBlock = true
					}
				}()
				YieldNow() // interruption fires here, once the block exits
			}()
		})

		YieldNow() // let target start and enter WithInterruptionBlocked
		Interrupt(target)
		_ = Join(target)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("test did not complete in time")
	}
	assert.False(t, sawInterruptedInsideBlock)
	assert.True(t, sawInterruptedAfterBlock)
}

// TestForceUnwind_IgnoresInterruptionBlocked exercises FORCED_UNWIND's
// defining difference from Interrupt: it unwinds a fiber even while the
// fiber is inside a WithInterruptionBlocked section.
func TestForceUnwind_IgnoresInterruptionBlocked(t *testing.T) {
	var reachedAfterBlock bool
	var joinErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		target := Spawn(func() {
			WithInterruptionBlocked(func() {
				WaitUntil(time.Now().Add(time.Hour)) // must unwind here regardless
			})
			reachedAfterBlock = true // should never execute
		})

		YieldNow() // let target park inside the blocked section

		ForceUnwind(target)
		joinErr = Join(target)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("test did not complete in time")
	}
	assert.False(t, reachedAfterBlock)
	assert.NoError(t, joinErr, "forced unwind is a clean termination, not a PanicError")
}

// TestForceUnwind_RejectsMainAndDispatcher exercises ForceUnwind's guard
// against targeting either of the two fibers that never pass through an
// interruption point, which would otherwise leave the request pending
// forever.
func TestForceUnwind_RejectsMainAndDispatcher(t *testing.T) {
	var panickedMain, panickedDispatcher bool
	done := make(chan struct{})
	go func() {
		defer close(done)
		s := Bootstrap()
		func() {
			defer func() { panickedMain = recover() != nil }()
			ForceUnwind(s.mainCtx)
		}()
		func() {
			defer func() { panickedDispatcher = recover() != nil }()
			ForceUnwind(s.dispatcherCtx)
		}()
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("test did not complete in time")
	}
	assert.True(t, panickedMain)
	assert.True(t, panickedDispatcher)
}

func TestInterruptionBlocked_ReportsState(t *testing.T) {
	var insideBlock, afterBlock bool
	done := make(chan struct{})
	go func() {
		defer close(done)
		f := Spawn(func() {
			WithInterruptionBlocked(func() {
				insideBlock = InterruptionBlocked()
			})
			afterBlock = InterruptionBlocked()
		})
		_ = Join(f)
	}()
	<-done
	assert.True(t, insideBlock)
	assert.False(t, afterBlock)
}
