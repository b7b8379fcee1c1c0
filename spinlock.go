package fiber

import (
	"runtime"
	"sync/atomic"
)

// Spinlock is a short-critical-section lock guarding hook and queue
// mutation (C3). It is non-reentrant: locking twice from the same
// goroutine deadlocks, exactly like the boost.fibers detail::spinlock it is
// grounded on (original_source/src/context.cpp takes std::unique_lock over
// it around flags_/wait_queue_ mutation).
//
// Suspending a fiber while holding a Spinlock is forbidden (spec §5); this
// type does not and cannot enforce that by itself, so callers must keep
// critical sections free of anything that can park the fiber
// (Scheduler.parkSelf / switchTo).
type Spinlock struct {
	locked atomic.Bool
}

const spinlockSpinLimit = 64

// Lock acquires the spinlock, spinning with a bounded exponential back-off
// before yielding the goroutine to the Go scheduler (runtime.Gosched stands
// in for the PAUSE-instruction back-off a native implementation would use).
func (s *Spinlock) Lock() {
	for spin := 1; ; spin *= 2 {
		if s.locked.CompareAndSwap(false, true) {
			return
		}
		if spin >= spinlockSpinLimit {
			runtime.Gosched()
			spin = 1
		} else {
			for i := 0; i < spin; i++ {
				// busy-wait hint
			}
		}
	}
}

// TryLock attempts to acquire the spinlock without blocking.
func (s *Spinlock) TryLock() bool {
	return s.locked.CompareAndSwap(false, true)
}

// Unlock releases the spinlock. Unlocking an unlocked Spinlock is a
// programmer error and panics, the same as a contract violation elsewhere
// in this package.
func (s *Spinlock) Unlock() {
	if !s.locked.CompareAndSwap(true, false) {
		panic("fiber: unlock of unlocked Spinlock")
	}
}
