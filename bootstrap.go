package fiber

import "sync"

// bootstrap.go is the Go rendition of C6: per-thread bootstrap of the main
// context, scheduler, and dispatcher context the first time a goroutine
// touches the package. teacher's loop.go keys a handful of reentrancy
// checks off getGoroutineID(); here goroutine id is the whole identity
// scheme, since "thread-local storage" in this package literally means "a
// map keyed by goroutine id" (Go offers no supported alternative).
var (
	activeMu          sync.RWMutex
	activeByGoroutine = map[uint64]*Context{}
)

func registerActive(c *Context) {
	activeMu.Lock()
	activeByGoroutine[getGoroutineID()] = c
	activeMu.Unlock()
}

func unregisterActive() {
	activeMu.Lock()
	delete(activeByGoroutine, getGoroutineID())
	activeMu.Unlock()
}

// Current returns the Context for the fiber running on the calling
// goroutine. It panics if called from a goroutine that has never called
// Spawn or Bootstrap — the Go rendition of dereferencing a null
// thread-local active-context pointer, equally a programmer error in both
// languages.
func Current() *Context {
	activeMu.RLock()
	c := activeByGoroutine[getGoroutineID()]
	activeMu.RUnlock()
	if c == nil {
		panic("fiber: Current called from a goroutine with no active fiber; call Bootstrap or Spawn first")
	}
	return c
}

// Active reports whether the calling goroutine has a bootstrapped fiber
// runtime, without panicking.
func Active() bool {
	activeMu.RLock()
	_, ok := activeByGoroutine[getGoroutineID()]
	activeMu.RUnlock()
	return ok
}

// Bootstrap lazily creates the Scheduler owning the calling goroutine's
// main fiber, if one does not already exist, and returns it. Spawn calls
// this implicitly; call it directly only to pass SchedulerOption (e.g.
// WithLogger) before the first Spawn.
func Bootstrap(opts ...SchedulerOption) *Scheduler {
	activeMu.RLock()
	c := activeByGoroutine[getGoroutineID()]
	activeMu.RUnlock()
	if c != nil {
		return c.schedulerRef()
	}

	s := newScheduler(resolveSchedulerOptions(opts))
	registerActive(s.mainCtx)
	return s
}

// Spawn creates a new fiber on the calling goroutine's scheduler (bootstrapping
// one if this is the first call on this goroutine), returning its Context.
// The fiber does not run until the calling fiber next suspends (YieldNow,
// Join, WaitUntil) and the dispatcher picks it off the ready queue.
func Spawn(entry func(), opts ...SpawnOption) *Context {
	s := Bootstrap()
	return s.spawn(entry, opts...)
}
