package fiber

import (
	"sync/atomic"
	"time"
)

// wakeReason records why a sleeping Context was moved out of the sleep
// queue, resolving an ambiguity in how wait_until's "return true iff the
// deadline actually elapsed" contract can be implemented: since both the
// deadline-expiry path and an explicit external wake unlink the sleep hook
// before the fiber is ever resumed (C5 set_ready unlinks eagerly, same as
// the dispatcher's own timer sweep), the hook's linked-state can no longer
// answer the question by the time the fiber resumes. wakeReason is recorded
// by whichever path performs the wake and read back by WaitUntil once, so
// the externally observable contract holds regardless of the internal
// unlink mechanics.
type wakeReason int8

const (
	wakeNone wakeReason = iota
	wakeTimeout
	wakeExplicit
)

// interruptPanic is the value panicked by every interruption point when the
// active fiber has a pending, unblocked interruption request (C8). Like the
// boost::fibers::fiber_interrupted exception it is grounded on, it can be
// recovered at any scope to continue running the fiber; left uncovered, it
// unwinds all the way to Context.run, which treats it as a clean
// termination rather than delivering it to joiners as a PanicError.
type interruptPanic struct{}

func (interruptPanic) Error() string { return ErrFiberInterrupted.Error() }

// forcedUnwindPanic is the value panicked by every interruption point when
// the active fiber has a pending FORCED_UNWIND request (C8). Like
// interruptPanic it is recoverable and, left uncovered, unwinds all the way
// to Context.run where it is treated as a clean termination — but unlike
// interruptPanic it is never suppressed by WithInterruptionBlocked.
type forcedUnwindPanic struct{}

func (forcedUnwindPanic) Error() string { return "fiber: forced unwind" }

// Context is one fiber: its goroutine, its scheduling state, and every hook
// it can be linked into across the six queues a scheduler maintains (C4).
// It is the Go rendition of boost::fibers::context: the stack-switch itself
// (make_context/jump_fcontext) is out of scope in both the original and
// this spec, so Context stands it up as one dedicated goroutine parked on
// an unbuffered channel, woken exactly once per resume by whichever other
// Context is handing it control.
type Context struct {
	id   uint64
	name string

	flags flagBits
	splk  Spinlock // guards joinTarget, waitQueue, fss

	// scheduler is the fiber's current owning scheduler. It is read from
	// goroutines other than this Context's own (SetReady comparing
	// schedulers, Interrupt/ForceUnwind reaching in to re-ready the
	// target, finishTerminated dispatching a joiner), and written by
	// MigrateTo — so it is guarded by its own hookSplk rather than the
	// heavier splk, matching spec's hook_splk/lock-order separation
	// (remoteSplk < hookSplk < splk) for the one field that is genuinely
	// a "hook" a foreign thread needs to touch. Always go through
	// schedulerRef/setSchedulerRef rather than the field directly.
	scheduler *Scheduler
	hookSplk  Spinlock

	// wake is this Context's baton channel: exactly one send occurs per
	// resume, by the Context handing control over, and exactly one receive
	// occurs, by this Context parking itself. A Context is never resumed
	// by two senders at once because a scheduler only ever runs one fiber
	// at a time (the scheduling invariant this channel exists to enforce,
	// not merely document).
	wake chan struct{}

	entry    func()
	panicVal any

	tp         time.Time
	wakeReason wakeReason
	readyAt    time.Time

	joinTarget *Context
	waitQueue  FIFO[Context] // joiners blocked in Join(this), linked via waitHook
	fss        fssMap

	useCount atomic.Int32

	readyHook       Hook[Context]
	remoteReadyHook Hook[Context]
	sleepHook       Hook[Context]
	waitHook        Hook[Context]
	terminatedHook  Hook[Context]
	workerHook      Hook[Context]
}

func readyHookOf(c *Context) *Hook[Context]       { return &c.readyHook }
func remoteReadyHookOf(c *Context) *Hook[Context] { return &c.remoteReadyHook }
func sleepHookOf(c *Context) *Hook[Context]       { return &c.sleepHook }
func waitHookOf(c *Context) *Hook[Context]        { return &c.waitHook }
func terminatedHookOf(c *Context) *Hook[Context]  { return &c.terminatedHook }
func workerHookOf(c *Context) *Hook[Context]      { return &c.workerHook }

var contextIDSeq atomic.Uint64

func newContext(name string, entry func()) *Context {
	c := &Context{
		id:    contextIDSeq.Add(1),
		name:  name,
		entry: entry,
		wake:  make(chan struct{}),
	}
	c.waitQueue = NewFIFO(waitHookOf)
	c.useCount.Store(1)
	return c
}

func newMainContext() *Context {
	c := newContext("main", nil)
	c.flags.set(flagMain)
	return c
}

func newDispatcherContext() *Context {
	c := newContext("dispatcher", nil)
	c.flags.set(flagDispatcher)
	return c
}

// ID returns a process-unique, monotonically assigned identifier, useful
// for logging and tests; it carries no scheduling meaning.
func (c *Context) ID() uint64 { return c.id }

// Name returns the name the Context was spawned with, or "main"/"dispatcher"
// for the two implicit contexts every scheduler bootstraps.
func (c *Context) Name() string { return c.name }

// IsTerminated reports whether the fiber has run to completion (or
// unwound via an uncaught interruption).
func (c *Context) IsTerminated() bool { return c.flags.has(flagTerminated) }

// IsMain reports whether this is the context representing the goroutine
// that bootstrapped the scheduler, rather than a spawned fiber.
func (c *Context) IsMain() bool { return c.flags.has(flagMain) }

// schedulerRef returns c's current owning scheduler, synchronized against a
// concurrent MigrateTo via hookSplk. Every read of c.scheduler outside of
// c's own goroutine must go through this rather than the field directly.
func (c *Context) schedulerRef() *Scheduler {
	c.hookSplk.Lock()
	s := c.scheduler
	c.hookSplk.Unlock()
	return s
}

// setSchedulerRef updates c's owning scheduler under hookSplk; the only
// caller is MigrateTo.
func (c *Context) setSchedulerRef(s *Scheduler) {
	c.hookSplk.Lock()
	c.scheduler = s
	c.hookSplk.Unlock()
}

// panicResult hands out c's recovered entry-function panic exactly once:
// the first call returns it as a PanicError and clears the slot, so every
// later call returns nil.
func (c *Context) panicResult() error {
	c.splk.Lock()
	v := c.panicVal
	c.panicVal = nil
	c.splk.Unlock()
	if v != nil {
		return &PanicError{Value: v}
	}
	return nil
}

// interruptionPoint is called by every blocking operation immediately after
// it resumes, consuming a pending forced-unwind or interruption request and
// panicking if one was found (C8). FORCED_UNWIND takes priority: it is the
// stronger of the two and is never suppressed by InterruptionBlocked, so it
// must be observed even if an interruption request is also pending.
func (c *Context) interruptionPoint() {
	if c.checkForcedUnwind() {
		panic(forcedUnwindPanic{})
	}
	if c.checkInterruption() {
		panic(interruptPanic{})
	}
}

// switchTo hands control to `to`, parking `from` until something resumes it
// again. Exactly one of these is in flight per scheduler at any instant:
// the dispatcher switching to a worker, a worker switching back to the
// dispatcher, or the dispatcher switching to/from main.
func switchTo(from, to *Context) {
	to.wake <- struct{}{}
	<-from.wake
}

// switchToFinal hands control to `to` without parking the caller: used
// exactly once, by a fiber's run loop after its entry function returns,
// since that goroutine is about to exit and must never be resumed again.
func switchToFinal(to *Context) {
	to.wake <- struct{}{}
}

// run is the dedicated goroutine body for a spawned worker fiber. It parks
// until first resumed, runs entry to completion (recovering any panic so it
// can be redelivered to the fiber's joiners), then hands the thread back to
// the dispatcher permanently.
func (c *Context) run() {
	<-c.wake
	registerActive(c)
	func() {
		defer func() {
			if r := recover(); r != nil {
				switch r.(type) {
				case interruptPanic, forcedUnwindPanic:
					// clean termination, not redelivered to joiners
				default:
					c.panicVal = r
				}
			}
		}()
		c.entry()
	}()
	unregisterActive()
	sched := c.schedulerRef()
	sched.finishTerminated(c)
	switchToFinal(sched.dispatcherCtx)
}

// Join blocks the active fiber until target terminates, returning the
// PanicError recovered from target's entry function, or nil on clean
// termination. Only the first Join to return gets the PanicError; any other
// Join of the same target returns nil. Joining an already-terminated target
// returns immediately.
// Joining self is a programmer error and panics with *SelfJoinError.
//
// Join is an interruption point (C8) on both entry and exit: if the active
// fiber has a pending interruption or forced-unwind request, it panics
// instead of returning — even against an already-terminated target.
func Join(target *Context) error {
	active := Current()
	if active == target {
		panic(&SelfJoinError{Fiber: target})
	}

	target.splk.Lock()
	if target.flags.has(flagTerminated) {
		target.splk.Unlock()
		active.interruptionPoint()
		return target.panicResult()
	}
	target.waitQueue.Push(active)
	target.splk.Unlock()

	active.splk.Lock()
	active.joinTarget = target
	active.splk.Unlock()

	active.schedulerRef().parkSelf(active)

	active.splk.Lock()
	active.joinTarget = nil
	active.splk.Unlock()

	active.interruptionPoint()
	return target.panicResult()
}

// YieldNow suspends the active fiber, appending it to the back of its
// scheduler's ready queue, and resumes when its turn comes back around. It
// is an interruption point.
func YieldNow() {
	active := Current()
	active.schedulerRef().yield(active)
	active.interruptionPoint()
}

// WaitUntil suspends the active fiber until either tp is reached or it is
// woken explicitly (e.g. by Interrupt), returning true iff tp was
// actually reached. It is an interruption point.
func WaitUntil(tp time.Time) bool {
	active := Current()
	timedOut := active.schedulerRef().sleepUntil(active, tp)
	active.interruptionPoint()
	return timedOut
}

// SleepUntil is an alias for WaitUntil matching the vocabulary used
// elsewhere in the package (scheduler sleep queue, wake reasons).
func SleepUntil(tp time.Time) bool { return WaitUntil(tp) }
