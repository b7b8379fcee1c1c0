package fiber

// Interruption & forced unwind (C8), grounded on
// original_source/src/context.cpp's interruption_blocked_/interruption_requested_
// flags, rendered here over flagBits instead of two bools guarded by a mutex.
//
// A fiber observes interruption only at designated interruption points:
// YieldNow, WaitUntil (and its alias SleepUntil) and Join all check it after
// resuming from a suspend. A fiber currently inside an InterruptionBlocked
// section never raises ErrFiberInterrupted, no matter how many times
// Interrupt is called against it; the request flag stays set and is
// observed the first time the fiber reaches an interruption point outside
// of a blocked section.

// Interrupt asks target to unwind via ErrFiberInterrupted at its next
// interruption point. If target is currently parked waiting on a deadline
// (SleepUntil) or another fiber's join (Join), it is forced back onto its
// scheduler's ready queue immediately rather than waiting out the deadline
// or the join target's termination — interruption is a cooperative
// request, but it must not have to wait for an unrelated event to be
// noticed.
//
// Interrupt must be called from a fiber running on the same scheduler as
// target; the request path manipulates target's owning scheduler's queues
// directly and is not safe to call across schedulers (use MigrateTo plus a
// same-scheduler request if cross-thread interruption is needed).
func Interrupt(target *Context) {
	target.splk.Lock()
	target.flags.set(flagInterruptionRequested)
	target.splk.Unlock()
	forceOffWaitTarget(target)
}

// ForceUnwind requests a one-shot forced stack unwind of target, delivered
// the next time target resumes (C8's FORCED_UNWIND). Unlike Interrupt, a
// forced unwind is never suppressed by WithInterruptionBlocked — it is
// stronger, not merely cooperative-by-default — and it is consumed at the
// same interruption points Interrupt is, ahead of any pending interruption
// request.
//
// ForceUnwind must not target the main or dispatcher fiber, and panics if
// it does; those two contexts never pass through an interruption point, so
// a forced unwind aimed at either would never be delivered. Like Interrupt,
// it must be called from a fiber running on the same scheduler as target.
func ForceUnwind(target *Context) {
	if target.flags.has(flagMain) || target.flags.has(flagDispatcher) {
		panic("fiber: ForceUnwind must not target the main or dispatcher fiber")
	}
	target.splk.Lock()
	target.flags.set(flagForcedUnwind)
	target.splk.Unlock()
	forceOffWaitTarget(target)
}

// forceOffWaitTarget is the shared tail of Interrupt and ForceUnwind: if
// target is blocked in Join against some other fiber, unlink it from that
// fiber's wait queue, then make target ready regardless of which queue (if
// any) it was actually linked into — sleep, wait, or nowhere yet.
func forceOffWaitTarget(target *Context) {
	target.splk.Lock()
	jt := target.joinTarget
	target.splk.Unlock()

	if jt != nil {
		jt.splk.Lock()
		jt.waitQueue.Remove(target)
		jt.splk.Unlock()
	}
	target.schedulerRef().setReady(target)
}

// InterruptionBlocked reports whether the active fiber is currently inside a
// WithInterruptionBlocked section.
func InterruptionBlocked() bool {
	return Current().flags.has(flagInterruptionBlocked)
}

// WithInterruptionBlocked runs fn with the active fiber's interruption
// requests suppressed: interruption points reached during fn never raise
// ErrFiberInterrupted, even if Interrupt was called. A request
// received during fn remains pending and is observed at the first
// interruption point reached after fn returns.
func WithInterruptionBlocked(fn func()) {
	c := Current()
	already := c.flags.has(flagInterruptionBlocked)
	if !already {
		c.flags.set(flagInterruptionBlocked)
	}
	defer func() {
		if !already {
			c.flags.clear(flagInterruptionBlocked)
		}
	}()
	fn()
}

// checkInterruption is called by every interruption point immediately after
// resuming from a suspend. It consumes a pending interruption request (if
// unblocked) and reports whether the caller should raise
// ErrFiberInterrupted.
func (c *Context) checkInterruption() bool {
	if c.flags.has(flagInterruptionBlocked) {
		return false
	}
	if !c.flags.has(flagInterruptionRequested) {
		return false
	}
	c.flags.clear(flagInterruptionRequested)
	return true
}

// checkForcedUnwind is checkInterruption's FORCED_UNWIND counterpart: it
// consumes a pending forced-unwind request unconditionally — not subject to
// WithInterruptionBlocked — and reports whether the caller should unwind.
func (c *Context) checkForcedUnwind() bool {
	if !c.flags.has(flagForcedUnwind) {
		return false
	}
	c.flags.clear(flagForcedUnwind)
	return true
}
