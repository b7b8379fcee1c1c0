package fiber

import (
	"runtime"
	"sync/atomic"
	"time"
)

// Scheduler multiplexes every fiber bootstrapped from one goroutine onto a
// single dedicated dispatcher goroutine (C5), the Go rendition of
// round_robin.cpp's round_robin scheduling algorithm: a ready queue, a
// deadline-ordered sleep queue, a terminated queue reaped each tick, and a
// spinlock-guarded remote-ready queue for cross-thread wake-up.
//
// A Scheduler is created lazily, once per goroutine, by the first call to
// Spawn or Bootstrap on that goroutine (see bootstrap.go); callers never
// construct one directly.
type Scheduler struct {
	mainCtx       *Context
	dispatcherCtx *Context

	readyQueue FIFO[Context]
	sleepQ     sleepList

	remoteSplk       Spinlock
	remoteReadyQueue FIFO[Context]

	terminatedQueue FIFO[Context]

	// workerSplk guards workerQueue, since MigrateTo mutates it from the
	// migrating fiber's own goroutine against both the source and target
	// scheduler, neither of which is necessarily "the" goroutine otherwise
	// trusted to touch that scheduler's structures without a lock.
	workerSplk  Spinlock
	workerQueue FIFO[Context]

	liveWorkers atomic.Int32

	wake wakePrimitive

	shuttingDown   atomic.Bool
	dispatcherDone chan struct{}

	log     Logger
	metrics *Metrics
}

func newScheduler(opts schedulerOptions) *Scheduler {
	s := &Scheduler{
		dispatcherDone: make(chan struct{}),
		log:            opts.logger,
	}
	if opts.metricsEnabled {
		s.metrics = &Metrics{}
	}
	s.readyQueue = NewFIFO(readyHookOf)
	s.remoteReadyQueue = NewFIFO(remoteReadyHookOf)
	s.terminatedQueue = NewFIFO(terminatedHookOf)
	s.workerQueue = NewFIFO(workerHookOf)

	s.mainCtx = newMainContext()
	s.mainCtx.setSchedulerRef(s)

	s.dispatcherCtx = newDispatcherContext()
	s.dispatcherCtx.setSchedulerRef(s)

	if opts.wake != nil {
		s.wake = opts.wake
	} else {
		s.wake = newWakePrimitive()
	}

	go s.runDispatcher()
	return s
}

// runDispatcher is the dispatcher fiber's dedicated goroutine. It is pinned
// to its OS thread, mirroring teacher's Loop.run() pinning the event loop to
// one thread, since the remote wake primitive is a genuine OS-level
// mechanism that only makes sense paired with a stable thread.
func (s *Scheduler) runDispatcher() {
	runtime.LockOSThread()
	<-s.dispatcherCtx.wake
	registerActive(s.dispatcherCtx)
	s.dispatchLoop()
}

func (s *Scheduler) dispatchLoop() {
	for {
		for {
			c := s.terminatedQueue.Pop()
			if c == nil {
				break
			}
			c.useCount.Add(-1)
			s.workerSplk.Lock()
			s.workerQueue.Remove(c)
			s.workerSplk.Unlock()
		}

		for {
			s.remoteSplk.Lock()
			c := s.remoteReadyQueue.Pop()
			s.remoteSplk.Unlock()
			if c == nil {
				break
			}
			s.setReady(c)
		}

		now := time.Now()
		for _, c := range s.sleepQ.popExpired(now) {
			c.wakeReason = wakeTimeout
			s.pushReady(c)
		}

		s.recordQueueDepth()

		switch {
		case !s.readyQueue.Empty():
			next := s.readyQueue.Pop()
			s.recordLatency(next)
			s.logDebug("resume", next)
			switchTo(s.dispatcherCtx, next)

		case s.shuttingDown.Load() && s.liveWorkers.Load() == 0:
			close(s.dispatcherDone)
			switchToFinal(s.mainCtx)
			return

		case s.liveWorkers.Load() == 0 && s.sleepQ.empty():
			// Nothing ready, nothing owned, nothing sleeping, nothing left
			// that could ever become ready: hand control back to main so whatever call
			// suspended into us can observe the condition that brought it
			// here, rather than spin the thread forever.
			switchTo(s.dispatcherCtx, s.mainCtx)

		default:
			if deadline, ok := s.sleepQ.nextDeadline(); ok {
				s.wake.wait(time.Until(deadline))
			} else {
				s.wake.wait(-1)
			}
		}
	}
}

func (s *Scheduler) logDebug(event string, c *Context) {
	if s.log != nil {
		s.log.Debug(event, c.id, c.name)
	}
}

// pushReady stamps c with the time it became ready and appends it to the
// ready queue; recordLatency reads the stamp back when c is actually
// resumed.
func (s *Scheduler) pushReady(c *Context) {
	if s.metrics != nil {
		c.readyAt = time.Now()
	}
	s.readyQueue.Push(c)
}

func (s *Scheduler) recordLatency(c *Context) {
	if s.metrics == nil || c.readyAt.IsZero() {
		return
	}
	s.metrics.Latency.Record(time.Since(c.readyAt))
	c.readyAt = time.Time{}
}

func (s *Scheduler) recordQueueDepth() {
	if s.metrics == nil {
		return
	}
	depth := 0
	for c := s.readyQueue.head; c != nil; c = readyHookOf(c).next {
		depth++
	}
	s.metrics.Queue.updateReady(depth)
	sleepDepth := 0
	for c := s.sleepQ.head; c != nil; c = sleepHookOf(c).next {
		sleepDepth++
	}
	s.metrics.Queue.updateSleep(sleepDepth)
	s.remoteSplk.Lock()
	remoteDepth := 0
	for c := s.remoteReadyQueue.head; c != nil; c = remoteReadyHookOf(c).next {
		remoteDepth++
	}
	s.remoteSplk.Unlock()
	s.metrics.Queue.updateRemote(remoteDepth)
}

// Metrics returns the scheduler's metrics, or nil if WithMetrics was never
// enabled.
func (s *Scheduler) Metrics() *Metrics { return s.metrics }

// parkSelf suspends c, handing control to the dispatcher, until something
// makes c ready again. Callers must have already arranged c's queue
// placement (ready queue, sleep queue, or another fiber's wait queue)
// before calling this, since parkSelf itself does no bookkeeping.
func (s *Scheduler) parkSelf(c *Context) {
	switchTo(c, s.dispatcherCtx)
}

func (s *Scheduler) yield(c *Context) {
	s.pushReady(c)
	s.parkSelf(c)
}

func (s *Scheduler) sleepUntil(c *Context, tp time.Time) bool {
	c.tp = tp
	c.wakeReason = wakeNone
	s.sleepQ.insert(c)
	s.parkSelf(c)
	return c.wakeReason == wakeTimeout
}

// setReady appends c to the ready queue, unlinking it from the sleep queue
// first if present. A no-op if c is already linked in the ready queue, per
// spec's mandated idempotent resolution of that open question, and a no-op
// if c is already TERMINATED: c's dedicated goroutine has already returned
// by that point, so linking it into readyQueue would have the dispatcher
// try to resume a goroutine that is no longer there to receive on
// c.wake, deadlocking the whole dispatcher. Only safe to call from the
// goroutine currently acting as the sole active fiber for this scheduler
// (the dispatcher loop itself, or a fiber running on this scheduler);
// cross-thread callers must use setRemoteReady instead.
func (s *Scheduler) setReady(c *Context) {
	if c.flags.has(flagTerminated) || readyHookOf(c).linked {
		return
	}
	s.sleepQ.remove(c)
	c.wakeReason = wakeExplicit
	s.pushReady(c)
}

// setRemoteReady is the thread-safe counterpart of setReady, used when the
// caller is not running on this scheduler. It only ever touches the
// spinlock-guarded remote-ready queue; the actual sleep-queue unlink and
// ready-queue append happen later, back on the owning dispatcher goroutine,
// which is the only goroutine allowed to touch those structures.
func (s *Scheduler) setRemoteReady(c *Context) {
	s.remoteSplk.Lock()
	if !c.flags.has(flagTerminated) && !remoteReadyHookOf(c).linked {
		s.remoteReadyQueue.Push(c)
	}
	s.remoteSplk.Unlock()
	s.wake.notify()
}

// SetReady moves target onto its scheduler's ready queue, dispatching to
// the thread-safe remote path automatically when the caller is not running
// on target's scheduler (C5's "local vs remote dispatch").
func SetReady(target *Context) {
	cur := Current()
	targetSched := target.schedulerRef()
	if cur.schedulerRef() == targetSched {
		targetSched.setReady(target)
	} else {
		targetSched.setRemoteReady(target)
	}
}

// finishTerminated marks c TERMINATED, releases every fiber blocked in
// Join(c), runs its FSS cleanup, and files c into the terminated queue for
// the next reap pass — in that order, per spec's release(): terminate,
// then drain wait_queue, then run FSS cleanups. Called once, by c's own
// goroutine, immediately after its entry function returns (including via
// an uncaught interruption or forced unwind).
func (s *Scheduler) finishTerminated(c *Context) {
	s.logDebug("terminate", c)

	c.splk.Lock()
	c.flags.set(flagTerminated)
	joiners := c.waitQueue
	c.waitQueue = NewFIFO(waitHookOf)
	c.splk.Unlock()

	for {
		j := joiners.Pop()
		if j == nil {
			break
		}
		// A joiner can live on a different scheduler than the fiber it
		// joined (e.g. the target migrated after the joiner blocked), so
		// this cannot assume s is the joiner's own scheduler the way a
		// same-scheduler Join always can.
		jSched := j.schedulerRef()
		if jSched == s {
			s.setReady(j)
		} else {
			jSched.setRemoteReady(j)
		}
	}

	c.runFSSCleanup()

	s.terminatedQueue.Push(c)
	s.liveWorkers.Add(-1)
}

// spawn creates a new worker fiber owned by s, immediately eligible to run.
// Panics with ErrSchedulerTerminated if s has already begun an orderly
// shutdown (Close): a fiber spawned after that point would never be
// reaped, since the dispatcher only keeps running while shuttingDown is
// false or liveWorkers is still nonzero.
func (s *Scheduler) spawn(entry func(), opts ...SpawnOption) *Context {
	if s.shuttingDown.Load() {
		panic(ErrSchedulerTerminated)
	}
	o := resolveSpawnOptions(opts)
	c := newContext(o.name, entry)
	c.setSchedulerRef(s)
	s.liveWorkers.Add(1)
	s.workerSplk.Lock()
	s.workerQueue.Push(c)
	s.workerSplk.Unlock()
	go c.run()
	s.setReady(c)
	s.logDebug("spawn", c)
	return c
}

// Workers returns a snapshot of every fiber s currently owns — spawned and
// not yet reaped, TERMINATED or not — in worker_queue order (C2's "worker"
// hook, orthogonal to the other five a Context can be linked into). Used to
// enumerate a scheduler's fibers, e.g. before a bulk migration.
func (s *Scheduler) Workers() []*Context {
	s.workerSplk.Lock()
	defer s.workerSplk.Unlock()
	var out []*Context
	for c := s.workerQueue.head; c != nil; c = workerHookOf(c).next {
		out = append(out, c)
	}
	return out
}

// MigrateTo moves ctx — which must be the fiber calling MigrateTo, i.e. a
// fiber migrating itself — from its current scheduler to target. This is
// the supplemented migrate_to/migrate_from primitive from round_robin.cpp:
// a policy hook the core provides so a scheduling policy built on top of it
// can rebalance load across threads. After MigrateTo returns, ctx is
// running on target; the calling goroutine is unaffected, since ctx's
// dedicated goroutine is the one that was running this call all along.
func MigrateTo(target *Scheduler, ctx *Context) {
	active := Current()
	if active != ctx {
		panic("fiber: MigrateTo must be called by the migrating fiber itself")
	}
	source := ctx.schedulerRef()
	if source == target {
		return
	}
	source.liveWorkers.Add(-1)
	source.workerSplk.Lock()
	source.workerQueue.Remove(ctx)
	source.workerSplk.Unlock()

	ctx.setSchedulerRef(target)

	target.liveWorkers.Add(1)
	target.workerSplk.Lock()
	target.workerQueue.Push(ctx)
	target.workerSplk.Unlock()

	target.setRemoteReady(ctx)
	source.parkSelf(ctx)
}

// Close requests an orderly shutdown: once every live worker fiber has
// terminated, the dispatcher goroutine hands control back to main one final
// time and exits. Close blocks until that happens, and must be called from
// the scheduler's main fiber.
func (s *Scheduler) Close() {
	active := Current()
	if active != s.mainCtx {
		panic("fiber: Scheduler.Close must be called from the scheduler's main fiber")
	}
	s.shuttingDown.Store(true)
	s.wake.notify()
	for s.liveWorkers.Load() > 0 {
		YieldNow()
	}
	// Whenever main regains control here, liveWorkers is 0 and the
	// dispatcher is parked receive-blocked on its own wake channel: either
	// it never ran a single dispatch (no fiber has ever suspended into it,
	// the zero-workers-ever case) or its own liveWorkers==0 idle branch
	// just handed control straight back to main via the same channel. One
	// more direct handoff resumes it so dispatchLoop can observe
	// shuttingDown and close dispatcherDone.
	switchTo(s.mainCtx, s.dispatcherCtx)
	<-s.dispatcherDone
	s.wake.close()
	unregisterActive()
}
