// Package fiber implements the core of a user-space cooperative fiber
// (stackful coroutine) runtime: a per-goroutine [Scheduler] that runs many
// independent [Context] fibers, each on its own goroutine, one at a time
// under a dispatcher pinned to one OS thread, plus the fiber lifecycle and
// synchronization primitives
// required for fibers to suspend, resume, migrate between threads, and
// join each other.
//
// # Architecture
//
// Each goroutine that touches the runtime lazily bootstraps (see
// [Bootstrap]) a main [Context] (adopting the calling goroutine), a
// [Scheduler], and a dispatcher fiber running on its own goroutine. The
// dispatcher runs an endless loop: reap terminated fibers, drain the
// remote-ready queue, wake expired sleepers, pop the next ready fiber and
// switch to it. Control only ever passes fiber -> dispatcher -> fiber,
// never directly fiber to fiber.
//
// A fiber's "stack" is a goroutine; "switch_to" is a baton hand-off over an
// unbuffered channel on [Context], so that at most one fiber per scheduler
// is ever runnable at a time.
//
// # Thread safety
//
// [Spawn], [Current], [YieldNow], [SleepUntil], [WaitUntil] and [Join] must
// be called from the fiber whose behalf they act on (the "active" fiber of
// the calling goroutine). [SetReady] and [MigrateTo]'s remote-ready path
// are safe to call across goroutines and threads. [Interrupt] and
// [ForceUnwind] are not: they must be called from a fiber running on the
// same scheduler as their target.
//
// # Usage
//
//	done := make(chan int, 1)
//	f := fiber.Spawn(func() {
//	    fiber.YieldNow()
//	    done <- 42
//	})
//	fiber.Join(f)
//	println(<-done)
package fiber
