package fiber

// Error taxonomy: interruption, resource exhaustion, and programmer errors,
// plus the PanicError used to redeliver an unhandled entry-function panic
// to a fiber's first joiner.

import (
	"errors"
	"fmt"
)

// Standard errors returned by the core API.
var (
	// ErrFiberInterrupted is raised at an interruption point when the active
	// fiber's interruption-requested flag is set and not blocked.
	ErrFiberInterrupted = errors.New("fiber: interrupted")

	// ErrFiberResource is raised on stack or context allocation failure,
	// surfaced to the caller of Spawn.
	ErrFiberResource = errors.New("fiber: resource allocation failed")

	// ErrSchedulerTerminated is panicked by Spawn (via Scheduler.spawn)
	// when called against a scheduler that has already begun an
	// orderly shutdown (Close): a fiber spawned after that point would
	// never be reaped.
	ErrSchedulerTerminated = errors.New("fiber: scheduler terminated")
)

// SelfJoinError is a programmer error: a fiber attempted to join itself.
// Per spec this is fatal, so it is delivered as a panic value rather than a
// returned error, to match the other contract violations in this package.
type SelfJoinError struct {
	Fiber *Context
}

func (e *SelfJoinError) Error() string {
	return fmt.Sprintf("fiber: context %p attempted to join itself", e.Fiber)
}

// PanicError wraps a value recovered from a fiber's entry function so it
// can be re-delivered to the first Join-er without losing the original
// value's identity.
//
// Unwrap returns the underlying error when the recovered value is itself an
// error, enabling [errors.Is] and [errors.As] against the original cause.
//
//	joinErr := Join(f)
//	var panicErr *PanicError
//	if errors.As(joinErr, &panicErr) {
//	    // panicErr.Value is whatever the entry function panicked with
//	}
type PanicError struct {
	Value any
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	if err, ok := e.Value.(error); ok {
		return fmt.Sprintf("fiber: entry function panicked: %v", err)
	}
	return fmt.Sprintf("fiber: entry function panicked: %v", e.Value)
}

// Unwrap returns the underlying error if the panic value is an error type.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
