package fiber

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScenario_S4_JoinBeforeTerminate: main spawns a fiber that yields
// several times before producing a result; main joins it and observes the
// result plus clean termination.
func TestScenario_S4_JoinBeforeTerminate(t *testing.T) {
	var result int
	var joinErr error
	var yieldCount int
	done := make(chan struct{})
	go func() {
		defer close(done)
		f := Spawn(func() {
			for i := 0; i < 5; i++ {
				yieldCount++
				YieldNow()
			}
			result = 42
		})
		joinErr = Join(f)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("test did not complete in time")
	}
	assert.NoError(t, joinErr)
	assert.Equal(t, 5, yieldCount)
	assert.Equal(t, 42, result)
}

// TestInvariant_RoundRobinFairness: N fibers, each yielding only, each runs
// exactly once every N scheduler steps.
func TestInvariant_RoundRobinFairness(t *testing.T) {
	const n = 5
	const rounds = 4
	var order []int
	done := make(chan struct{})
	go func() {
		defer close(done)
		fibers := make([]*Context, n)
		for i := 0; i < n; i++ {
			i := i
			fibers[i] = Spawn(func() {
				for r := 0; r < rounds; r++ {
					order = append(order, i)
					YieldNow()
				}
			})
		}
		for _, f := range fibers {
			_ = Join(f)
		}
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("test did not complete in time")
	}
	require.Len(t, order, n*rounds)
	for r := 0; r < rounds; r++ {
		round := order[r*n : (r+1)*n]
		for i := 0; i < n; i++ {
			assert.Equal(t, i, round[i], "round %d: expected fiber %d at position %d", r, i, i)
		}
	}
}

// TestInvariant_DeadlineMonotonicity: sleep_until(t1) issued before
// sleep_until(t2), t1 < t2, wakes no later than t2.
func TestInvariant_DeadlineMonotonicity(t *testing.T) {
	var wakeOrder []string
	done := make(chan struct{})
	go func() {
		defer close(done)
		base := time.Now()
		f1 := Spawn(func() {
			WaitUntil(base.Add(30 * time.Millisecond))
			wakeOrder = append(wakeOrder, "t1")
		})
		f2 := Spawn(func() {
			WaitUntil(base.Add(90 * time.Millisecond))
			wakeOrder = append(wakeOrder, "t2")
		})
		_ = Join(f1)
		_ = Join(f2)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("test did not complete in time")
	}
	require.Len(t, wakeOrder, 2)
	assert.Equal(t, []string{"t1", "t2"}, wakeOrder)
}

// TestInvariant_JoinCompleteness: after Join(F) returns without
// interruption, F is terminated and has no live waiters left linked.
func TestInvariant_JoinCompleteness(t *testing.T) {
	var terminated bool
	var waitQueueEmpty bool
	done := make(chan struct{})
	go func() {
		defer close(done)
		f := Spawn(func() { YieldNow() })
		_ = Join(f)
		terminated = f.IsTerminated()
		f.splk.Lock()
		waitQueueEmpty = f.waitQueue.Empty()
		f.splk.Unlock()
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("test did not complete in time")
	}
	assert.True(t, terminated)
	assert.True(t, waitQueueEmpty)
}

// TestInvariant_NoSuspendOnDispatcher: the dispatcher context never appears
// linked in any of the queues a worker or main context can be linked into.
func TestInvariant_NoSuspendOnDispatcher(t *testing.T) {
	var dispatcherLinked bool
	done := make(chan struct{})
	go func() {
		defer close(done)
		s := Bootstrap()
		for i := 0; i < 3; i++ {
			Spawn(func() { YieldNow() })
		}
		d := s.dispatcherCtx
		dispatcherLinked = d.readyHook.Linked() ||
			d.remoteReadyHook.Linked() ||
			d.sleepHook.Linked() ||
			d.waitHook.Linked() ||
			d.terminatedHook.Linked()
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("test did not complete in time")
	}
	assert.False(t, dispatcherLinked)
}
