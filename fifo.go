package fiber

// Hook is the Go stand-in for a boost.intrusive slist hook (C2): a single
// forward link plus a linked flag, embedded directly in Context once per
// queue it can participate in (ready, remoteReady, sleep, wait, terminated,
// worker). Go has no member-pointer-to-field, so FIFO is parameterized by
// an accessor closure rather than by hook offset.
type Hook[T any] struct {
	next   *T
	linked bool
}

// Linked reports whether the owning node is currently queued.
func (h *Hook[T]) Linked() bool { return h.linked }

// FIFO is a singly linked, O(1) push/pop intrusive queue (C1), grounded on
// original_source/include/boost/fiber/detail/fifo.hpp: a head pointer and a
// tail **node that always points at the slot holding the null terminator,
// so push never needs to walk the list. It performs no allocation — every
// node is a *T already owned by its queue's domain (almost always a
// *Context the queue does not own).
//
// FIFO is not safe for concurrent use; the only queue that needs
// cross-thread access (Scheduler.remoteReadyQueue) pairs it with a
// Spinlock.
type FIFO[T any] struct {
	head *T
	tail **T
	hook func(*T) *Hook[T]
}

// NewFIFO constructs an empty FIFO whose nodes use the hook returned by get.
func NewFIFO[T any](get func(*T) *Hook[T]) FIFO[T] {
	f := FIFO[T]{hook: get}
	f.tail = &f.head
	return f
}

// Empty reports whether the queue holds no nodes.
func (f *FIFO[T]) Empty() bool { return f.head == nil }

// Push appends x to the tail of the queue. x must not already be linked in
// this queue.
func (f *FIFO[T]) Push(x *T) {
	h := f.hook(x)
	if h.linked {
		panic("fiber: FIFO.Push of already-linked node")
	}
	h.next = nil
	h.linked = true
	if f.head == nil {
		// An empty queue's tail is its own head slot. Re-anchor it here,
		// since a FIFO copied by value (NewFIFO returns one) still has its
		// tail pointing at the original's head.
		f.tail = &f.head
	}
	*f.tail = x
	f.tail = &h.next
}

// Pop removes and returns the head of the queue, or nil if empty.
func (f *FIFO[T]) Pop() *T {
	x := f.head
	if x == nil {
		return nil
	}
	h := f.hook(x)
	f.head = h.next
	if f.head == nil {
		f.tail = &f.head
	}
	h.next = nil
	h.linked = false
	return x
}

// Remove unlinks x from the middle of the queue in O(n) (no back-links are
// kept, matching fifo.hpp — this queue is optimized for FIFO push/pop, not
// arbitrary removal; callers needing O(1) removal from the middle use a
// queue keyed to a different invariant, e.g. the sleep queue's scan during
// wake-up, which always removes from the front of the expired run).
// Remove is a no-op if x is not linked in this queue.
func (f *FIFO[T]) Remove(x *T) {
	h := f.hook(x)
	if !h.linked {
		return
	}
	for p := &f.head; *p != nil; p = &f.hook(*p).next {
		if *p == x {
			*p = h.next
			if f.tail == &h.next {
				f.tail = p
			}
			h.next = nil
			h.linked = false
			return
		}
	}
}

// Swap exchanges the contents of f and other in O(1).
func (f *FIFO[T]) Swap(other *FIFO[T]) {
	fEmpty := f.head == nil
	oEmpty := other.head == nil
	f.head, other.head = other.head, f.head
	f.tail, other.tail = other.tail, f.tail
	if fEmpty {
		other.tail = &other.head
	}
	if oEmpty {
		f.tail = &f.head
	}
}

// AppendFrom drains other onto the tail of f, preserving FIFO order across
// both, leaving other empty.
func (f *FIFO[T]) AppendFrom(other *FIFO[T]) {
	for {
		x := other.Pop()
		if x == nil {
			break
		}
		f.Push(x)
	}
}
