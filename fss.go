package fiber

// fssEntry holds one fiber-specific-storage slot: the stored value plus the
// cleanup it was registered with (C7). Grounded on
// original_source/src/context.cpp's fss_data handling in context::~context,
// which runs every slot's cleanup exactly once at destruction.
type fssEntry struct {
	value   any
	cleanup func(any)
}

// fssMap is guarded by the owning Context's splk, since FSS is documented as
// safe to read/write only from the fiber that owns it (or, for cleanup, the
// scheduler reaping it), never concurrently from two goroutines at once.
type fssMap map[any]fssEntry

// setFSS stores value under key, recording cleanup to run once: either when
// the owning Context terminates, or when the slot is overwritten or erased
// with replaceExisting set, whichever comes first. A nil value erases the
// binding instead of storing it. Per spec (C7/C4), overwriting or erasing a
// binding does NOT invoke the old slot's cleanup unless replaceExisting is
// set; without it the old cleanup is dropped along with the old binding and
// never runs. Only the binding still in place at fiber termination has its
// cleanup run then. A nil cleanup means "no cleanup", matching FSS slots
// that hold non-owning data.
func (c *Context) setFSS(key any, value any, cleanup func(any), replaceExisting bool) {
	c.splk.Lock()
	defer c.splk.Unlock()
	if replaceExisting {
		if old, ok := c.fss[key]; ok && old.cleanup != nil {
			old.cleanup(old.value)
		}
	}
	if value == nil {
		delete(c.fss, key)
		return
	}
	if c.fss == nil {
		c.fss = make(fssMap)
	}
	c.fss[key] = fssEntry{value: value, cleanup: cleanup}
}

// getFSS returns the value stored under key and whether it was present.
func (c *Context) getFSS(key any) (any, bool) {
	c.splk.Lock()
	defer c.splk.Unlock()
	e, ok := c.fss[key]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// runFSSCleanup runs every remaining slot's cleanup exactly once, in
// unspecified order, and empties the map. Called once by
// Scheduler.finishTerminated, after the fiber has already transitioned to
// TERMINATED and its joiners have been released, per spec's release()
// ordering (terminate, then drain wait_queue, then FSS cleanup).
func (c *Context) runFSSCleanup() {
	c.splk.Lock()
	fss := c.fss
	c.fss = nil
	c.splk.Unlock()
	for _, e := range fss {
		if e.cleanup != nil {
			e.cleanup(e.value)
		}
	}
}

// SetFSS stores value in the active fiber's fiber-specific storage under
// key, registering cleanup to run once the fiber terminates. A nil value
// erases any existing binding for key instead of storing one. By default
// (replaceExisting false), overwriting or erasing a binding does not invoke
// the slot's previous cleanup, at that point or at termination — set
// replaceExisting to run it immediately against the previous value. It panics
// if called from a goroutine with no active Context (see Current).
func SetFSS(key any, value any, cleanup func(any), replaceExisting bool) {
	Current().setFSS(key, value, cleanup, replaceExisting)
}

// GetFSS returns the value stored under key in the active fiber's
// fiber-specific storage, and whether it was present.
func GetFSS(key any) (any, bool) {
	return Current().getFSS(key)
}
