package fiber

import "runtime"

// getGoroutineID returns the current goroutine's runtime id, parsed out of
// runtime.Stack's header line. This is the same trick teacher's loop.go
// uses (getGoroutineID/isLoopThread) to detect a reentrant Run() call from
// the loop's own goroutine; here it stands in for the "which OS thread am I
// on" query a native implementation would answer with thread-local storage,
// since Go exposes no supported TLS primitive. Every fiber pins its own
// goroutine for its whole lifetime (C4/C6), so goroutine id is a stable,
// unique identity for "which Context is this".
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}
