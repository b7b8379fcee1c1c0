//go:build linux || darwin

package fiber

import (
	"time"

	"golang.org/x/sys/unix"
)

// fdWake is the shared poll-on-an-fd implementation behind both Linux's
// eventfd and Darwin's self-pipe (newWakePrimitive is the platform split,
// adapted from teacher's wakeup_linux.go/wakeup_darwin.go). A dispatcher
// blocked in wait wakes the instant notify writes to the fd, which is what
// lets a remote set_ready interrupt an idle OS thread rather than just
// appending to a queue.
type fdWake struct {
	readFD  int
	writeFD int
}

func newFDWake(readFD, writeFD int) *fdWake {
	return &fdWake{readFD: readFD, writeFD: writeFD}
}

func (w *fdWake) wait(timeout time.Duration) {
	ms := -1
	if timeout >= 0 {
		ms = int(timeout.Milliseconds())
		if ms < 0 {
			ms = 0
		}
	}
	fds := []unix.PollFd{{Fd: int32(w.readFD), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, ms)
	if err != nil || n <= 0 {
		return
	}
	var buf [8]byte
	for {
		_, err := unix.Read(w.readFD, buf[:])
		if err != nil {
			return
		}
	}
}

func (w *fdWake) notify() {
	var buf [8]byte
	buf[0] = 1
	_, _ = unix.Write(w.writeFD, buf[:])
}

func (w *fdWake) close() {
	_ = unix.Close(w.readFD)
	if w.writeFD != w.readFD {
		_ = unix.Close(w.writeFD)
	}
}
