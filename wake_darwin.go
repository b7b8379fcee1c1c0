//go:build darwin

package fiber

import (
	"fmt"
	"syscall"
)

// newWakePrimitive creates a self-pipe-backed wakePrimitive (Darwin), adapted
// from teacher's wakeup_darwin.go createWakeFd: Darwin has no eventfd, so a
// non-blocking, close-on-exec pipe stands in for it.
func newWakePrimitive() wakePrimitive {
	var fds [2]int
	if err := syscall.Pipe(fds[:]); err != nil {
		panic(fmt.Errorf("%w: pipe: %v", ErrFiberResource, err))
	}
	syscall.CloseOnExec(fds[0])
	syscall.CloseOnExec(fds[1])
	if err := syscall.SetNonblock(fds[0], true); err != nil {
		syscall.Close(fds[0])
		syscall.Close(fds[1])
		panic(fmt.Errorf("%w: pipe nonblock: %v", ErrFiberResource, err))
	}
	if err := syscall.SetNonblock(fds[1], true); err != nil {
		syscall.Close(fds[0])
		syscall.Close(fds[1])
		panic(fmt.Errorf("%w: pipe nonblock: %v", ErrFiberResource, err))
	}
	return newFDWake(fds[0], fds[1])
}
