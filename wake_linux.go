//go:build linux

package fiber

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// newWakePrimitive creates an eventfd-backed wakePrimitive (Linux), adapted
// from teacher's wakeup_linux.go createWakeFd.
func newWakePrimitive() wakePrimitive {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		panic(fmt.Errorf("%w: eventfd: %v", ErrFiberResource, err))
	}
	return newFDWake(fd, fd)
}
