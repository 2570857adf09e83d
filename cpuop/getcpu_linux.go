//go:build linux

// getcpu_linux.go
//
// Current logical processor id for the calling thread, via the raw getcpu
// call (vdso-backed on the supported targets, so cheap enough to resolve
// per operation).  The result is advisory: the thread can migrate
// immediately after the query, which the execution service reports as a
// retry outcome, so callers loop on re-resolve-and-reissue rather than
// trusting the id.

package cpuop

import (
	"unsafe"

	"github.com/sirkon/errors"
	"golang.org/x/sys/unix"
)

// CurrentCPU returns the logical CPU the calling thread runs on.  A
// failure here is fatal to the surrounding algorithm and is returned, never
// swallowed.
func CurrentCPU() (int, error) {
	var cpu, node uint32
	_, _, errno := unix.RawSyscall(unix.SYS_GETCPU,
		uintptr(unsafe.Pointer(&cpu)),
		uintptr(unsafe.Pointer(&node)),
		0)
	if errno != 0 {
		return -1, errors.Wrap(errno, "query current processor id")
	}
	return int(cpu), nil
}
