//go:build linux && (amd64 || arm64)

// invoke_linux.go
//
// Raw syscall binding for the atomic execution service.  The service runs
// the vector with preemption and migration disabled on one logical CPU and
// reports a three-way raw outcome which is decoded here into the sentinel
// taxonomy:
//
//	ret == 0          all steps applied
//	ret  > 0          a compare step mismatched            → ErrRetry
//	errno == EAGAIN   processor reassignment / benign race → ErrRetry
//	errno == EFAULT   a flagged operand faulted            → ErrFault
//	errno == ENOSYS   facility absent on this kernel       → ErrUnavailable
//	other errno       fatal, wrapped with cpu context
//
// The record layout crossing this boundary is pinned by the asserts in
// op.go.  Only 64-bit targets are supported; the handles are 64-bit wide.

package cpuop

import (
	"runtime"
	"unsafe"

	"github.com/sirkon/errors"
	"golang.org/x/sys/unix"
)

// Invoke submits ops for atomic execution on the given logical CPU.  An
// empty vector with FlagNoCPUCheck is the availability probe.  No retrying
// happens here; transient outcomes surface as ErrRetry for the caller.
func (Kernel) Invoke(ops []Op, cpu int, flags uint32) error {
	var vec unsafe.Pointer
	if len(ops) > 0 {
		vec = unsafe.Pointer(&ops[0])
	}
	ret, _, errno := unix.Syscall6(
		sysCPUOpVec,
		uintptr(vec),
		uintptr(len(ops)),
		uintptr(cpu),
		uintptr(flags),
		0, 0,
	)
	runtime.KeepAlive(ops)

	switch errno {
	case 0:
	case unix.EAGAIN:
		return ErrRetry
	case unix.EFAULT:
		return ErrFault
	case unix.ENOSYS:
		return ErrUnavailable
	default:
		return errors.Wrap(errno, "invoke atomic operation vector service").
			Int("cpu", cpu)
	}
	if ret != 0 {
		// Positive raw return: a guard comparison mismatched.
		return ErrRetry
	}
	return nil
}
