// pinned.go
//
// Pinned execution helper for drivers of the kernel execution service.
// Locks the goroutine to its OS thread, pins the thread to one logical
// CPU, runs the caller's function, and restores scheduling on the way out.

package cpupin

import "runtime"

// PinnedDo runs fn on the current goroutine with its OS thread locked and
// pinned to cpu.  The pin is best-effort; fn must still treat retry
// outcomes from the execution service as possible.
func PinnedDo(cpu int, fn func()) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	Pin(cpu)
	fn()
}
