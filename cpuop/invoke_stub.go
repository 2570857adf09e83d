//go:build !linux || !(amd64 || arm64)

// invoke_stub.go
//
// Portable stub for targets without the kernel facility (non-Linux, or
// 32-bit where the 64-bit record layout does not apply).  Everything
// reports unavailable so the probe stays an ordinary false.

package cpuop

// Invoke always reports the service as absent on this target.
func (Kernel) Invoke(ops []Op, cpu int, flags uint32) error {
	return ErrUnavailable
}
