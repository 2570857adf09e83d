// service.go
//
// Execution-service boundary.  A Service accepts one operation vector, a
// target logical CPU and a flags word, and reports the four-way outcome
// taxonomy from errors.go.  Kernel is the production implementation backed
// by the raw syscall; opsim provides a user-space one with the same
// contract for hosts (and tests) without the kernel facility.

package cpuop

// FlagNoCPUCheck asks the service to ignore the target processor id.  Used
// by the availability probe together with an empty vector; ordinary
// invocations pass flags == 0.
const FlagNoCPUCheck uint32 = 1 << 0

// NoCPU is the target sentinel meaning "no specific processor", valid only
// together with FlagNoCPUCheck.
const NoCPU = -1

// Service executes one operation vector atomically with respect to
// observers on the target logical CPU.  A nil error means every step
// applied exactly once; ErrRetry, ErrFault and ErrUnavailable carry the
// taxonomy from errors.go; anything else is fatal.  Implementations never
// retry internally.
type Service interface {
	Invoke(ops []Op, cpu int, flags uint32) error
}

// Kernel is the syscall-backed execution service.  The zero value is ready
// to use.
type Kernel struct{}

// Available probes whether s accepts requests, using the canonical empty
// vector with the no-processor-check flag.  A missing service is an
// expected condition: every failure, ErrUnavailable included, yields false
// and nothing escapes as a panic.
func Available(s Service) bool {
	return s.Invoke(nil, NoCPU, FlagNoCPUCheck) == nil
}
