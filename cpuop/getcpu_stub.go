//go:build !linux

// getcpu_stub.go
//
// Portable stub: without a getcpu primitive the processor id source is
// unavailable, matching the execution-service stub on the same targets.

package cpuop

import "github.com/sirkon/errors"

// CurrentCPU reports the processor id source as absent on this target.
func CurrentCPU() (int, error) {
	return -1, errors.Wrap(ErrUnavailable, "query current processor id")
}
