// chase.go
//
// Fault-tolerant pointer-chase: read a shared pointer-sized slot, derive a
// candidate address from the loaded value plus a fixed offset, and attempt
// to store the word found there back into the slot.  The derived address
// may have gone stale by the time the service dereferences it, so the copy
// source is flagged fault-tolerant and a stale chase surfaces as ErrFault
// instead of a crash.
//
// The loop is lock-free, not wait-free: it re-reads and re-issues for as
// long as concurrent mutators keep winning the guard comparison.  Progress
// follows from the usual lock-free argument — every lost attempt means some
// other thread's primitive succeeded.

package cpuop

import (
	"sync/atomic"

	"github.com/sirkon/errors"
)

// maxChaseAttempts caps the retry loop when set by tests; 0 keeps the
// production behavior of unbounded retries.
var maxChaseAttempts int

// SwapDerefLoad implements the chase against the slot at v:
//
//  1. oldv := *v; if oldv == expectnot, return (0, ErrExcluded) with the
//     slot untouched and no store attempted.
//  2. attempt the guarded store of *(oldv+voffp) into *v.
//  3. success returns (oldv, nil) — the value the caller last observed
//     before its store took effect.  ErrFault and fatal outcomes propagate
//     unmodified; ErrRetry loops back to 1 with a fresh read.
//
// With expectnot as the empty sentinel and voffp the offset of a link
// field, this is a per-CPU stack pop returning the detached element.
func SwapDerefLoad(s Service, v *uintptr, expectnot, voffp uintptr, cpu int) (uintptr, error) {
	for attempt := 0; ; attempt++ {
		if maxChaseAttempts > 0 && attempt >= maxChaseAttempts {
			return 0, errors.New("pointer chase exceeded the attempt cap").
				Int("attempts", attempt).
				Int("cpu", cpu)
		}
		oldv := atomic.LoadUintptr(v)
		if oldv == expectnot {
			return 0, ErrExcluded
		}
		switch err := compareStoreDeref(s, v, oldv, oldv+voffp, cpu); {
		case err == nil:
			return oldv, nil
		case errors.Is(err, ErrRetry):
			// Another thread mutated the slot between the read and the
			// guard, or the processor was reassigned mid-attempt.
		default:
			return 0, err
		}
	}
}
