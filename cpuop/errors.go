// errors.go
//
// Outcome taxonomy of the atomic execution service.  The sentinels are
// string constants so the hot retry path reports transient outcomes without
// allocating; only genuinely fatal conditions pay for context wrapping.

package cpuop

import "github.com/sirkon/errors"

const (
	// ErrRetry is the transient outcome: a guard comparison in the vector
	// mismatched, or the service observed a processor reassignment mid
	// call.  The full primitive is safe to re-issue immediately.
	ErrRetry errors.Const = "transient condition, re-issue the operation vector"

	// ErrFault reports that an operand whose expect-fault flag was set
	// actually faulted.  It signals a stale derived address, a normal
	// outcome for the pointer-chase algorithm, never a crash.
	ErrFault errors.Const = "expected fault on a flagged operand"

	// ErrUnavailable means the execution service does not exist on the
	// running kernel.  Meaningful for the availability probe; callers
	// branch on it, they do not abort.
	ErrUnavailable errors.Const = "atomic operation vector service unavailable"

	// ErrExcluded is returned by SwapDerefLoad when the shared value
	// already equals the caller's not-equal sentinel; no store was
	// attempted and the slot is untouched.
	ErrExcluded errors.Const = "value already equals the excluded sentinel"
)
