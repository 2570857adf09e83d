// op.go
//
// Operation-vector model for the per-CPU atomic execution service.  One Op
// is a single step (compare, copy or arithmetic) over caller-supplied byte
// ranges; a short ordered slice of Ops is submitted as one unit and either
// applies entirely or not at all on the target logical CPU.
//
// The record layout is the bit-exact boundary with the external service:
// field order, widths and the union discriminant must match its expected
// structure byte-for-byte.  Everything above this file works with typed
// values; addresses degrade to opaque integral handles only here.

package cpuop

import "unsafe"

// Kind discriminates the operation carried by an Op.  Numbering is part of
// the external contract and must not be reordered.
type Kind int32

const (
	// KindCompareEQ aborts the vector with a retry outcome unless the two
	// operand ranges hold identical bytes.
	KindCompareEQ Kind = iota
	// KindCompareNE is reserved by the service contract.  No builder in
	// this package emits it; the constant exists to keep the numbering
	// exact.
	KindCompareNE
	// KindMemcpy copies Len bytes from the src handle to the dst handle.
	KindMemcpy
	// KindMemcpyRelease is KindMemcpy plus a release barrier: all prior
	// writes in the vector become visible to other CPUs no later than
	// this copy.
	KindMemcpyRelease
	// KindAdd sign-extends the count argument and adds it in place.
	KindAdd
	// KindAddRelease is KindAdd with a trailing release barrier.
	KindAddRelease
)

// String names the kind for cold-path diagnostics.
func (k Kind) String() string {
	switch k {
	case KindCompareEQ:
		return "compare-eq"
	case KindCompareNE:
		return "compare-ne"
	case KindMemcpy:
		return "memcpy"
	case KindMemcpyRelease:
		return "memcpy-release"
	case KindAdd:
		return "add"
	case KindAddRelease:
		return "add-release"
	}
	return "unknown"
}

// VecLenMax is the longest vector the execution service accepts.  Builders
// here never exceed three steps.
const VecLenMax = 16

// Op is one step of an operation vector, 32 bytes, 8-byte aligned.  The
// argument area is a union keyed by Code:
//
//	CompareEQ/NE:        Arg0=a    Arg1=b            F0=expect_fault_a   F1=expect_fault_b
//	Memcpy(/Release):    Arg0=dst  Arg1=src          F0=expect_fault_dst F1=expect_fault_src
//	Add(/Release):       Arg0=p    Arg1=count(int64) F0=expect_fault_p
//
// Len must equal the true in-memory width of the operands; the model is
// untyped and the width is the caller's responsibility, not validated here.
// A set fault flag turns a page fault on that operand into a reportable
// outcome instead of a hard failure.
type Op struct {
	Code Kind
	Len  uint32
	Arg0 uint64
	Arg1 uint64
	F0   uint8
	F1   uint8
	_    [6]byte
}

// Layout pins.  The external service reads these records raw, so a drifted
// field offset is a silent memory corruptor; fail the build instead.
const opSize = 32

var (
	_ [unsafe.Sizeof(Op{}) - opSize]byte
	_ [opSize - unsafe.Sizeof(Op{})]byte
	_ [unsafe.Offsetof(Op{}.Arg0) - 8]byte
	_ [8 - unsafe.Offsetof(Op{}.Arg0)]byte
	_ [unsafe.Offsetof(Op{}.F0) - 24]byte
	_ [24 - unsafe.Offsetof(Op{}.F0)]byte
	_ [unsafe.Alignof(Op{}) - 8]byte
	_ [8 - unsafe.Alignof(Op{})]byte
)

// wordSize is the width of the pointer-sized primitives.
const wordSize = unsafe.Sizeof(uintptr(0))

//go:inline
func flag(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// compareOp builds a compare-equal step over two n-byte ranges.
func compareOp(n, a, b uintptr, faultA, faultB bool) Op {
	return Op{
		Code: KindCompareEQ,
		Len:  uint32(n),
		Arg0: uint64(a),
		Arg1: uint64(b),
		F0:   flag(faultA),
		F1:   flag(faultB),
	}
}

// copyOp builds a memcpy step; code selects the plain or release variant.
func copyOp(code Kind, n, dst, src uintptr, faultDst, faultSrc bool) Op {
	return Op{
		Code: code,
		Len:  uint32(n),
		Arg0: uint64(dst),
		Arg1: uint64(src),
		F0:   flag(faultDst),
		F1:   flag(faultSrc),
	}
}

// addOp builds an in-place arithmetic step; code selects the plain or
// release variant.
func addOp(code Kind, n, p uintptr, count int64, faultP bool) Op {
	return Op{
		Code: code,
		Len:  uint32(n),
		Arg0: uint64(p),
		Arg1: uint64(count),
		F0:   flag(faultP),
	}
}
