// builders.go
//
// Primitive builders.  Each one assembles a fixed 1-3 step operation vector
// from typed caller parameters and forwards it to the service; the outcome
// is the invocation's outcome, with no validation and no retrying added.
// Correctness of every primitive relies on the whole vector executing as
// one atomic unit: a leading compare guards the later effects, and a step
// that may fault or carry a barrier always sits last.
//
// Addresses are baked into the vector as integral handles the runtime
// cannot see or fix up, so every pointer operand — the builder-internal
// value locals included — is pinned for the duration of the invocation.
// The pin keeps the object in place while the service works and forces
// operands that would otherwise sit on a growable goroutine stack onto the
// heap; handles are taken only after the pins are in place.  Without this
// a stack copy mid-invocation leaves the vector pointing at the dead stack
// and the store lands in memory nobody reads.
//
// Vectors are built on the stack, used once and discarded; there is no
// pooling and no reuse.

package cpuop

import (
	"runtime"
	"unsafe"
)

// CompareSwap is the generic compare-and-swap of an arbitrary-width block.
// In one atomic unit it snapshots the current n bytes at v into old,
// compares v against expect, and when equal copies new into v.  On a
// mismatch the outcome is ErrRetry and old still holds the snapshot, so the
// caller learns the value that beat it.
func CompareSwap(s Service, v, expect, old, new unsafe.Pointer, n uintptr, cpu int) error {
	var pin runtime.Pinner
	pin.Pin(v)
	pin.Pin(expect)
	pin.Pin(old)
	pin.Pin(new)
	defer pin.Unpin()
	vec := [3]Op{
		copyOp(KindMemcpy, n, uintptr(old), uintptr(v), false, false),
		compareOp(n, uintptr(v), uintptr(expect), false, false),
		copyOp(KindMemcpy, n, uintptr(v), uintptr(new), false, false),
	}
	return s.Invoke(vec[:], cpu, 0)
}

// Add atomically adds the sign-extended count to the n-byte value at p.
func Add(s Service, p unsafe.Pointer, count int64, n uintptr, cpu int) error {
	var pin runtime.Pinner
	pin.Pin(p)
	defer pin.Unpin()
	vec := [1]Op{
		addOp(KindAdd, n, uintptr(p), count, false),
	}
	return s.Invoke(vec[:], cpu, 0)
}

// AddRelease is Add with a release barrier publishing the result.
func AddRelease(s Service, p unsafe.Pointer, count int64, n uintptr, cpu int) error {
	var pin runtime.Pinner
	pin.Pin(p)
	defer pin.Unpin()
	vec := [1]Op{
		addOp(KindAddRelease, n, uintptr(p), count, false),
	}
	return s.Invoke(vec[:], cpu, 0)
}

// AddWord adds count to the pointer-sized word at v.
func AddWord(s Service, v *uintptr, count int64, cpu int) error {
	return Add(s, unsafe.Pointer(v), count, wordSize, cpu)
}

// AddWordRelease is AddWord with a release barrier.
func AddWordRelease(s Service, v *uintptr, count int64, cpu int) error {
	return AddRelease(s, unsafe.Pointer(v), count, wordSize, cpu)
}

// CompareStore is the minimal single-word CAS: store newv into *v iff *v
// still equals expect.
func CompareStore(s Service, v *uintptr, expect, newv uintptr, cpu int) error {
	var pin runtime.Pinner
	pin.Pin(v)
	pin.Pin(&expect)
	pin.Pin(&newv)
	defer pin.Unpin()
	vec := [2]Op{
		compareOp(wordSize, uintptr(unsafe.Pointer(v)), uintptr(unsafe.Pointer(&expect)), false, false),
		copyOp(KindMemcpy, wordSize, uintptr(unsafe.Pointer(v)), uintptr(unsafe.Pointer(&newv)), false, false),
	}
	return s.Invoke(vec[:], cpu, 0)
}

// compareStoreDeref stores the word at address newp into *v iff *v still
// equals expect.  The copy's source operand is flagged fault-tolerant: a
// stale newp yields ErrFault instead of a crash.  newp is an integral
// handle the caller derived, possibly already dangling, so it is the one
// operand deliberately left unpinned.  Building block for SwapDerefLoad.
func compareStoreDeref(s Service, v *uintptr, expect, newp uintptr, cpu int) error {
	var pin runtime.Pinner
	pin.Pin(v)
	pin.Pin(&expect)
	defer pin.Unpin()
	vec := [2]Op{
		compareOp(wordSize, uintptr(unsafe.Pointer(v)), uintptr(unsafe.Pointer(&expect)), false, false),
		copyOp(KindMemcpy, wordSize, uintptr(unsafe.Pointer(v)), newp, false, true),
	}
	return s.Invoke(vec[:], cpu, 0)
}

// CompareStorePair publishes two words atomically behind one comparison:
// iff *v == expect, v2 receives newv2 and then v receives newv.
func CompareStorePair(s Service, v *uintptr, expect uintptr, v2 *uintptr, newv2, newv uintptr, cpu int) error {
	var pin runtime.Pinner
	pin.Pin(v)
	pin.Pin(v2)
	pin.Pin(&expect)
	pin.Pin(&newv2)
	pin.Pin(&newv)
	defer pin.Unpin()
	vec := [3]Op{
		compareOp(wordSize, uintptr(unsafe.Pointer(v)), uintptr(unsafe.Pointer(&expect)), false, false),
		copyOp(KindMemcpy, wordSize, uintptr(unsafe.Pointer(v2)), uintptr(unsafe.Pointer(&newv2)), false, false),
		copyOp(KindMemcpy, wordSize, uintptr(unsafe.Pointer(v)), uintptr(unsafe.Pointer(&newv)), false, false),
	}
	return s.Invoke(vec[:], cpu, 0)
}

// CompareStorePairRelease is CompareStorePair with the final publish of v
// carrying a release barrier: a thread that observes the new v is
// guaranteed to observe the new v2.
func CompareStorePairRelease(s Service, v *uintptr, expect uintptr, v2 *uintptr, newv2, newv uintptr, cpu int) error {
	var pin runtime.Pinner
	pin.Pin(v)
	pin.Pin(v2)
	pin.Pin(&expect)
	pin.Pin(&newv2)
	pin.Pin(&newv)
	defer pin.Unpin()
	vec := [3]Op{
		compareOp(wordSize, uintptr(unsafe.Pointer(v)), uintptr(unsafe.Pointer(&expect)), false, false),
		copyOp(KindMemcpy, wordSize, uintptr(unsafe.Pointer(v2)), uintptr(unsafe.Pointer(&newv2)), false, false),
		copyOp(KindMemcpyRelease, wordSize, uintptr(unsafe.Pointer(v)), uintptr(unsafe.Pointer(&newv)), false, false),
	}
	return s.Invoke(vec[:], cpu, 0)
}

// ComparePairStore guards a single store behind two independent equality
// conditions: iff *v == expect and *v2 == expect2, v receives newv.
func ComparePairStore(s Service, v *uintptr, expect uintptr, v2 *uintptr, expect2, newv uintptr, cpu int) error {
	var pin runtime.Pinner
	pin.Pin(v)
	pin.Pin(v2)
	pin.Pin(&expect)
	pin.Pin(&expect2)
	pin.Pin(&newv)
	defer pin.Unpin()
	vec := [3]Op{
		compareOp(wordSize, uintptr(unsafe.Pointer(v)), uintptr(unsafe.Pointer(&expect)), false, false),
		compareOp(wordSize, uintptr(unsafe.Pointer(v2)), uintptr(unsafe.Pointer(&expect2)), false, false),
		copyOp(KindMemcpy, wordSize, uintptr(unsafe.Pointer(v)), uintptr(unsafe.Pointer(&newv)), false, false),
	}
	return s.Invoke(vec[:], cpu, 0)
}

// CompareCopyStore guards an arbitrary-length block copy behind a
// word-sized condition, then publishes newv into *v: iff *v == expect, n
// bytes move from src to dst and the sentinel word is stored.
func CompareCopyStore(s Service, v *uintptr, expect uintptr, dst, src unsafe.Pointer, n uintptr, newv uintptr, cpu int) error {
	var pin runtime.Pinner
	pin.Pin(v)
	pin.Pin(dst)
	pin.Pin(src)
	pin.Pin(&expect)
	pin.Pin(&newv)
	defer pin.Unpin()
	vec := [3]Op{
		compareOp(wordSize, uintptr(unsafe.Pointer(v)), uintptr(unsafe.Pointer(&expect)), false, false),
		copyOp(KindMemcpy, n, uintptr(dst), uintptr(src), false, false),
		copyOp(KindMemcpy, wordSize, uintptr(unsafe.Pointer(v)), uintptr(unsafe.Pointer(&newv)), false, false),
	}
	return s.Invoke(vec[:], cpu, 0)
}

// CompareCopyStoreRelease orders the block copy before the sentinel becomes
// visible: the final store of newv carries a release barrier.
func CompareCopyStoreRelease(s Service, v *uintptr, expect uintptr, dst, src unsafe.Pointer, n uintptr, newv uintptr, cpu int) error {
	var pin runtime.Pinner
	pin.Pin(v)
	pin.Pin(dst)
	pin.Pin(src)
	pin.Pin(&expect)
	pin.Pin(&newv)
	defer pin.Unpin()
	vec := [3]Op{
		compareOp(wordSize, uintptr(unsafe.Pointer(v)), uintptr(unsafe.Pointer(&expect)), false, false),
		copyOp(KindMemcpy, n, uintptr(dst), uintptr(src), false, false),
		copyOp(KindMemcpyRelease, wordSize, uintptr(unsafe.Pointer(v)), uintptr(unsafe.Pointer(&newv)), false, false),
	}
	return s.Invoke(vec[:], cpu, 0)
}
