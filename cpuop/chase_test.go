package cpuop_test

import (
	"errors"
	"runtime"
	"testing"
	"unsafe"

	"golang.org/x/sys/unix"

	"cpuopv/cpuop"
	"cpuopv/opsim"
)

// TestSwapDerefLoadStores runs the chase against an uncontended slot: it
// must report stored exactly once, return the slot's entry value, and
// leave the slot holding the word found at entry value plus offset.
func TestSwapDerefLoadStores(t *testing.T) {
	sim := opsim.New(1)

	// The slot points at a node whose first word is the chase target.  The
	// node is pinned the way list callers pin theirs, since its address
	// travels through the vector as plain data.
	node := new([2]uintptr)
	node[0] = 0xabcd
	var pin runtime.Pinner
	pin.Pin(node)
	defer pin.Unpin()
	slot := uintptr(unsafe.Pointer(node))

	old, err := cpuop.SwapDerefLoad(sim, &slot, 0, 0, 0)
	if err != nil {
		t.Fatalf("chase failed: %v", err)
	}
	if old != uintptr(unsafe.Pointer(node)) {
		t.Fatalf("returned pre-store value %#x, want %#x", old, uintptr(unsafe.Pointer(node)))
	}
	if slot != 0xabcd {
		t.Fatalf("slot = %#x, want the dereferenced word 0xabcd", slot)
	}
}

// TestSwapDerefLoadOffset chases through a non-zero field offset, the way
// a list pop walks the link field.
func TestSwapDerefLoadOffset(t *testing.T) {
	sim := opsim.New(1)

	node := new([3]uintptr)
	node[1], node[2] = 0x1111, 0x2222
	var pin runtime.Pinner
	pin.Pin(node)
	defer pin.Unpin()
	slot := uintptr(unsafe.Pointer(node))
	off := unsafe.Sizeof(uintptr(0)) * 2

	old, err := cpuop.SwapDerefLoad(sim, &slot, 0, off, 0)
	if err != nil {
		t.Fatalf("chase failed: %v", err)
	}
	if old != uintptr(unsafe.Pointer(node)) || slot != 0x2222 {
		t.Fatalf("old=%#x slot=%#x, want old=%#x slot=0x2222",
			old, slot, uintptr(unsafe.Pointer(node)))
	}
}

// TestSwapDerefLoadExcluded returns immediately when the slot already
// holds the not-equal sentinel: no store attempt, slot untouched.
func TestSwapDerefLoadExcluded(t *testing.T) {
	sim := opsim.New(1)
	var slot uintptr = 0x77

	old, err := cpuop.SwapDerefLoad(sim, &slot, 0x77, 8, 0)
	if !errors.Is(err, cpuop.ErrExcluded) {
		t.Fatalf("got %v, want ErrExcluded", err)
	}
	if old != 0 || slot != 0x77 {
		t.Fatalf("old=%#x slot=%#x, want 0 and untouched 0x77", old, slot)
	}
}

// TestSwapDerefLoadFault points the slot at a page mapped with no access:
// the derived address is not dereferenceable and the chase must hand back
// the fault outcome without crashing and without mutating the slot.
func TestSwapDerefLoadFault(t *testing.T) {
	sim := opsim.New(1)

	page, err := unix.Mmap(-1, 0, unix.Getpagesize(),
		unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		t.Fatalf("mmap: %v", err)
	}
	defer func() { _ = unix.Munmap(page) }()

	lo := uintptr(unsafe.Pointer(unsafe.SliceData(page)))
	hi := lo + uintptr(len(page))
	sim.Poison(lo, hi)

	slot := lo
	old, err := cpuop.SwapDerefLoad(sim, &slot, 0, 0, 0)
	if !errors.Is(err, cpuop.ErrFault) {
		t.Fatalf("got %v, want ErrFault", err)
	}
	if old != 0 || slot != lo {
		t.Fatalf("old=%#x slot=%#x, want 0 and untouched %#x", old, slot, lo)
	}
}

// TestSwapDerefLoadPinsSlot runs the chase through a service that
// relocates the goroutine stack mid-invocation: the guarded store must
// reach the live slot.  The node is pinned the way list callers pin theirs,
// since its address travels through the vector as plain data.
func TestSwapDerefLoadPinsSlot(t *testing.T) {
	svc := stackGrower{inner: opsim.New(1)}

	node := new([1]uintptr)
	node[0] = 0x2b
	var pin runtime.Pinner
	pin.Pin(node)
	defer pin.Unpin()

	slot := uintptr(unsafe.Pointer(node))
	old, err := cpuop.SwapDerefLoad(svc, &slot, 0, 0, 0)
	if err != nil {
		t.Fatalf("chase failed: %v", err)
	}
	if old != uintptr(unsafe.Pointer(node)) || slot != 0x2b {
		t.Fatalf("old=%#x slot=%#x, want old=%#x slot=0x2b",
			old, slot, uintptr(unsafe.Pointer(node)))
	}
}

// TestSwapDerefLoadRetries arms transient failures and checks the loop
// re-issues through them to success.
func TestSwapDerefLoadRetries(t *testing.T) {
	sim := opsim.New(1)

	node := new([1]uintptr)
	node[0] = 0x99
	var pin runtime.Pinner
	pin.Pin(node)
	defer pin.Unpin()
	slot := uintptr(unsafe.Pointer(node))
	sim.FailNext(3)

	old, err := cpuop.SwapDerefLoad(sim, &slot, 0, 0, 0)
	if err != nil {
		t.Fatalf("chase through retries failed: %v", err)
	}
	if old != uintptr(unsafe.Pointer(node)) || slot != 0x99 {
		t.Fatalf("old=%#x slot=%#x after retries", old, slot)
	}
}

// TestSwapDerefLoadAttemptCap bounds the loop and verifies a continuously
// failing service surfaces as a fatal outcome instead of a livelock.
func TestSwapDerefLoadAttemptCap(t *testing.T) {
	sim := opsim.New(1)
	cpuop.SetMaxChaseAttempts(4)
	defer cpuop.SetMaxChaseAttempts(0)

	node := new([1]uintptr)
	node[0] = 0x13
	var pin runtime.Pinner
	pin.Pin(node)
	defer pin.Unpin()
	slot := uintptr(unsafe.Pointer(node))
	sim.FailNext(1 << 20)
	defer sim.FailNext(0)

	_, err := cpuop.SwapDerefLoad(sim, &slot, 0, 0, 0)
	if err == nil || errors.Is(err, cpuop.ErrRetry) || errors.Is(err, cpuop.ErrFault) {
		t.Fatalf("capped chase: got %v, want a fatal outcome", err)
	}
	if slot != uintptr(unsafe.Pointer(node)) {
		t.Fatalf("slot mutated by capped chase")
	}
}
