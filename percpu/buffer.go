// buffer.go
//
// Per-CPU fixed-stride buffer.  Put guards a bulk copy into the next free
// slot behind the count word, then publishes the grown count with a
// release barrier so a consumer that observes the count also observes the
// item bytes.  Get runs the mirror vector without the barrier: the copy
// out and the shrink are guarded by the same count word.

package percpu

import (
	"sync/atomic"
	"unsafe"

	"github.com/sirkon/errors"

	"cpuopv/cpuop"
)

// bufShard pads each count word onto its own cache line.
type bufShard struct {
	count uintptr
	_     [56]byte
}

// Buffer is a per-CPU LIFO of fixed-size byte items.  The zero value is
// not usable; call NewBuffer.
type Buffer struct {
	svc      cpuop.Service
	cpuOf    CPUFunc
	itemSize int
	capacity int
	shards   []bufShard
	slabs    [][]byte
}

// NewBuffer builds a buffer of capacity items of itemSize bytes per shard
// (non-positive shard count means one per logical CPU).  Panics on a
// non-positive capacity or item size so the slab arithmetic stays valid.
func NewBuffer(svc cpuop.Service, shards, capacity, itemSize int) *Buffer {
	if capacity <= 0 || itemSize <= 0 {
		panic("percpu: buffer capacity and item size must be positive")
	}
	n := defaultShards(shards)
	b := &Buffer{
		svc:      svc,
		cpuOf:    cpuop.CurrentCPU,
		itemSize: itemSize,
		capacity: capacity,
		shards:   make([]bufShard, n),
		slabs:    make([][]byte, n),
	}
	for i := range b.slabs {
		b.slabs[i] = make([]byte, capacity*itemSize)
	}
	return b
}

// SetCPUFunc replaces the processor-id source.  Test hook; not safe to
// call concurrently with puts or gets.
func (b *Buffer) SetCPUFunc(fn CPUFunc) {
	b.cpuOf = fn
}

// Put copies item into the current CPU's buffer.  False means full; no
// partial item is ever visible because the count publish carries the
// release barrier and sits last in the vector.
func (b *Buffer) Put(item []byte) (bool, error) {
	if len(item) != b.itemSize {
		return false, errors.New("item size mismatch").
			Int("got", len(item)).
			Int("want", b.itemSize)
	}
	for {
		cpu, err := b.cpuOf()
		if err != nil {
			return false, err
		}
		idx := cpu % len(b.shards)
		sh := &b.shards[idx]
		off := atomic.LoadUintptr(&sh.count)
		if off >= uintptr(b.capacity) {
			return false, nil
		}
		dst := &b.slabs[idx][int(off)*b.itemSize]
		err = cpuop.CompareCopyStoreRelease(
			b.svc, &sh.count, off,
			unsafe.Pointer(dst), unsafe.Pointer(&item[0]), uintptr(b.itemSize),
			off+1, idx,
		)
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, cpuop.ErrRetry):
			// Count moved under us; re-read and re-issue.
		default:
			return false, err
		}
	}
}

// Get copies the most recent item into out.  False means empty.
func (b *Buffer) Get(out []byte) (bool, error) {
	if len(out) != b.itemSize {
		return false, errors.New("item size mismatch").
			Int("got", len(out)).
			Int("want", b.itemSize)
	}
	for {
		cpu, err := b.cpuOf()
		if err != nil {
			return false, err
		}
		idx := cpu % len(b.shards)
		sh := &b.shards[idx]
		off := atomic.LoadUintptr(&sh.count)
		if off == 0 {
			return false, nil
		}
		src := &b.slabs[idx][int(off-1)*b.itemSize]
		err = cpuop.CompareCopyStore(
			b.svc, &sh.count, off,
			unsafe.Pointer(&out[0]), unsafe.Pointer(src), uintptr(b.itemSize),
			off-1, idx,
		)
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, cpuop.ErrRetry):
			// Count moved under us; re-read and re-issue.
		default:
			return false, err
		}
	}
}
