// list.go
//
// Per-CPU intrusive LIFO.  Push is a guarded single-word store; pop is the
// fault-tolerant pointer chase with the link-field offset, which makes a
// concurrently reclaimed node a reported outcome instead of a crash.
//
// The list stores node addresses as integral handles, not Go pointers:
// the garbage collector does not see them, so callers must keep every
// pushed node reachable until it has been popped.  This mirrors the
// untyped trust boundary of the protocol itself.

package percpu

import (
	"runtime"
	"sync/atomic"
	"unsafe"

	"github.com/sirkon/errors"

	"cpuopv/cpuop"
)

// Node is the intrusive link embedded in list elements.
type Node struct {
	next uintptr
}

const nextOffset = unsafe.Offsetof(Node{}.next)

// listShard pads each head word onto its own cache line.
type listShard struct {
	head uintptr
	_    [56]byte
}

// List is a per-CPU LIFO of intrusive nodes.  The zero value is not
// usable; call NewList.
type List struct {
	svc    cpuop.Service
	cpuOf  CPUFunc
	shards []listShard
}

// NewList builds a list over svc with the given shard count (non-positive
// means one per logical CPU).
func NewList(svc cpuop.Service, shards int) *List {
	return &List{
		svc:    svc,
		cpuOf:  cpuop.CurrentCPU,
		shards: make([]listShard, defaultShards(shards)),
	}
}

// SetCPUFunc replaces the processor-id source.  Test hook; not safe to
// call concurrently with pushes or pops.
func (l *List) SetCPUFunc(fn CPUFunc) {
	l.cpuOf = fn
}

// Push links n at the head of the current CPU's stack.  The node is pinned
// while its handle is published, which also forces stack-resident nodes
// onto the heap where the handle stays meaningful until Pop detaches it.
func (l *List) Push(n *Node) error {
	var pin runtime.Pinner
	pin.Pin(n)
	defer pin.Unpin()
	ptr := uintptr(unsafe.Pointer(n))
	for {
		cpu, err := l.cpuOf()
		if err != nil {
			return err
		}
		idx := cpu % len(l.shards)
		sh := &l.shards[idx]
		head := atomic.LoadUintptr(&sh.head)
		atomic.StoreUintptr(&n.next, head)
		err = cpuop.CompareStore(l.svc, &sh.head, head, ptr, idx)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, cpuop.ErrRetry):
			// Lost the guard to a concurrent push or pop.
		default:
			return err
		}
	}
}

// Pop detaches and returns the head of the current CPU's stack, nil when
// the stack is empty.  ErrFault propagates when the head node was
// reclaimed between the read and the dereference — the caller's
// EAGAIN-style condition, not an internal retry.
func (l *List) Pop() (*Node, error) {
	cpu, err := l.cpuOf()
	if err != nil {
		return nil, err
	}
	idx := cpu % len(l.shards)
	old, err := cpuop.SwapDerefLoad(l.svc, &l.shards[idx].head, 0, nextOffset, idx)
	switch {
	case err == nil:
		return (*Node)(unsafe.Pointer(old)), nil
	case errors.Is(err, cpuop.ErrExcluded):
		return nil, nil
	default:
		return nil, err
	}
}
