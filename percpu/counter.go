// counter.go
//
// Sharded counter: one pointer-sized slot per CPU, incremented through the
// arithmetic primitive on the caller's current CPU.  Increments never
// contend across CPUs; reading trades exactness for wait-freedom.

package percpu

import (
	"sync/atomic"

	"github.com/sirkon/errors"

	"cpuopv/cpuop"
)

// counterShard keeps each slot on its own cache line.
type counterShard struct {
	v uintptr
	_ [56]byte
}

// Counter is a per-CPU counter.  The zero value is not usable; call
// NewCounter.
type Counter struct {
	svc    cpuop.Service
	cpuOf  CPUFunc
	shards []counterShard
}

// NewCounter builds a counter over svc with the given shard count
// (non-positive means one per logical CPU).
func NewCounter(svc cpuop.Service, shards int) *Counter {
	return &Counter{
		svc:    svc,
		cpuOf:  cpuop.CurrentCPU,
		shards: make([]counterShard, defaultShards(shards)),
	}
}

// SetCPUFunc replaces the processor-id source.  Test hook; not safe to
// call concurrently with increments.
func (c *Counter) SetCPUFunc(fn CPUFunc) {
	c.cpuOf = fn
}

func (c *Counter) add(delta int64, release bool) error {
	for {
		cpu, err := c.cpuOf()
		if err != nil {
			return err
		}
		idx := cpu % len(c.shards)
		if release {
			err = cpuop.AddWordRelease(c.svc, &c.shards[idx].v, delta, idx)
		} else {
			err = cpuop.AddWord(c.svc, &c.shards[idx].v, delta, idx)
		}
		switch {
		case err == nil:
			return nil
		case errors.Is(err, cpuop.ErrRetry):
			// Reassigned mid-call; re-resolve and re-issue.
		default:
			return err
		}
	}
}

// Inc adds delta to the current CPU's slot.
func (c *Counter) Inc(delta int64) error {
	return c.add(delta, false)
}

// IncRelease is Inc with a release barrier publishing the new value.
func (c *Counter) IncRelease(delta int64) error {
	return c.add(delta, true)
}

// Sum folds all slots.  The result is a racy snapshot: slots are read one
// by one while increments continue, which is the documented trade of every
// per-CPU counter.
func (c *Counter) Sum() int64 {
	var total int64
	for i := range c.shards {
		total += int64(atomic.LoadUintptr(&c.shards[i].v))
	}
	return total
}
