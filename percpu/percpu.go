// percpu.go
//
// Per-CPU data structures built on the atomic operation-vector primitives.
// Every mutation travels through a cpuop builder against an injected
// Service; the structures themselves hold no locks.  Shards are chosen by
// the caller's current CPU modulo the shard count, so the shard count
// should equal the host's logical CPU count when running against the
// kernel service — fewer shards still behave correctly and merely share.
//
// Retry outcomes re-resolve the processor id and re-issue, the only
// looping done at this layer.

package percpu

import "runtime"

// CPUFunc resolves the calling thread's logical CPU.  The default is
// cpuop.CurrentCPU; tests inject fixed functions to steer traffic onto
// known shards and to exercise the retry path deterministically.
type CPUFunc func() (int, error)

// defaultShards picks one shard per logical CPU for non-positive requests.
func defaultShards(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}
