// sim.go
//
// User-space execution service for atomic operation vectors.  Implements
// the exact input/output contract of the kernel facility — same record
// layout, same flags word, same four-way outcome decode — with atomicity
// provided by one mutex per simulated logical CPU instead of disabled
// preemption.  Vectors targeting the same CPU serialize; the guarantee is
// the same one the kernel gives: linearizable at the granularity of one
// vector, per target CPU.
//
// Two knobs exist for deterministic testing of paths real hardware makes
// probabilistic:
//
//   - Poison(lo, hi) declares an address range unmapped.  A step operand
//     overlapping it faults: flagged operands report the expected-fault
//     outcome, unflagged ones a fatal error, exactly like the kernel's
//     fixup handling.
//   - FailNext(n) makes the next n invocations report the transient retry
//     outcome before touching memory, standing in for mid-call processor
//     reassignment.
//
// Word-width traffic goes through sync/atomic so observers outside the
// shard lock (plain snapshot reads, the chase algorithm's initial load)
// stay well-defined; the atomic store doubles as the release barrier for
// the word-sized release variants.  Block copies rely on the shard lock
// alone.

package opsim

import (
	"bytes"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/sirkon/errors"

	"cpuopv/cpuop"
	"cpuopv/debug"
	"cpuopv/utils"
)

type span struct {
	lo, hi uintptr
}

// shard is one simulated logical CPU.  Padded so neighbouring locks do not
// share a cache line.
type shard struct {
	mu sync.Mutex
	_  [56]byte
}

// Service is a software cpuop.Service.  The zero value is not usable; call
// New.
type Service struct {
	shards   []shard
	failNext int32

	pmu    sync.RWMutex
	poison []span
}

// New builds a service with the given number of simulated CPUs; anything
// non-positive means one shard per logical CPU of the host.
func New(shards int) *Service {
	if shards <= 0 {
		shards = runtime.NumCPU()
	}
	return &Service{shards: make([]shard, shards)}
}

// Shards reports the number of simulated CPUs.
func (s *Service) Shards() int {
	return len(s.shards)
}

// Poison declares [lo, hi) unmapped for fault emulation.
func (s *Service) Poison(lo, hi uintptr) {
	s.pmu.Lock()
	s.poison = append(s.poison, span{lo: lo, hi: hi})
	s.pmu.Unlock()
}

// ClearPoison forgets all poisoned ranges.
func (s *Service) ClearPoison() {
	s.pmu.Lock()
	s.poison = nil
	s.pmu.Unlock()
}

// FailNext arms n transient failures: the next n invocations return the
// retry outcome without executing their vector.
func (s *Service) FailNext(n int) {
	atomic.StoreInt32(&s.failNext, int32(n))
}

func (s *Service) takeFailure() bool {
	for {
		n := atomic.LoadInt32(&s.failNext)
		if n <= 0 {
			return false
		}
		if atomic.CompareAndSwapInt32(&s.failNext, n, n-1) {
			return true
		}
	}
}

// Invoke executes ops atomically with respect to every other vector
// targeting the same simulated CPU.  The outcome taxonomy matches the
// kernel service: nil, ErrRetry, ErrFault, or a fatal error.
func (s *Service) Invoke(ops []cpuop.Op, cpu int, flags uint32) error {
	if len(ops) > cpuop.VecLenMax {
		return errors.New("operation vector too long").
			Int("len", len(ops)).
			Int("max", cpuop.VecLenMax)
	}
	if flags&cpuop.FlagNoCPUCheck != 0 {
		if len(ops) == 0 {
			return nil // availability probe
		}
		if cpu < 0 || cpu >= len(s.shards) {
			cpu = 0
		}
	} else if cpu < 0 || cpu >= len(s.shards) {
		return errors.New("target processor out of range").
			Int("cpu", cpu).
			Int("shards", len(s.shards))
	}
	if s.takeFailure() {
		return cpuop.ErrRetry
	}

	sh := &s.shards[cpu]
	sh.mu.Lock()
	defer sh.mu.Unlock()

	for i := range ops {
		if err := s.step(&ops[i]); err != nil {
			if !errors.Is(err, cpuop.ErrRetry) && !errors.Is(err, cpuop.ErrFault) {
				debug.DropMessage("OPSIM", "fatal outcome at step "+
					utils.Itoa(i)+" of "+cpuop.DumpVector(ops))
			}
			return err
		}
	}
	return nil
}

// step interprets one operation.  A compare mismatch aborts the vector
// with the retry outcome; effects of earlier steps stay applied, matching
// the partial-application contract callers design their vectors around.
func (s *Service) step(op *cpuop.Op) error {
	n := uintptr(op.Len)
	switch op.Code {
	case cpuop.KindCompareEQ:
		if err := s.check(uintptr(op.Arg0), n, op.F0 != 0); err != nil {
			return err
		}
		if err := s.check(uintptr(op.Arg1), n, op.F1 != 0); err != nil {
			return err
		}
		if !memEqual(uintptr(op.Arg0), uintptr(op.Arg1), n) {
			return cpuop.ErrRetry
		}
	case cpuop.KindCompareNE:
		if err := s.check(uintptr(op.Arg0), n, op.F0 != 0); err != nil {
			return err
		}
		if err := s.check(uintptr(op.Arg1), n, op.F1 != 0); err != nil {
			return err
		}
		if memEqual(uintptr(op.Arg0), uintptr(op.Arg1), n) {
			return cpuop.ErrRetry
		}
	case cpuop.KindMemcpy, cpuop.KindMemcpyRelease:
		if err := s.check(uintptr(op.Arg0), n, op.F0 != 0); err != nil {
			return err
		}
		if err := s.check(uintptr(op.Arg1), n, op.F1 != 0); err != nil {
			return err
		}
		memMove(uintptr(op.Arg0), uintptr(op.Arg1), n)
	case cpuop.KindAdd, cpuop.KindAddRelease:
		if err := s.check(uintptr(op.Arg0), n, op.F0 != 0); err != nil {
			return err
		}
		return addInPlace(uintptr(op.Arg0), n, int64(op.Arg1))
	default:
		return errors.New("unknown operation kind").Int("code", int(op.Code))
	}
	return nil
}

// check enforces the poison map for one operand range.  A tolerated fault
// is the expected-fault outcome; an unflagged one is fatal.
func (s *Service) check(addr, n uintptr, tolerated bool) error {
	s.pmu.RLock()
	defer s.pmu.RUnlock()
	for _, sp := range s.poison {
		if addr < sp.hi && addr+n > sp.lo {
			if tolerated {
				return cpuop.ErrFault
			}
			return errors.New("fault on an unflagged operand").
				Str("addr", utils.Utox(uint64(addr))).
				Int("len", int(n))
		}
	}
	return nil
}

//go:nocheckptr
func memSlice(addr, n uintptr) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), n)
}

//go:nocheckptr
func memEqual(a, b, n uintptr) bool {
	if n == 8 && a&7 == 0 && b&7 == 0 {
		return atomic.LoadUint64((*uint64)(unsafe.Pointer(a))) ==
			atomic.LoadUint64((*uint64)(unsafe.Pointer(b)))
	}
	return bytes.Equal(memSlice(a, n), memSlice(b, n))
}

//go:nocheckptr
func memMove(dst, src, n uintptr) {
	if n == 8 && dst&7 == 0 && src&7 == 0 {
		v := atomic.LoadUint64((*uint64)(unsafe.Pointer(src)))
		atomic.StoreUint64((*uint64)(unsafe.Pointer(dst)), v)
		return
	}
	copy(memSlice(dst, n), memSlice(src, n))
}

//go:nocheckptr
func addInPlace(p, n uintptr, count int64) error {
	switch n {
	case 1:
		*(*uint8)(unsafe.Pointer(p)) += uint8(count)
	case 2:
		*(*uint16)(unsafe.Pointer(p)) += uint16(count)
	case 4:
		*(*uint32)(unsafe.Pointer(p)) += uint32(count)
	case 8:
		atomic.AddUint64((*uint64)(unsafe.Pointer(p)), uint64(count))
	default:
		return errors.New("unsupported arithmetic operand width").Int("len", int(n))
	}
	return nil
}
