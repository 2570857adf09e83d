package cpuop_test

import (
	"strings"
	"testing"
	"unsafe"

	"github.com/sugawarayuuta/sonnet"

	"cpuopv/cpuop"
	"cpuopv/opsim"
)

// TestDumpVector renders a mixed vector and decodes it back, checking the
// kind names, hex handles and the signed count survive the trip.
func TestDumpVector(t *testing.T) {
	count := int64(-7)
	vec := []cpuop.Op{
		{Code: cpuop.KindCompareEQ, Len: 8, Arg0: 0x10, Arg1: 0x20, F0: 1},
		{Code: cpuop.KindMemcpyRelease, Len: 16, Arg0: 0x30, Arg1: 0x40, F1: 1},
		{Code: cpuop.KindAdd, Len: 8, Arg0: 0x50, Arg1: uint64(count)},
	}
	out := cpuop.DumpVector(vec)

	var recs []map[string]any
	if err := sonnet.Unmarshal([]byte(out), &recs); err != nil {
		t.Fatalf("dump is not valid JSON: %v\n%s", err, out)
	}
	if len(recs) != 3 {
		t.Fatalf("decoded %d records, want 3", len(recs))
	}
	if recs[0]["kind"] != "compare-eq" || recs[0]["fault0"] != true {
		t.Errorf("record 0 = %v", recs[0])
	}
	if recs[1]["kind"] != "memcpy-release" || recs[1]["arg0"] != "0x30" {
		t.Errorf("record 1 = %v", recs[1])
	}
	if recs[2]["kind"] != "add" || recs[2]["count"] != float64(-7) {
		t.Errorf("record 2 = %v", recs[2])
	}
}

// TestDumpVectorLive dumps a vector built against live addresses, the way
// the simulator logs a fatal outcome, and sanity-checks the rendering.
func TestDumpVectorLive(t *testing.T) {
	sim := opsim.New(1)
	var v uintptr = 1
	if err := cpuop.CompareStore(sim, &v, 1, 2, 0); err != nil {
		t.Fatalf("setup CAS failed: %v", err)
	}

	vec := []cpuop.Op{
		{Code: cpuop.KindMemcpy, Len: uint32(unsafe.Sizeof(v)),
			Arg0: uint64(uintptr(unsafe.Pointer(&v))), Arg1: 0x1000},
	}
	out := cpuop.DumpVector(vec)
	if !strings.Contains(out, "memcpy") || !strings.Contains(out, "0x1000") {
		t.Errorf("dump missing fields: %s", out)
	}
}
