// dump.go
//
// Cold-path rendering of an operation vector for diagnostics.  Never used
// on the invocation path; opsim and tests call it when a vector does
// something unexpected and a human needs to see what was submitted.

package cpuop

import (
	"strconv"

	"github.com/sugawarayuuta/sonnet"
)

type opRecord struct {
	Kind   string `json:"kind"`
	Len    uint32 `json:"len"`
	Arg0   string `json:"arg0"`
	Arg1   string `json:"arg1"`
	Count  int64  `json:"count,omitempty"`
	Fault0 bool   `json:"fault0,omitempty"`
	Fault1 bool   `json:"fault1,omitempty"`
}

// DumpVector renders ops as a JSON array, operand handles in hex and the
// arithmetic count additionally decoded as its signed value.
func DumpVector(ops []Op) string {
	recs := make([]opRecord, len(ops))
	for i, op := range ops {
		r := opRecord{
			Kind:   op.Code.String(),
			Len:    op.Len,
			Arg0:   "0x" + strconv.FormatUint(op.Arg0, 16),
			Arg1:   "0x" + strconv.FormatUint(op.Arg1, 16),
			Fault0: op.F0 != 0,
			Fault1: op.F1 != 0,
		}
		if op.Code == KindAdd || op.Code == KindAddRelease {
			r.Count = int64(op.Arg1)
		}
		recs[i] = r
	}
	b, err := sonnet.Marshal(recs)
	if err != nil {
		return "[]"
	}
	return string(b)
}
