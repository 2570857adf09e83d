// utils.go — low-level helpers shared by debug and the op-vector simulator.
package utils

import (
	"syscall"
	"unsafe"
)

///////////////////////////////////////////////////////////////////////////////
// Alloc-free stderr output
///////////////////////////////////////////////////////////////////////////////

// PrintWarning writes msg straight to file descriptor 2, bypassing the fmt
// machinery.  The string's bytes are viewed in place, never copied.
// ⚠️ Cold paths only.
//
//go:nosplit
//go:inline
func PrintWarning(msg string) {
	if len(msg) == 0 {
		return
	}
	_, _ = syscall.Write(2, unsafe.Slice(unsafe.StringData(msg), len(msg)))
}

///////////////////////////////////////////////////////////////////////////////
// Tiny zero-dependency formatters
///////////////////////////////////////////////////////////////////////////////

// Itoa renders a signed integer without pulling in strconv's table paths.
// Stack buffer, single trailing allocation for the returned string.
//
//go:nosplit
func Itoa(v int) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	neg := v < 0
	u := uint64(v)
	if neg {
		u = uint64(-v)
	}
	i := len(buf)
	for u > 0 {
		i--
		buf[i] = byte('0' + u%10)
		u /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Utox renders v as 0x-prefixed lowercase hex; used for operand handles in
// diagnostics.
//
//go:nosplit
func Utox(v uint64) string {
	const digits = "0123456789abcdef"
	var buf [18]byte
	i := len(buf)
	for {
		i--
		buf[i] = digits[v&0xf]
		v >>= 4
		if v == 0 {
			break
		}
	}
	i--
	buf[i] = 'x'
	i--
	buf[i] = '0'
	return string(buf[i:])
}
