package utils

import "testing"

// TestItoa covers zero, positive, negative and 64-bit extremes.
func TestItoa(t *testing.T) {
	cases := map[int]string{
		0:                    "0",
		7:                    "7",
		-7:                   "-7",
		1234567890:           "1234567890",
		-9223372036854775807: "-9223372036854775807",
	}
	for in, want := range cases {
		if got := Itoa(in); got != want {
			t.Errorf("Itoa(%d) = %q, want %q", in, got, want)
		}
	}
}

// TestUtox checks the hex rendering used for operand handles.
func TestUtox(t *testing.T) {
	cases := map[uint64]string{
		0:              "0x0",
		0xdeadbeef:     "0xdeadbeef",
		1:              "0x1",
		0xffffffffffff: "0xffffffffffff",
	}
	for in, want := range cases {
		if got := Utox(in); got != want {
			t.Errorf("Utox(%#x) = %q, want %q", in, got, want)
		}
	}
}
