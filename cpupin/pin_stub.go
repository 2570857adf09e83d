//go:build !linux || tinygo

// pin_stub.go
//
// Portable no-op so source compiles unchanged where `sched_setaffinity`
// does not exist.  Higher layers already tolerate "no pin": migration
// shows up as a retry outcome from the execution service.

package cpupin

// Pin is a no-op on unsupported targets.
func Pin(cpu int) {}
