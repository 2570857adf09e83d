// invoke_linux_arm64.go
//
// Syscall number of the atomic execution service on arm64.  See the amd64
// twin for the out-of-tree caveat.

package cpuop

const sysCPUOpVec = 294
