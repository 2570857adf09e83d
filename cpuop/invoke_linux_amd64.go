// invoke_linux_amd64.go
//
// Syscall number of the atomic execution service on x86-64.  The facility
// ships as an out-of-tree kernel patch series; stock kernels answer ENOSYS
// and the availability probe reports false.  Rebuilt kernels that assign a
// different number only need this constant changed.

package cpuop

const sysCPUOpVec = 335
