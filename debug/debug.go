// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: debug.go — cold-path error logging helper (zero-alloc)
//
// Purpose:
//   - Logs infrequent failure paths without introducing heap pressure.
//   - Used only in cold paths: unexpected service outcomes, fatal operand
//     faults in the simulator, vector diagnostics.
//
// Notes:
//   - Avoids fmt.Sprintf to minimize footprint and latency.
//   - Writes directly to stderr through utils.PrintWarning.
//
// ⚠️ Never invoke on the invocation or retry paths — diagnostics only.
// ─────────────────────────────────────────────────────────────────────────────

package debug

import "cpuopv/utils"

// DropError logs an error with its prefix tag, or just the prefix when err
// is nil (tagged traces).
//
//go:nosplit
//go:inline
func DropError(prefix string, err error) {
	if err != nil {
		utils.PrintWarning(prefix + ": " + err.Error() + "\n")
	} else {
		utils.PrintWarning(prefix + "\n")
	}
}

// DropMessage logs a tagged diagnostic line.
//
//go:nosplit
//go:inline
func DropMessage(prefix, message string) {
	utils.PrintWarning(prefix + ": " + message + "\n")
}
