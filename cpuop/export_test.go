package cpuop

// SetMaxChaseAttempts bounds the chase loop for livelock tests; 0 restores
// unbounded retries.
func SetMaxChaseAttempts(n int) {
	maxChaseAttempts = n
}
