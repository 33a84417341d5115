package tmproxy

import "runtime"

// Worker sizing constants.
const (
	// MinWorkers ensures at least one document is rewritten at a time.
	MinWorkers = 1

	// MaxWorkers caps concurrent rewrites; each holds a decoded body and
	// its rewritten copy in memory.
	MaxWorkers = 32
)

// ResolveWorkers determines how many documents may be rewritten at once.
// Priority: explicit workers > GOMAXPROCS (adjusted by automaxprocs in
// containers). Rewriting is CPU-bound, so one worker per usable CPU.
func ResolveWorkers(workers int) int {
	if workers > 0 {
		return workers
	}

	n := runtime.GOMAXPROCS(0)
	if n < MinWorkers {
		return MinWorkers
	}
	if n > MaxWorkers {
		return MaxWorkers
	}
	return n
}
