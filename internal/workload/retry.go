package workload

import (
	"os"

	"github.com/wbeardall/schedtools-go/internal/hostconfig"
)

// maxJSONParseRetries bounds how many fetch-and-parse attempts (the first
// one included) a qstat-style JSON payload gets: interactive SSH shells
// occasionally hand back truncated or interleaved output, so a bad parse
// is treated as transient rather than fatal, per §5.
const maxJSONParseRetries = 5

// maxProbeRetries bounds how many attempts (the first one included) Detect
// makes at one candidate's probe command while it hits channel faults;
// once they are used up, Detect returns the fault, per §5.
const maxProbeRetries = 2

// retriesDisabled mirrors hostconfig.Dial's own escape hatch so tests (and
// anyone debugging a live fault) can turn retry loops off.
func retriesDisabled() bool {
	return os.Getenv(hostconfig.EnvDisableRetry) != ""
}

// retryAttempts returns how many attempts a retry loop bounded by max
// should make: 1 if retries are disabled, max otherwise.
func retryAttempts(max int) int {
	if retriesDisabled() {
		return 1
	}
	return max
}
