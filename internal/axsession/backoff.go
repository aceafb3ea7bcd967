package axsession

import (
	"math/rand"
	"time"
)

// MaxBackoff caps the reconnect backoff at 30s.
const MaxBackoff = 30 * time.Second

// Backoff computes exponential-with-jitter reconnect delay for the given
// 0-based retry attempt: base 1s doubling each attempt, capped at
// MaxBackoff, then jittered downward to a random delay between half the
// base and the full base so many subagents reconnecting at once do not
// thunder-herd the master agent.
func Backoff(attempt int, rnd *rand.Rand) time.Duration {
	base := time.Second << uint(attempt)
	if base > MaxBackoff || base <= 0 {
		base = MaxBackoff
	}
	jitter := time.Duration(rnd.Int63n(int64(base) + 1))
	d := base/2 + jitter/2
	if d > MaxBackoff {
		d = MaxBackoff
	}
	return d
}
