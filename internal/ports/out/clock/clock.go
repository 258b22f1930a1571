package clock

import "time"

// Clock provides time to the load driver and the oracle.
// Tests substitute a manual clock to get deterministic durations.
type Clock interface {
	Now() time.Time
}
