package clock

import "time"

// Clock is the only source of "now" for services, jobs and token issuing.
// Tests drive it with memory/clock.ManualClock.
type Clock interface {
	Now() time.Time
}
