package clock

import "time"

// SystemClock reads the wall clock. Times are always UTC; callers convert for display.
type SystemClock struct{}

func NewSystemClock() SystemClock { return SystemClock{} }

func (SystemClock) Now() time.Time { return time.Now().UTC() }
