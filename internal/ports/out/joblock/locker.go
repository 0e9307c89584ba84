package joblock

import (
	"context"
	"time"
)

// Locker grants exclusive, expiring ownership of a named job run.
type Locker interface {
	// TryLock returns ok=false without blocking when name is already held.
	// The returned release func is safe to call more than once.
	TryLock(ctx context.Context, name string, ttl time.Duration) (release func(), ok bool, err error)
}
