package joblock

import (
	"context"
	"sync"
	"time"
)

// Locker is an in-process joblock.Locker. Locks expire after their ttl so a crashed
// holder cannot wedge a job forever.
type Locker struct {
	mu   sync.Mutex
	now  func() time.Time
	held map[string]lease
	seq  uint64
}

type lease struct {
	token   uint64
	expires time.Time
}

func NewLocker() *Locker {
	return &Locker{now: time.Now, held: make(map[string]lease)}
}

func (l *Locker) TryLock(ctx context.Context, name string, ttl time.Duration) (func(), bool, error) {
	_ = ctx
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if cur, ok := l.held[name]; ok && now.Before(cur.expires) {
		return func() {}, false, nil
	}
	l.seq++
	token := l.seq
	l.held[name] = lease{token: token, expires: now.Add(ttl)}

	var once sync.Once
	release := func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if cur, ok := l.held[name]; ok && cur.token == token {
				delete(l.held, name)
			}
		})
	}
	return release, true, nil
}
