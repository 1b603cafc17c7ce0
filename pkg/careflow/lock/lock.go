// Package lock provides the advisory per-case lock that keeps at most one
// workflow run in flight for a case id.
package lock

import (
	"context"
	"errors"
	"sync"
)

// ErrLockHeld is returned by TryLock when another holder owns the key.
var ErrLockHeld = errors.New("lock held by another run")

// Locker never waits: TryLock either acquires the key or reports
// ErrLockHeld. The returned release func is safe to call more than once.
type Locker interface {
	TryLock(ctx context.Context, key string) (release func(), err error)
}

// LocalLocker serializes runs inside a single process.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]struct{})}
}

func (l *LocalLocker) TryLock(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[key]; busy {
		return nil, ErrLockHeld
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, nil
}
