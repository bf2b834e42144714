package lock

import (
	"context"
	"errors"
	"sync"
)

var ErrLockNotAcquired = errors.New("ledger lock not acquired")

// Locker serializes read-modify-write cycles against the booking ledger.
// Every mutation of the persisted table runs inside WithLedgerLock.
type Locker interface {
	WithLedgerLock(ctx context.Context, fn func(ctx context.Context) error) error
}

type mutexLocker struct {
	mu sync.Mutex
}

// NewMutexLocker returns the default in-process locker. It is enough as
// long as a single process owns the ledger file.
func NewMutexLocker() Locker {
	return &mutexLocker{}
}

func (l *mutexLocker) WithLedgerLock(ctx context.Context, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}
