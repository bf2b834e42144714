package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const ledgerLockKey = "lock:booking-ledger"

type redisLedgerLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLedgerLocker creates a locker backed by a single Redis key, for
// deployments where more than one process shares the ledger file.
func NewRedisLedgerLocker(client *redis.Client, ttl time.Duration) Locker {
	return &redisLedgerLocker{
		client: client,
		ttl:    ttl,
	}
}

func (l *redisLedgerLocker) WithLedgerLock(ctx context.Context, fn func(ctx context.Context) error) error {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, ledgerLockKey, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire ledger lock: %w", err)
	}
	if !ok {
		return ErrLockNotAcquired
	}

	defer func() {
		_ = l.release(ctx, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisLedgerLocker) release(ctx context.Context, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{ledgerLockKey}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release ledger lock: %w", err)
	}
	return nil
}
