package match

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	lockTTL         = 30 * time.Second
	lockRetryDelay  = 50 * time.Millisecond
	lockMaxAttempts = 20
)

// Locker serializes lifecycle transitions per entity through Redis.
type Locker struct {
	redis  *redis.Client
	logger zerolog.Logger
}

func NewLocker(rdb *redis.Client, logger zerolog.Logger) *Locker {
	return &Locker{
		redis:  rdb,
		logger: logger.With().Str("component", "lock").Logger(),
	}
}

// Lock acquires a distributed lock on key. Concurrent callers retry briefly
// so simultaneous submissions queue instead of failing. Returns an unlock
// function; the lock self-expires after 30s if never released.
func (l *Locker) Lock(ctx context.Context, key string) (func() error, error) {
	lockKey := fmt.Sprintf("lock:%s", key)
	lockValue := uuid.New().String()

	for attempt := 0; attempt < lockMaxAttempts; attempt++ {
		acquired, err := l.redis.SetNX(ctx, lockKey, lockValue, lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock: %w", err)
		}
		if acquired {
			unlock := func() error {
				// Only delete a lock we still own.
				script := `
					if redis.call("get", KEYS[1]) == ARGV[1] then
						return redis.call("del", KEYS[1])
					else
						return 0
					end
				`
				return l.redis.Eval(ctx, script, []string{lockKey}, lockValue).Err()
			}
			return unlock, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}

	l.logger.Warn().Str("key", lockKey).Msg("lock contention exhausted retries")
	return nil, fmt.Errorf("lock on %s already held", key)
}

// LockMatch locks one match's lifecycle.
func (l *Locker) LockMatch(ctx context.Context, matchID uuid.UUID) (func() error, error) {
	return l.Lock(ctx, fmt.Sprintf("match:%s", matchID.String()))
}
