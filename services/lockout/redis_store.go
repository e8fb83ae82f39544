package lockout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrLockoutUnavailable = errors.New("lockout backend unavailable")

// RedisStore keeps lockout state in redis. The lock key carries a TTL equal
// to the remaining window, so elapsed lockouts disappear on their own.
type RedisStore struct {
	redis redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{redis: client}
}

func (s *RedisStore) failKey(userID uint) string {
	return "lockout:fail:" + strconv.FormatUint(uint64(userID), 10)
}

func (s *RedisStore) lockKey(userID uint) string {
	return "lockout:until:" + strconv.FormatUint(uint64(userID), 10)
}

func (s *RedisStore) IncrementFailures(ctx context.Context, userID uint) (int, error) {
	count, err := s.redis.Incr(ctx, s.failKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
	}
	return int(count), nil
}

func (s *RedisStore) Lock(ctx context.Context, userID uint, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := s.redis.Set(ctx, s.lockKey(userID), until.UTC().Format(time.RFC3339Nano), ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Reset(ctx context.Context, userID uint) error {
	if err := s.redis.Del(ctx, s.failKey(userID), s.lockKey(userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
	}
	return nil
}

func (s *RedisStore) LockedUntil(ctx context.Context, userID uint) (*time.Time, error) {
	value, err := s.redis.Get(ctx, s.lockKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
	}

	until, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return nil, fmt.Errorf("malformed lockout window value: %w", err)
	}
	return &until, nil
}
