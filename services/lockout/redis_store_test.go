package lockout

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisStore(client), mr
}

func TestRedisStore_IncrementFailures(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	count, err := store.IncrementFailures(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = store.IncrementFailures(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = store.IncrementFailures(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "counters are per user")
}

func TestRedisStore_LockAndRead(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	until, err := store.LockedUntil(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, until)

	lockUntil := time.Now().UTC().Add(15 * time.Minute)
	require.NoError(t, store.Lock(ctx, 1, lockUntil))

	until, err = store.LockedUntil(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, until)
	assert.WithinDuration(t, lockUntil, *until, time.Second)
}

func TestRedisStore_LockExpiresWithWindow(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Lock(ctx, 1, time.Now().UTC().Add(time.Minute)))

	mr.FastForward(2 * time.Minute)

	until, err := store.LockedUntil(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, until, "elapsed lock key disappears via TTL")
}

func TestRedisStore_Reset(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	_, err := store.IncrementFailures(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, store.Lock(ctx, 1, time.Now().UTC().Add(time.Minute)))

	require.NoError(t, store.Reset(ctx, 1))

	count, err := store.IncrementFailures(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "counter restarts after reset")

	until, err := store.LockedUntil(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, until)
}

func TestRedisStore_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client)
	mr.Close()

	_, err := store.IncrementFailures(context.Background(), 1)
	assert.ErrorIs(t, err, ErrLockoutUnavailable)

	_, err = store.LockedUntil(context.Background(), 1)
	assert.ErrorIs(t, err, ErrLockoutUnavailable)
}

func TestService_WithRedisStore(t *testing.T) {
	store, mr := newTestRedisStore(t)
	cfg := getTestLockoutConfig()
	cfg.Lockout.Store = "redis"
	service := NewService(store, cfg, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, service.RecordFailure(ctx, 7))
	}

	status, err := service.CheckStatus(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, StatusLocked, status)

	mr.FastForward(20 * time.Minute)

	status, err = service.CheckStatus(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, status)

	require.NoError(t, service.RecordSuccess(ctx, 7))
	require.NoError(t, service.RecordFailure(ctx, 7))

	status, err = service.CheckStatus(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, status)
}
