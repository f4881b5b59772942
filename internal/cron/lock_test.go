package cron

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryRedis struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newMemoryRedis() *memoryRedis {
	return &memoryRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryRedis) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	m.ttls[key] = ttl
	return true, nil
}

func (m *memoryRedis) DelIfValue(_ context.Context, key, value string) (bool, error) {
	if m.values[key] != value {
		return false, nil
	}
	delete(m.values, key)
	return true, nil
}

func TestRedisLockExcludesSecondWorker(t *testing.T) {
	ctx := context.Background()
	store := newMemoryRedis()

	first, err := NewRedisLock(store, "ll:lock:cron", 0)
	require.NoError(t, err)
	second, err := NewRedisLock(store, "ll:lock:cron", time.Hour)
	require.NoError(t, err)

	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, defaultLockTTL, store.ttls["ll:lock:cron"])

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	// Releasing a lock we never took leaves the holder alone.
	require.NoError(t, second.Release(ctx))
	require.Contains(t, store.values, "ll:lock:cron")

	require.NoError(t, first.Release(ctx))
	require.NotContains(t, store.values, "ll:lock:cron")

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRedisLockExpiredOwnerDoesNotDeleteNewHolder(t *testing.T) {
	ctx := context.Background()
	store := newMemoryRedis()
	stale, err := NewRedisLock(store, "k", time.Minute)
	require.NoError(t, err)

	ok, err := stale.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// TTL expiry hands the key to another worker.
	store.values["k"] = "someone-else"
	require.NoError(t, stale.Release(ctx))
	require.Equal(t, "someone-else", store.values["k"])
}

func TestNewRedisLockValidates(t *testing.T) {
	_, err := NewRedisLock(nil, "k", time.Minute)
	require.Error(t, err)
	_, err = NewRedisLock(newMemoryRedis(), "", time.Minute)
	require.Error(t, err)
}

func TestRedisLockReleasesAfterShutdownSignal(t *testing.T) {
	store := newMemoryRedis()
	lock, err := NewRedisLock(store, "k", time.Minute)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	ok, err := lock.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// A holder does not stack a second lease on itself.
	ok, err = lock.Acquire(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	cancel()
	require.NoError(t, lock.Release(ctx))
	require.NotContains(t, store.values, "k")
}
