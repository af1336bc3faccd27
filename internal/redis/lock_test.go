package redisclient

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T, wait time.Duration) (Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLocker(client, 5*time.Second, wait), mr
}

func TestWithLockRunsFnAndReleases(t *testing.T) {
	locker, mr := newTestLocker(t, 0)

	ran := false
	err := locker.WithLock(context.Background(), "lock:k", func(ctx context.Context) error {
		ran = true
		assert.True(t, mr.Exists("lock:k"))
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.False(t, mr.Exists("lock:k"))
}

func TestWithLockContended(t *testing.T) {
	locker, mr := newTestLocker(t, 60*time.Millisecond)
	require.NoError(t, mr.Set("lock:k", "someone-else"))

	err := locker.WithLock(context.Background(), "lock:k", func(ctx context.Context) error {
		t.Fatal("fn must not run while the key is held")
		return nil
	})
	assert.ErrorIs(t, err, ErrLockNotAcquired)

	// the foreign holder keeps its key
	v, err := mr.Get("lock:k")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", v)
}

func TestWithLockPropagatesFnError(t *testing.T) {
	locker, mr := newTestLocker(t, 0)
	boom := errors.New("boom")

	err := locker.WithLock(context.Background(), "lock:k", func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("lock:k"))
}

func TestWithLockBackendDown(t *testing.T) {
	locker, mr := newTestLocker(t, 0)
	mr.Close()

	err := locker.WithLock(context.Background(), "lock:k", func(ctx context.Context) error {
		return nil
	})
	assert.ErrorIs(t, err, ErrLockUnavailable)
}

func TestNopLocker(t *testing.T) {
	ran := false
	err := NopLocker{}.WithLock(context.Background(), "any", func(ctx context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}
