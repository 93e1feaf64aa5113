package cache

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/remotive/saleshub/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestNewRedisClient(t *testing.T) {
	client, err := NewRedisClient(context.Background(), config.RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, client)

	mr := miniredis.RunT(t)
	client, err = NewRedisClient(context.Background(), config.RedisConfig{Host: mr.Host(), Port: mustPort(t, mr)})
	require.NoError(t, err)
	require.NotNil(t, client)
	_ = client.Close()
}

func mustPort(t *testing.T, mr *miniredis.Miniredis) int {
	t.Helper()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	return port
}

func TestRoundRobin(t *testing.T) {
	_, client := newMiniredis(t)
	cursors := map[string]interface {
		Next(ctx context.Context, tenantID uuid.UUID, n int) (int, error)
	}{
		"redis":  NewRedisRoundRobin(client),
		"memory": NewInMemoryRoundRobin(),
	}
	for name, rr := range cursors {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			tenantA, tenantB := uuid.New(), uuid.New()

			var got []int
			for range 5 {
				i, err := rr.Next(ctx, tenantA, 3)
				require.NoError(t, err)
				got = append(got, i)
			}
			assert.Equal(t, []int{0, 1, 2, 0, 1}, got)

			i, err := rr.Next(ctx, tenantB, 3)
			require.NoError(t, err)
			assert.Equal(t, 0, i, "tenants rotate independently")

			_, err = rr.Next(ctx, tenantA, 0)
			assert.Error(t, err)
		})
	}
}

func TestInMemoryRoundRobin_Concurrent(t *testing.T) {
	rr := NewInMemoryRoundRobin()
	tenantID := uuid.New()
	counts := make([]int, 4)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for range 400 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			i, err := rr.Next(context.Background(), tenantID, 4)
			if err != nil {
				return
			}
			mu.Lock()
			counts[i]++
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, []int{100, 100, 100, 100}, counts)
}

func TestRedisLoginThrottle(t *testing.T) {
	mr, client := newMiniredis(t)
	throttle := NewRedisLoginThrottle(client, ThrottleConfig{MaxAttempts: 3, Window: time.Minute})
	ctx := context.Background()
	key := ThrottleKey("big-tex", " Rep@Lot.com ")
	assert.Equal(t, "BIG-TEX:rep@lot.com", key)

	for range 2 {
		require.NoError(t, throttle.RecordFailure(ctx, key))
	}
	blocked, _, err := throttle.Blocked(ctx, key)
	require.NoError(t, err)
	assert.False(t, blocked)

	require.NoError(t, throttle.RecordFailure(ctx, key))
	blocked, retry, err := throttle.Blocked(ctx, key)
	require.NoError(t, err)
	assert.True(t, blocked)
	assert.InDelta(t, time.Minute.Seconds(), retry.Seconds(), 1)

	mr.FastForward(2 * time.Minute)
	blocked, _, err = throttle.Blocked(ctx, key)
	require.NoError(t, err)
	assert.False(t, blocked)

	for range 3 {
		require.NoError(t, throttle.RecordFailure(ctx, key))
	}
	require.NoError(t, throttle.Reset(ctx, key))
	blocked, _, err = throttle.Blocked(ctx, key)
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestInMemoryLoginThrottle(t *testing.T) {
	throttle := NewInMemoryLoginThrottle(ThrottleConfig{MaxAttempts: 2, Window: time.Minute})
	now := time.Now()
	throttle.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, throttle.RecordFailure(ctx, "k"))
	require.NoError(t, throttle.RecordFailure(ctx, "k"))
	blocked, retry, err := throttle.Blocked(ctx, "k")
	require.NoError(t, err)
	assert.True(t, blocked)
	assert.Equal(t, time.Minute, retry)

	now = now.Add(61 * time.Second)
	blocked, _, err = throttle.Blocked(ctx, "k")
	require.NoError(t, err)
	assert.False(t, blocked)
}
