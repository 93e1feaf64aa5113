package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/remotive/saleshub/internal/infrastructure/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryTokenBlacklist(t *testing.T) {
	blacklist := auth.NewInMemoryTokenBlacklist()
	ctx := context.Background()

	require.NoError(t, blacklist.AddToBlacklist(ctx, "jti-1", time.Hour))
	listed, err := blacklist.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, listed)

	listed, err = blacklist.IsBlacklisted(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, listed)

	require.NoError(t, blacklist.AddToBlacklist(ctx, "jti-short", time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	listed, err = blacklist.IsBlacklisted(ctx, "jti-short")
	require.NoError(t, err)
	assert.False(t, listed)
}

func TestInMemoryTokenBlacklist_UserTokenInvalidation(t *testing.T) {
	blacklist := auth.NewInMemoryTokenBlacklist()
	ctx := context.Background()
	issued := time.Now().Add(-time.Hour)

	invalidated, err := blacklist.IsUserTokenInvalidated(ctx, "user-1", issued)
	require.NoError(t, err)
	assert.False(t, invalidated)

	require.NoError(t, blacklist.AddUserTokensToBlacklist(ctx, "user-1", time.Hour))

	invalidated, err = blacklist.IsUserTokenInvalidated(ctx, "user-1", issued)
	require.NoError(t, err)
	assert.True(t, invalidated)

	invalidated, err = blacklist.IsUserTokenInvalidated(ctx, "user-1", time.Now().Add(time.Second))
	require.NoError(t, err)
	assert.False(t, invalidated)

	invalidated, err = blacklist.IsUserTokenInvalidated(ctx, "user-2", issued)
	require.NoError(t, err)
	assert.False(t, invalidated)
}

func TestRedisTokenBlacklist(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	blacklist := auth.NewRedisTokenBlacklist(client)
	ctx := context.Background()

	t.Run("jti expires with ttl", func(t *testing.T) {
		require.NoError(t, blacklist.AddToBlacklist(ctx, "jti-1", time.Minute))
		listed, err := blacklist.IsBlacklisted(ctx, "jti-1")
		require.NoError(t, err)
		assert.True(t, listed)

		mr.FastForward(2 * time.Minute)
		listed, err = blacklist.IsBlacklisted(ctx, "jti-1")
		require.NoError(t, err)
		assert.False(t, listed)
	})

	t.Run("non-positive ttl is ignored", func(t *testing.T) {
		require.NoError(t, blacklist.AddToBlacklist(ctx, "jti-0", 0))
		listed, err := blacklist.IsBlacklisted(ctx, "jti-0")
		require.NoError(t, err)
		assert.False(t, listed)
	})

	t.Run("user invalidation", func(t *testing.T) {
		require.NoError(t, blacklist.AddUserTokensToBlacklist(ctx, "user-1", time.Hour))

		invalidated, err := blacklist.IsUserTokenInvalidated(ctx, "user-1", time.Now().Add(-time.Minute))
		require.NoError(t, err)
		assert.True(t, invalidated)

		invalidated, err = blacklist.IsUserTokenInvalidated(ctx, "user-1", time.Now().Add(time.Minute))
		require.NoError(t, err)
		assert.False(t, invalidated)

		invalidated, err = blacklist.IsUserTokenInvalidated(ctx, "user-2", time.Now())
		require.NoError(t, err)
		assert.False(t, invalidated)
	})

	t.Run("redis down surfaces error", func(t *testing.T) {
		mr.Close()
		_, err := blacklist.IsBlacklisted(ctx, "jti-1")
		assert.Error(t, err)
	})
}
