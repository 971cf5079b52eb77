package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb, err := NewRedisClient(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	defer rdb.Close()

	l := NewRedisLimiter(rdb, "checkin", Config{Requests: 3, Window: time.Hour})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "w1")
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i+1)
	}

	ok, err := l.Allow(ctx, "w1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = l.Allow(ctx, "w2")
	require.NoError(t, err)
	assert.True(t, ok, "keys are counted separately")

	keys := mr.Keys()
	require.NotEmpty(t, keys)
	assert.Greater(t, mr.TTL(keys[0]), time.Duration(0))
}

func TestRedisLimiter_ServerDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb, err := NewRedisClient(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	defer rdb.Close()

	l := NewRedisLimiter(rdb, "checkin", Config{Requests: 1, Window: time.Minute})
	mr.Close()

	_, err = l.Allow(context.Background(), "w1")
	assert.Error(t, err)
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisClient(context.Background(), addr, "", 0)
	assert.Error(t, err)
}

func TestLocalLimiter(t *testing.T) {
	l := NewLocalLimiter(Config{Requests: 2, Window: time.Hour})
	ctx := context.Background()

	ok, _ := l.Allow(ctx, "w1")
	assert.True(t, ok)
	ok, _ = l.Allow(ctx, "w1")
	assert.True(t, ok)
	ok, _ = l.Allow(ctx, "w1")
	assert.False(t, ok)

	ok, _ = l.Allow(ctx, "w2")
	assert.True(t, ok)
}
