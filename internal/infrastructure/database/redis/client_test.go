package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/logkpredict/internal/config"
	"github.com/turtacn/logkpredict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/logkpredict/pkg/errors"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewClient(config.RedisConfig{Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestNewClient_Success(t *testing.T) {
	client, _ := newTestClient(t)
	assert.NoError(t, client.Ping(context.Background()))
}

func TestNewClient_ConnectionFailed(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	client, err := NewClient(config.RedisConfig{Addr: addr, DialTimeout: 200 * time.Millisecond}, nil)
	require.Error(t, err)
	assert.Nil(t, client)
	assert.True(t, errors.IsCode(err, errors.CodeCacheError))
	assert.Contains(t, err.Error(), addr)
}

func TestClient_Operations(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "foo", "bar", time.Minute).Err())
	val, err := client.Get(ctx, "foo").Result()
	require.NoError(t, err)
	assert.Equal(t, "bar", val)

	ttl, err := client.TTL(ctx, "foo").Result()
	require.NoError(t, err)
	assert.Equal(t, time.Minute, ttl)

	vals, err := client.MGet(ctx, "foo", "missing").Result()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"bar", nil}, vals)

	_, err = mr.ZAdd("z", 1, "a")
	require.NoError(t, err)
	_, err = mr.ZAdd("z", 2, "b")
	require.NoError(t, err)
	members, err := client.ZRevRange(ctx, "z", 0, -1).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, members)

	removed, err := client.ZRem(ctx, "z", "a").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestClient_Close(t *testing.T) {
	client, _ := newTestClient(t)

	assert.NoError(t, client.Close())
	assert.NoError(t, client.Close(), "second close is a no-op")

	ctx := context.Background()
	assert.Equal(t, ErrClientClosed, client.Ping(ctx))
	assert.Equal(t, ErrClientClosed, client.Get(ctx, "foo").Err())
	assert.Equal(t, ErrClientClosed, client.Set(ctx, "foo", "bar", 0).Err())
	assert.Equal(t, ErrClientClosed, client.MGet(ctx, "foo").Err())
	assert.Equal(t, ErrClientClosed, client.ZRevRange(ctx, "z", 0, 1).Err())
}
