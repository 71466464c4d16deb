package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedis(client, "test", time.Minute), mr
}

type view struct {
	Names []string `json:"names"`
}

func TestRedisGetSet(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t)

	var got view
	hit, err := c.Get(ctx, CategoriesKey, &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, CategoriesKey, view{Names: []string{"a", "b"}}))
	assert.True(t, mr.Exists("test:"+CategoriesKey))
	assert.Equal(t, time.Minute, mr.TTL("test:"+CategoriesKey))

	hit, err = c.Get(ctx, CategoriesKey, &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"a", "b"}, got.Names)
}

func TestRedisExpiry(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t)

	require.NoError(t, c.Set(ctx, ProductKey("p1"), view{}))
	mr.FastForward(2 * time.Minute)

	hit, err := c.Get(ctx, ProductKey("p1"), &view{})
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisInvalidateByPrefix(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t)

	for _, k := range []string{
		ProductListPrefix + "q=|c=|s=default",
		ProductListPrefix + "q=phone|c=|s=price-asc",
		ProductKey("p1"),
		UserOrdersKey("u1"),
		AdminOrdersKey,
	} {
		require.NoError(t, c.Set(ctx, k, view{}))
	}

	require.NoError(t, c.Invalidate(ctx, ProductListPrefix, ProductKey("p1")))
	assert.False(t, mr.Exists("test:"+ProductListPrefix+"q=|c=|s=default"))
	assert.False(t, mr.Exists("test:"+ProductKey("p1")))
	assert.True(t, mr.Exists("test:"+UserOrdersKey("u1")))

	require.NoError(t, c.Invalidate(ctx, OrdersPrefix))
	assert.False(t, mr.Exists("test:"+AdminOrdersKey))
	assert.False(t, mr.Exists("test:"+UserOrdersKey("u1")))

	// nothing left to match
	require.NoError(t, c.Invalidate(ctx, OrdersPrefix))
}

func TestRedisUnavailable(t *testing.T) {
	c, mr := newTestRedis(t)
	mr.Close()

	_, err := c.Get(context.Background(), CategoriesKey, &view{})
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	var c Cache = Nop{}
	hit, err := c.Get(context.Background(), "k", &view{})
	assert.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, c.Set(context.Background(), "k", view{}))
	assert.NoError(t, c.Invalidate(context.Background(), "k"))
}
