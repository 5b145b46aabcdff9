package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Name string `json:"name"`
}

func setupCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, time.Minute), mr
}

func TestAside_SecondLookupHitsRedis(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()
	calls := 0
	fetch := func(dest *entry) func() error {
		return func() error {
			calls++
			dest.Name = "ann"
			return nil
		}
	}

	var first entry
	require.NoError(t, c.Aside(ctx, "profile", ProfileKey("Ann"), &first, fetch(&first)))
	var second entry
	require.NoError(t, c.Aside(ctx, "profile", ProfileKey("ann"), &second, fetch(&second)))

	assert.Equal(t, 1, calls)
	assert.Equal(t, "ann", second.Name)
	assert.True(t, mr.Exists("snapfeed:profile:ann"))
	assert.Equal(t, time.Minute, mr.TTL("snapfeed:profile:ann"))
}

func TestAside_FetchErrorIsNotCached(t *testing.T) {
	c, mr := setupCache(t)
	var dest entry
	err := c.Aside(context.Background(), "search", SearchKey("x"), &dest, func() error { return errors.New("boom") })
	assert.EqualError(t, err, "boom")
	assert.False(t, mr.Exists("snapfeed:"+SearchKey("x")))
}

func TestAside_RedisDownFallsThrough(t *testing.T) {
	c, mr := setupCache(t)
	mr.Close()

	var dest entry
	err := c.Aside(context.Background(), "profile", ProfileKey("bo"), &dest, func() error {
		dest.Name = "bo"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "bo", dest.Name)
}

func TestNilCache_IsDisabled(t *testing.T) {
	var c *Cache
	assert.False(t, c.Enabled())

	found, err := c.GetJSON(context.Background(), "k", &entry{})
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, c.SetJSON(context.Background(), "k", entry{}))
	assert.NoError(t, c.Delete(context.Background(), "k"))
	assert.NoError(t, c.Close())

	calls := 0
	require.NoError(t, c.Aside(context.Background(), "profile", "k", &entry{}, func() error { calls++; return nil }))
	assert.Equal(t, 1, calls)
}

func TestConnect(t *testing.T) {
	ctx := context.Background()

	c, err := Connect(ctx, "", time.Minute)
	require.NoError(t, err)
	assert.False(t, c.Enabled())

	mr := miniredis.RunT(t)
	c, err = Connect(ctx, "redis://"+mr.Addr()+"/0", time.Minute)
	require.NoError(t, err)
	assert.True(t, c.Enabled())
	require.NoError(t, c.Close())

	c, err = Connect(ctx, "redis://%zz", time.Minute)
	assert.Error(t, err)
	assert.False(t, c.Enabled())
}

func TestSearchKey_Normalizes(t *testing.T) {
	assert.Equal(t, SearchKey("ann"), SearchKey("  ANN "))
}

func TestAsideField_ViewersAreSeparateAndEvictedTogether(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()
	calls := 0
	lookup := func(field, name string) entry {
		var dest entry
		require.NoError(t, c.AsideField(ctx, "profile", ProfileKey("xa"), field, &dest, func() error {
			calls++
			dest.Name = name
			return nil
		}))
		return dest
	}

	assert.Equal(t, "ann's view", lookup(ViewerField("1"), "ann's view").Name)
	assert.Equal(t, "bob's view", lookup(ViewerField("2"), "bob's view").Name)
	assert.Equal(t, "ann's view", lookup(ViewerField("1"), "refetched").Name)
	assert.Equal(t, 2, calls)
	assert.Equal(t, time.Minute, mr.TTL("snapfeed:profile:xa"))

	require.NoError(t, c.Delete(ctx, ProfileKey("xa")))
	assert.Equal(t, "fresh", lookup(ViewerField("2"), "fresh").Name)
	assert.Equal(t, 3, calls)
}

func TestViewerField(t *testing.T) {
	assert.Equal(t, "anonymous", ViewerField(""))
	assert.Equal(t, "viewer:7", ViewerField("7"))
}
