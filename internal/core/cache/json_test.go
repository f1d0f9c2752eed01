package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestGetOrLoadJSON_CachesValue(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	calls := 0
	load := func(context.Context) (*item, error) {
		calls++
		return &item{ID: "1", Name: "memo"}, nil
	}

	got, err := GetOrLoadJSON(c, ctx, "memo:1", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, "memo", got.Name)

	got, err = GetOrLoadJSON(c, ctx, "memo:1", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, "memo", got.Name)
	assert.Equal(t, 1, calls)
	assert.True(t, mr.Exists("memo:1"))

	require.NoError(t, c.Del(ctx, "memo:1"))
	_, err = GetOrLoadJSON(c, ctx, "memo:1", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestGetOrLoadJSON_Nil(t *testing.T) {
	c, _ := newTestCache(t)
	got, err := GetOrLoadJSON(c, context.Background(), "memo:none", time.Minute,
		func(context.Context) (*item, error) { return nil, nil })
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetOrLoad_RedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	c := New(mr.Addr(), "", 0)
	defer c.Close()
	mr.Close()
	b, err := c.GetOrLoad(context.Background(), "k", time.Minute,
		func(context.Context) ([]byte, error) { return []byte("v"), nil })
	require.NoError(t, err)
	assert.Equal(t, "v", string(b))
	assert.Error(t, c.Ping(context.Background()))
}

func TestGetOrLoadJSON_NilUsesNegativeTTL(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	calls := 0
	load := func(context.Context) (*item, error) { calls++; return nil, nil }

	_, err := GetOrLoadJSON(c, ctx, "memo:gone", time.Hour, load)
	require.NoError(t, err)
	assert.Equal(t, NegativeTTL, mr.TTL("memo:gone"))

	_, err = GetOrLoadJSON(c, ctx, "memo:gone", time.Hour, load)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	mr.FastForward(NegativeTTL + time.Second)
	_, err = GetOrLoadJSON(c, ctx, "memo:gone", time.Hour, load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestGetOrLoadJSON_CorruptEntryReloads(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("memo:bad", "{not json"))

	got, err := GetOrLoadJSON(c, context.Background(), "memo:bad", time.Minute,
		func(context.Context) (*item, error) { return &item{ID: "bad", Name: "fresh"}, nil })
	require.NoError(t, err)
	assert.Equal(t, "fresh", got.Name)
	assert.False(t, mr.Exists("memo:bad"))
}

func TestGetOrLoad_LoadErrorNotCached(t *testing.T) {
	c, mr := newTestCache(t)
	_, err := c.GetOrLoad(context.Background(), "k", time.Minute,
		func(context.Context) ([]byte, error) { return nil, assert.AnError })
	assert.ErrorIs(t, err, assert.AnError)
	assert.False(t, mr.Exists("k"))
}
