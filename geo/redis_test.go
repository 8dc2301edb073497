package geo

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workouttribe/apperr"
)

func newRedisIndex(t *testing.T) (*RedisIndex, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisIndex(rdb, "geo:test"), mr
}

func TestRedisIndex_QueryAndRemove(t *testing.T) {
	ctx := context.Background()
	ix, _ := newRedisIndex(t)

	require.NoError(t, ix.Upsert(ctx, "near", Point{0, 0.001}))
	require.NoError(t, ix.Upsert(ctx, "mid", Point{0, 0.005}))
	require.NoError(t, ix.Upsert(ctx, "far", Point{0, 0.02}))

	hits, err := ix.Query(ctx, Point{0, 0}, 1000)
	require.NoError(t, err)
	assert.Equal(t, []string{"near", "mid"}, ids(hits))
	assert.InDelta(t, 111, hits[0].Distance, 2)

	require.NoError(t, ix.Remove(ctx, "near"))
	hits, err = ix.Query(ctx, Point{0, 0}, 1000)
	require.NoError(t, err)
	assert.Equal(t, []string{"mid"}, ids(hits))
}

func TestRedisIndex_NonPositiveRadiusSkipsRedis(t *testing.T) {
	ix, mr := newRedisIndex(t)
	mr.Close()

	hits, err := ix.Query(context.Background(), Point{0, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestRedisIndex_RejectsPolarLatitudes(t *testing.T) {
	ix, _ := newRedisIndex(t)
	err := ix.Upsert(context.Background(), "u1", Point{0, 89})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
