package geo

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workouttribe/apperr"
)

func ids(hits []Hit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.UserID
	}
	return out
}

func TestMemoryIndex_QueryOrdersByDistanceThenID(t *testing.T) {
	ctx := context.Background()
	ix := NewMemoryIndex()

	require.NoError(t, ix.Upsert(ctx, "far", Point{0, 0.008}))
	require.NoError(t, ix.Upsert(ctx, "near", Point{0, 0.001}))
	require.NoError(t, ix.Upsert(ctx, "b-tie", Point{0.003, 0}))
	require.NoError(t, ix.Upsert(ctx, "a-tie", Point{0.003, 0}))
	require.NoError(t, ix.Upsert(ctx, "outside", Point{0, 0.05}))

	hits, err := ix.Query(ctx, Point{0, 0}, 1000)
	require.NoError(t, err)
	assert.Equal(t, []string{"near", "a-tie", "b-tie", "far"}, ids(hits))
	for i := 1; i < len(hits); i++ {
		assert.LessOrEqual(t, hits[i-1].Distance, hits[i].Distance)
	}
}

func TestMemoryIndex_NonPositiveRadiusIsEmpty(t *testing.T) {
	ctx := context.Background()
	ix := NewMemoryIndex()
	require.NoError(t, ix.Upsert(ctx, "u1", Point{0, 0}))

	for _, r := range []float64{0, -1, -1e9} {
		hits, err := ix.Query(ctx, Point{0, 0}, r)
		require.NoError(t, err)
		assert.Empty(t, hits)
	}
}

func TestMemoryIndex_UpsertReplacesAndRemoveHides(t *testing.T) {
	ctx := context.Background()
	ix := NewMemoryIndex()

	require.NoError(t, ix.Upsert(ctx, "u1", Point{0, 0.001}))
	require.NoError(t, ix.Upsert(ctx, "u1", Point{50, 50}))
	assert.Equal(t, 1, ix.Len())

	hits, err := ix.Query(ctx, Point{0, 0}, 1000)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = ix.Query(ctx, Point{50, 50}, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, ids(hits))

	require.NoError(t, ix.Remove(ctx, "u1"))
	require.NoError(t, ix.Remove(ctx, "unknown"))
	hits, err = ix.Query(ctx, Point{50, 50}, 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestMemoryIndex_RejectsInvalidCoordinates(t *testing.T) {
	ix := NewMemoryIndex()
	err := ix.Upsert(context.Background(), "u1", Point{200, 0})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, 0, ix.Len())
}

func TestMemoryIndex_AntimeridianNeighbours(t *testing.T) {
	ctx := context.Background()
	ix := NewMemoryIndex()
	require.NoError(t, ix.Upsert(ctx, "east", Point{179.999, 0}))
	require.NoError(t, ix.Upsert(ctx, "west", Point{-179.998, 0}))

	hits, err := ix.Query(ctx, Point{180, 0}, 500)
	require.NoError(t, err)
	assert.Equal(t, []string{"east", "west"}, ids(hits))
}

func TestMemoryIndex_ConcurrentUpsertAndQuery(t *testing.T) {
	ctx := context.Background()
	ix := NewMemoryIndex()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(2)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				_ = ix.Upsert(ctx, fmt.Sprintf("u-%d-%d", w, i%20), Point{float64(i%10) / 1000, 0})
			}
		}(w)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				hits, err := ix.Query(ctx, Point{0, 0}, 5000)
				assert.NoError(t, err)
				for j := 1; j < len(hits); j++ {
					assert.LessOrEqual(t, hits[j-1].Distance, hits[j].Distance)
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 8*20, ix.Len())
}
