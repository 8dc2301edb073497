package matcher

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workouttribe/apperr"
	"workouttribe/directory"
	"workouttribe/geo"
	"workouttribe/models"
)

// metersNorth is the latitude offset of roughly m meters at the equator.
func metersNorth(m float64) float64 { return m / 111195.0 }

type fixture struct {
	dir *directory.Directory
	m   *Matcher
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	idx := geo.NewMemoryIndex()
	dir := directory.New(models.NewMemoryUserRepository(), idx)
	return fixture{dir: dir, m: New(dir, idx, zerolog.Nop())}
}

func (f fixture) add(t *testing.T, email string, lat float64, acts ...models.Activity) string {
	t.Helper()
	u, err := f.dir.Register(context.Background(), directory.Registration{
		Name:     email,
		Email:    email,
		Password: "secret1",
		Location: models.NewLocation(geo.Point{Lng: 0, Lat: lat}, "", ""),
		Preferences: models.Preferences{
			Activities: acts,
			SkillLevel: models.SkillIntermediate,
		},
	})
	require.NoError(t, err)
	return u.ID
}

func matchIDs(ms []Match) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.User.ID
	}
	return out
}

func TestFindNearby_RunnersWithinOneKilometer(t *testing.T) {
	f := newFixture(t)
	me := f.add(t, "me@x.io", 0, models.ActivityRunning)
	far := f.add(t, "far@x.io", metersNorth(900), models.ActivityRunning, models.ActivityYoga)
	near := f.add(t, "near@x.io", metersNorth(200), models.ActivityRunning)
	f.add(t, "yogi@x.io", metersNorth(100), models.ActivityYoga)
	f.add(t, "outside@x.io", metersNorth(1500), models.ActivityRunning)

	got, err := f.m.FindNearby(context.Background(), me, 1000, []string{"running"})
	require.NoError(t, err)
	assert.Equal(t, []string{near, far}, matchIDs(got))
	assert.InDelta(t, 200, got[0].DistanceMeters, 1)
	assert.LessOrEqual(t, got[1].DistanceMeters, 1000.0)
}

func TestFindNearby_NoFilterKeepsEveryone(t *testing.T) {
	f := newFixture(t)
	me := f.add(t, "me@x.io", 0, models.ActivityRunning)
	a := f.add(t, "a@x.io", metersNorth(100), models.ActivityYoga)
	b := f.add(t, "b@x.io", metersNorth(300), models.ActivityTennis)

	got, err := f.m.FindNearby(context.Background(), me, 1000, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, matchIDs(got))

	// only unknown tags: the filter is dropped
	got, err = f.m.FindNearby(context.Background(), me, 1000, []string{"chess", ""})
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, matchIDs(got))
}

func TestFindNearby_NonPositiveRadius(t *testing.T) {
	f := newFixture(t)
	me := f.add(t, "me@x.io", 0, models.ActivityRunning)
	f.add(t, "a@x.io", 0, models.ActivityRunning)

	for _, r := range []float64{0, -5} {
		got, err := f.m.FindNearby(context.Background(), me, r, nil)
		require.NoError(t, err)
		assert.Empty(t, got)
	}
}

func TestFindNearby_UnknownRequester(t *testing.T) {
	f := newFixture(t)
	_, err := f.m.FindNearby(context.Background(), "ghost", 1000, nil)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestFindNearby_CapsResults(t *testing.T) {
	f := newFixture(t)
	me := f.add(t, "me@x.io", 0, models.ActivitySwimming)
	var want []string
	for i := 1; i <= MaxResults+5; i++ {
		id := f.add(t, fmt.Sprintf("s%02d@x.io", i), metersNorth(float64(i*10)), models.ActivitySwimming)
		want = append(want, id)
	}

	got, err := f.m.FindNearby(context.Background(), me, 5000, []string{"swimming"})
	require.NoError(t, err)
	assert.Equal(t, want[:MaxResults], matchIDs(got))
}

func TestFindNearby_SamePositionIncludesCoLocatedUsers(t *testing.T) {
	f := newFixture(t)
	me := f.add(t, "me@x.io", 0, models.ActivityGym)
	other := f.add(t, "other@x.io", 0, models.ActivityGym)

	got, err := f.m.FindNearby(context.Background(), me, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{other}, matchIDs(got))
	assert.Zero(t, got[0].DistanceMeters)
}
