package cache

import (
	"context"
	"testing"
	"time"

	"github.com/Domenick1991/parkbooking/internal/domain"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	c := NewRedisCacheWithClient(client, time.Minute, 10*time.Second)
	t.Cleanup(func() { _ = c.Close() })
	return c, srv
}

func testWindow() domain.Window {
	start := time.Date(2030, 5, 21, 10, 0, 0, 0, time.UTC)
	return domain.Window{Start: start, End: start.Add(time.Hour)}
}

func TestRedisCache_SpotsRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	filter := domain.SpotFilter{ParkingLotID: "lot-1"}

	miss, err := c.GetSpots(ctx, filter)
	require.NoError(t, err)
	assert.Nil(t, miss)

	spots := []domain.Spot{{ID: "s1", SpotNumber: "A1", Type: domain.SpotTypeStandard, ParkingLotID: "lot-1"}}
	require.NoError(t, c.SetSpots(ctx, filter, spots))

	got, err := c.GetSpots(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, spots, got)

	other, err := c.GetSpots(ctx, domain.SpotFilter{ParkingLotID: "lot-2"})
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestRedisCache_AvailabilityInvalidation(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	w := testWindow()

	spots := []domain.Spot{{ID: "s1"}, {ID: "s2"}}
	miss, gen, err := c.GetAvailable(ctx, w, domain.SpotFilter{})
	require.NoError(t, err)
	assert.Nil(t, miss)
	assert.Equal(t, int64(0), gen)
	require.NoError(t, c.SetAvailable(ctx, gen, w, domain.SpotFilter{}, spots))

	got, _, err := c.GetAvailable(ctx, w, domain.SpotFilter{})
	require.NoError(t, err)
	assert.Equal(t, spots, got)

	require.NoError(t, c.InvalidateAvailability(ctx))

	got, gen, err = c.GetAvailable(ctx, w, domain.SpotFilter{})
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, int64(1), gen)
}

func TestRedisCache_WriteUnderStaleGenerationIsUnreachable(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	w := testWindow()

	_, gen, err := c.GetAvailable(ctx, w, domain.SpotFilter{})
	require.NoError(t, err)

	// a booking commits while the answer is being computed
	require.NoError(t, c.InvalidateAvailability(ctx))
	require.NoError(t, c.SetAvailable(ctx, gen, w, domain.SpotFilter{}, []domain.Spot{{ID: "s1"}}))

	got, _, err := c.GetAvailable(ctx, w, domain.SpotFilter{})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisCache_EmptyAvailabilityIsAHit(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	w := testWindow()

	require.NoError(t, c.SetAvailable(ctx, 0, w, domain.SpotFilter{}, nil))

	got, _, err := c.GetAvailable(ctx, w, domain.SpotFilter{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRedisCache_AvailabilityExpires(t *testing.T) {
	c, srv := newTestCache(t)
	ctx := context.Background()
	w := testWindow()

	require.NoError(t, c.SetAvailable(ctx, 0, w, domain.SpotFilter{}, []domain.Spot{{ID: "s1"}}))
	srv.FastForward(11 * time.Second)

	got, _, err := c.GetAvailable(ctx, w, domain.SpotFilter{})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisCache_ServerDown(t *testing.T) {
	c, srv := newTestCache(t)
	srv.Close()

	_, _, err := c.GetAvailable(context.Background(), testWindow(), domain.SpotFilter{})
	assert.Error(t, err)
}
