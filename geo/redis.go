package geo

import (
	"context"
	"fmt"
	"math"

	"github.com/redis/go-redis/v9"

	"workouttribe/apperr"
)

// Redis GEO commands only accept the Web Mercator latitude range.
const redisMaxLat = 85.05112878

// RedisIndex delegates the radius predicate to Redis GEO sorted sets.
type RedisIndex struct {
	rdb redis.UniversalClient
	key string
}

func NewRedisIndex(rdb redis.UniversalClient, key string) *RedisIndex {
	if key == "" {
		key = "geo:users"
	}
	return &RedisIndex{rdb: rdb, key: key}
}

func (ix *RedisIndex) Upsert(ctx context.Context, userID string, p Point) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if math.Abs(p.Lat) > redisMaxLat {
		return apperr.Invalid("latitude", "must be within [-%v, %v] for the redis index", redisMaxLat, redisMaxLat)
	}
	err := ix.rdb.GeoAdd(ctx, ix.key, &redis.GeoLocation{
		Name:      userID,
		Longitude: p.Lng,
		Latitude:  p.Lat,
	}).Err()
	if err != nil {
		return fmt.Errorf("geoadd %s: %w", userID, err)
	}
	return nil
}

func (ix *RedisIndex) Query(ctx context.Context, center Point, radiusMeters float64) ([]Hit, error) {
	if radiusMeters <= 0 || math.IsNaN(radiusMeters) {
		return []Hit{}, nil
	}
	if err := center.Validate(); err != nil {
		return nil, err
	}

	locs, err := ix.rdb.GeoRadius(ctx, ix.key, center.Lng, center.Lat, &redis.GeoRadiusQuery{
		Radius:   radiusMeters,
		Unit:     "m",
		WithDist: true,
		Sort:     "ASC",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("georadius: %w", err)
	}

	hits := make([]Hit, 0, len(locs))
	for _, l := range locs {
		hits = append(hits, Hit{UserID: l.Name, Distance: l.Dist})
	}
	sortHits(hits)
	return hits, nil
}

func (ix *RedisIndex) Remove(ctx context.Context, userID string) error {
	if err := ix.rdb.ZRem(ctx, ix.key, userID).Err(); err != nil {
		return fmt.Errorf("zrem %s: %w", userID, err)
	}
	return nil
}
