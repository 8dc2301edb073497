package utils

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const (
	EventsListKeyPrefix = "cache:events:list:"
	EventsItemKeyPrefix = "cache:events:item:"
)

// CacheInvalidator drops cached GET responses after event writes.
type CacheInvalidator struct{ rdb *redis.Client }

func NewCacheInvalidator(rdb *redis.Client) *CacheInvalidator { return &CacheInvalidator{rdb} }

// PurgeEventsList removes every cached variant of the event listing.
func (ci *CacheInvalidator) PurgeEventsList(ctx context.Context) error {
	iter := ci.rdb.Scan(ctx, 0, EventsListKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := ci.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// PurgeEventItem removes the cached detail response of one event.
func (ci *CacheInvalidator) PurgeEventItem(ctx context.Context, id string) error {
	return ci.rdb.Del(ctx, EventsItemKeyPrefix+id).Err()
}

// PurgeEvent drops the listing and the detail entry of id.
func (ci *CacheInvalidator) PurgeEvent(ctx context.Context, id string) error {
	if err := ci.PurgeEventsList(ctx); err != nil {
		return err
	}
	return ci.PurgeEventItem(ctx, id)
}
