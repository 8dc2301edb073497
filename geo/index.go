package geo

import "context"

// Index maps user ids to their current position. It is a derived view over
// the user directory and is never authoritative on its own.
type Index interface {
	// Upsert inserts or replaces the position of userID.
	Upsert(ctx context.Context, userID string, p Point) error
	// Query returns every entry within radiusMeters of center, nearest first,
	// ties broken by user id. A radius <= 0 yields an empty result.
	Query(ctx context.Context, center Point, radiusMeters float64) ([]Hit, error)
	// Remove deletes the entry for userID. Removing an unknown id is a no-op.
	Remove(ctx context.Context, userID string) error
}
