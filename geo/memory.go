package geo

import (
	"context"
	"math"
	"sync"
)

// MemoryIndex is an in-process Index. Writers take the write lock, queries
// scan under the read lock so they never observe a half-written entry.
type MemoryIndex struct {
	mu     sync.RWMutex
	points map[string]Point
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{points: make(map[string]Point)}
}

func (ix *MemoryIndex) Upsert(_ context.Context, userID string, p Point) error {
	if err := p.Validate(); err != nil {
		return err
	}
	ix.mu.Lock()
	ix.points[userID] = p
	ix.mu.Unlock()
	return nil
}

func (ix *MemoryIndex) Query(_ context.Context, center Point, radiusMeters float64) ([]Hit, error) {
	if radiusMeters <= 0 || math.IsNaN(radiusMeters) {
		return []Hit{}, nil
	}
	if err := center.Validate(); err != nil {
		return nil, err
	}

	// meridional separation is a lower bound of the great-circle distance
	maxDLat := radiusMeters / EarthRadiusMeters * 180 / math.Pi

	ix.mu.RLock()
	hits := make([]Hit, 0, 16)
	for id, p := range ix.points {
		if math.Abs(p.Lat-center.Lat) > maxDLat {
			continue
		}
		if d := Distance(center, p); d <= radiusMeters {
			hits = append(hits, Hit{UserID: id, Distance: d})
		}
	}
	ix.mu.RUnlock()

	sortHits(hits)
	return hits, nil
}

func (ix *MemoryIndex) Remove(_ context.Context, userID string) error {
	ix.mu.Lock()
	delete(ix.points, userID)
	ix.mu.Unlock()
	return nil
}

// Len reports the number of indexed users.
func (ix *MemoryIndex) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.points)
}
