package models

import (
	"context"
	"slices"
	"sync"

	"workouttribe/apperr"
)

// MemoryEventRepository keeps events in process. Records are copied on the
// way in and out so callers never share slices with the store.
type MemoryEventRepository struct {
	mu    sync.RWMutex
	items map[string]Event
}

func NewMemoryEventRepository() *MemoryEventRepository {
	return &MemoryEventRepository{items: make(map[string]Event)}
}

func (r *MemoryEventRepository) Load(_ context.Context, id string) (Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.items[id]
	if !ok {
		return Event{}, apperr.NotFound("event", id)
	}
	return e.Clone(), nil
}

func (r *MemoryEventRepository) Save(_ context.Context, e *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, exists := r.items[e.ID]
	switch {
	case e.Version == 0 && exists:
		return apperr.ErrConflict
	case e.Version != 0 && (!exists || cur.Version != e.Version):
		return apperr.ErrConflict
	}
	e.Version++
	r.items[e.ID] = e.Clone()
	return nil
}

func (r *MemoryEventRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return apperr.NotFound("event", id)
	}
	delete(r.items, id)
	return nil
}

func (r *MemoryEventRepository) List(_ context.Context) ([]Event, error) {
	r.mu.RLock()
	out := make([]Event, 0, len(r.items))
	for _, e := range r.items {
		out = append(out, e.Clone())
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b Event) int {
		if c := a.DateTime.Compare(b.DateTime); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return out, nil
}
