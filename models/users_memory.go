package models

import (
	"context"
	"slices"
	"sync"

	"workouttribe/apperr"
)

// MemoryUserRepository is the in-process UserRepository used for local runs and tests.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[string]User
	byEmail map[string]string
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{byID: make(map[string]User), byEmail: make(map[string]string)}
}

func cloneUser(u User) User {
	u.Location.Coordinates = slices.Clone(u.Location.Coordinates)
	u.Preferences.Activities = slices.Clone(u.Preferences.Activities)
	u.Preferences.Availability = slices.Clone(u.Preferences.Availability)
	return u
}

func (r *MemoryUserRepository) Load(_ context.Context, id string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return User{}, apperr.NotFound("user", id)
	}
	return cloneUser(u), nil
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return User{}, apperr.NotFound("user", email)
	}
	return cloneUser(r.byID[id]), nil
}

func (r *MemoryUserRepository) Save(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if owner, ok := r.byEmail[u.Email]; ok && owner != u.ID {
		return apperr.Invalid("email", "is already registered")
	}
	if prev, ok := r.byID[u.ID]; ok && prev.Email != u.Email {
		delete(r.byEmail, prev.Email)
	}
	r.byID[u.ID] = cloneUser(*u)
	r.byEmail[u.Email] = u.ID
	return nil
}

func (r *MemoryUserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return apperr.NotFound("user", id)
	}
	delete(r.byEmail, u.Email)
	delete(r.byID, id)
	return nil
}

func (r *MemoryUserRepository) FindMatching(_ context.Context, ids []string, activities []Activity) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]User, 0, len(ids))
	for _, id := range ids {
		u, ok := r.byID[id]
		if ok && u.SharesActivity(activities) {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

func (r *MemoryUserRepository) List(_ context.Context) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, cloneUser(u))
	}
	return out, nil
}
