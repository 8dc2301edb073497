package models

import "context"

// ===== Events =====

// EventRepository persists whole event records by id.
//
// Save inserts when e.Version is 0, otherwise it writes only if the stored
// version still equals e.Version and fails with apperr.ErrConflict if not.
// On success e.Version holds the new stored version.
type EventRepository interface {
	Load(ctx context.Context, id string) (Event, error)
	Save(ctx context.Context, e *Event) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Event, error)
}

// ===== Users =====

type UserRepository interface {
	Load(ctx context.Context, id string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	// Save inserts or replaces u. A second account with the same email is a validation error.
	Save(ctx context.Context, u *User) error
	Delete(ctx context.Context, id string) error
	// FindMatching returns the users among ids whose activities intersect
	// activities. Empty activities means no filter. Order is unspecified.
	FindMatching(ctx context.Context, ids []string, activities []Activity) ([]User, error)
	List(ctx context.Context) ([]User, error)
}
