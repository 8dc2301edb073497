// Package events owns event records and their participant rosters.
//
// Every mutation of one event runs as a load-modify-save under that event's
// lock, so join/leave/update/delete on the same id are serialized while
// different ids proceed independently. The repository's version check backs
// this up if another process writes the same record.
package events

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"workouttribe/apperr"
	"workouttribe/auth"
	"workouttribe/models"
	"workouttribe/utils"
)

type Store struct {
	repo  models.EventRepository
	locks *utils.KeyedMutex
	pub   Publisher
	log   zerolog.Logger
	now   func() time.Time
}

type Option func(*Store)

func WithPublisher(p Publisher) Option { return func(s *Store) { s.pub = p } }

func WithLogger(l zerolog.Logger) Option { return func(s *Store) { s.log = l } }

func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

func NewStore(repo models.EventRepository, opts ...Option) *Store {
	s := &Store{
		repo:  repo,
		locks: utils.NewKeyedMutex(),
		pub:   NopPublisher(),
		log:   zerolog.Nop(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates in and stores a new upcoming event with an empty roster.
func (s *Store) Create(ctx context.Context, creatorID string, in models.EventInput) (models.Event, error) {
	if creatorID == "" {
		return models.Event{}, fmt.Errorf("create event: %w", apperr.ErrUnauthorized)
	}
	if err := in.Validate(); err != nil {
		return models.Event{}, err
	}

	now := s.now().UTC()
	e := models.Event{
		ID:           uuid.NewString(),
		Title:        in.Title,
		Description:  in.Description,
		Activity:     in.Activity,
		SkillLevel:   in.SkillLevel,
		CreatorID:    creatorID,
		Location:     in.Location,
		DateTime:     in.DateTime.UTC(),
		Duration:     in.Duration,
		Capacity:     in.Capacity,
		Participants: []string{},
		Status:       models.StatusUpcoming,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Save(ctx, &e); err != nil {
		return models.Event{}, err
	}

	s.log.Info().Str("event", e.ID).Str("creator", creatorID).Int("capacity", e.Capacity).Msg("event created")
	s.publish(ctx, ChangeCreated, creatorID, e)
	return e, nil
}

func (s *Store) Get(ctx context.Context, eventID string) (models.Event, error) {
	return s.repo.Load(ctx, eventID)
}

// List returns all events ordered by scheduled time.
func (s *Store) List(ctx context.Context) ([]models.Event, error) {
	return s.repo.List(ctx)
}

// Join adds userID to the roster. A repeated join is always ErrAlreadyJoined,
// even when the event has filled up since.
func (s *Store) Join(ctx context.Context, eventID, userID string) (models.Event, error) {
	e, err := s.mutate(ctx, eventID, func(e *models.Event) error {
		if e.HasParticipant(userID) {
			return fmt.Errorf("user %s in event %s: %w", userID, e.ID, apperr.ErrAlreadyJoined)
		}
		if e.IsFull() {
			return fmt.Errorf("event %s has %d/%d: %w", e.ID, len(e.Participants), e.Capacity, apperr.ErrFull)
		}
		e.Participants = append(e.Participants, userID)
		return nil
	})
	if err != nil {
		return models.Event{}, err
	}

	s.log.Debug().Str("event", eventID).Str("user", userID).Int("participants", len(e.Participants)).Msg("joined")
	s.publish(ctx, ChangeJoined, userID, e)
	return e, nil
}

// Leave removes userID from the roster. The creator may leave too; that does
// not change who the creator is.
func (s *Store) Leave(ctx context.Context, eventID, userID string) (models.Event, error) {
	e, err := s.mutate(ctx, eventID, func(e *models.Event) error {
		i := slices.Index(e.Participants, userID)
		if i < 0 {
			return fmt.Errorf("user %s in event %s: %w", userID, e.ID, apperr.ErrNotAParticipant)
		}
		e.Participants = slices.Delete(e.Participants, i, i+1)
		return nil
	})
	if err != nil {
		return models.Event{}, err
	}

	s.log.Debug().Str("event", eventID).Str("user", userID).Int("participants", len(e.Participants)).Msg("left")
	s.publish(ctx, ChangeLeft, userID, e)
	return e, nil
}

// Update applies patch on behalf of callerID, who must be the creator.
func (s *Store) Update(ctx context.Context, eventID, callerID string, patch models.EventPatch) (models.Event, error) {
	e, err := s.mutate(ctx, eventID, func(e *models.Event) error {
		if err := auth.RequireOwner(e.CreatorID, callerID); err != nil {
			return err
		}
		return e.Apply(patch)
	})
	if err != nil {
		return models.Event{}, err
	}

	s.log.Info().Str("event", eventID).Str("status", string(e.Status)).Int64("version", e.Version).Msg("event updated")
	s.publish(ctx, ChangeUpdated, callerID, e)
	return e, nil
}

// Delete removes the event and its roster. Only the creator may delete.
func (s *Store) Delete(ctx context.Context, eventID, callerID string) error {
	unlock := s.locks.Lock(eventID)
	e, err := s.repo.Load(ctx, eventID)
	if err == nil {
		err = auth.RequireOwner(e.CreatorID, callerID)
	}
	if err == nil {
		err = s.repo.Delete(ctx, eventID)
	}
	unlock()
	if err != nil {
		return err
	}

	s.log.Info().Str("event", eventID).Msg("event deleted")
	e.Participants = nil
	s.publish(ctx, ChangeDeleted, callerID, e)
	return nil
}

// mutate serializes a read-modify-write on one event. fn runs on a private
// copy; nothing is saved when it fails.
func (s *Store) mutate(ctx context.Context, eventID string, fn func(*models.Event) error) (models.Event, error) {
	unlock := s.locks.Lock(eventID)
	defer unlock()

	e, err := s.repo.Load(ctx, eventID)
	if err != nil {
		return models.Event{}, err
	}
	if err := fn(&e); err != nil {
		return models.Event{}, err
	}
	e.UpdatedAt = s.now().UTC()
	if err := s.repo.Save(ctx, &e); err != nil {
		return models.Event{}, err
	}
	return e, nil
}

// publish runs after the change is committed; a failed publish is logged
// and does not undo the operation.
func (s *Store) publish(ctx context.Context, kind ChangeKind, actorID string, e models.Event) {
	err := s.pub.Publish(ctx, Change{
		Kind:         kind,
		EventID:      e.ID,
		ActorID:      actorID,
		Participants: len(e.Participants),
		Capacity:     e.Capacity,
		Status:       string(e.Status),
		Version:      e.Version,
		At:           s.now().UTC(),
	})
	if err != nil {
		s.log.Warn().Err(err).Str("event", e.ID).Str("kind", string(kind)).Msg("publish change failed")
	}
}
