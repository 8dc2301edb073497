// Package directory owns user records and keeps the spatial index in step
// with every position change.
package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"workouttribe/apperr"
	"workouttribe/geo"
	"workouttribe/models"
	"workouttribe/utils"
)

const minPasswordLen = 6

type Directory struct {
	repo  models.UserRepository
	index geo.Index
	locks *utils.KeyedMutex
	log   zerolog.Logger
	now   func() time.Time
}

type Option func(*Directory)

func WithLogger(l zerolog.Logger) Option { return func(d *Directory) { d.log = l } }

func WithClock(now func() time.Time) Option { return func(d *Directory) { d.now = now } }

func New(repo models.UserRepository, index geo.Index, opts ...Option) *Directory {
	d := &Directory{repo: repo, index: index, locks: utils.NewKeyedMutex(), log: zerolog.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registration is the sign-up payload.
type Registration struct {
	Name           string             `json:"name"`
	Email          string             `json:"email"`
	Password       string             `json:"password"`
	ProfilePicture string             `json:"profilePicture"`
	Bio            string             `json:"bio"`
	Location       models.Location    `json:"location"`
	Preferences    models.Preferences `json:"preferences"`
}

// PreferencesPatch merges into the stored preferences; nil fields are kept.
type PreferencesPatch struct {
	Activities   []models.Activity     `json:"activities"`
	SkillLevel   *models.SkillLevel    `json:"skillLevel"`
	Availability []models.Availability `json:"availability"`
	AgeRange     *string               `json:"ageRange"`
	Gender       *string               `json:"gender"`
}

type ProfilePatch struct {
	Name           *string               `json:"name"`
	Email          *string               `json:"email"`
	Password       *string               `json:"password"`
	ProfilePicture *string               `json:"profilePicture"`
	Bio            *string               `json:"bio"`
	Location       *models.LocationPatch `json:"location"`
	Preferences    *PreferencesPatch     `json:"preferences"`
}

func (d *Directory) Get(ctx context.Context, userID string) (models.User, error) {
	return d.repo.Load(ctx, userID)
}

// FindMatching returns the users among candidateIDs whose activities intersect
// filter. An empty filter keeps every known candidate. Order is unspecified.
func (d *Directory) FindMatching(ctx context.Context, candidateIDs []string, filter []models.Activity) ([]models.User, error) {
	if len(candidateIDs) == 0 {
		return []models.User{}, nil
	}
	return d.repo.FindMatching(ctx, candidateIDs, filter)
}

// Names maps each known id in ids to the user's display name. Unknown ids
// are absent from the result.
func (d *Directory) Names(ctx context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	users, err := d.repo.FindMatching(ctx, ids, nil)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u.Name
	}
	return out, nil
}

// Register creates an account and indexes its position.
func (d *Directory) Register(ctx context.Context, r Registration) (models.User, error) {
	if err := checkPassword(r.Password); err != nil {
		return models.User{}, err
	}
	now := d.now().UTC()
	u := models.User{
		ID:             uuid.NewString(),
		Name:           r.Name,
		Email:          r.Email,
		ProfilePicture: r.ProfilePicture,
		Bio:            r.Bio,
		Location:       r.Location,
		Preferences:    r.Preferences,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := u.Validate(); err != nil {
		return models.User{}, err
	}
	if _, err := d.repo.FindByEmail(ctx, u.Email); err == nil {
		return models.User{}, apperr.Invalid("email", "is already registered")
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return models.User{}, err
	}

	hash, err := utils.HashPassword(r.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	u.Password = hash

	// The index goes first: it may refuse a position the record would accept
	// (the redis backend stops at +-85.05 degrees), and nothing is stored then.
	if err := d.index.Upsert(ctx, u.ID, u.Location.Point()); err != nil {
		return models.User{}, fmt.Errorf("index user %s: %w", u.ID, err)
	}
	if err := d.repo.Save(ctx, &u); err != nil {
		if rerr := d.index.Remove(ctx, u.ID); rerr != nil {
			d.log.Error().Err(rerr).Str("user", u.ID).Msg("index entry left behind by failed registration")
		}
		return models.User{}, err
	}

	d.log.Info().Str("user", u.ID).Msg("user registered")
	return u, nil
}

// Authenticate checks email and password. Unknown email and wrong password
// are both ErrUnauthorized.
func (d *Directory) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	u, err := d.repo.FindByEmail(ctx, models.NormalizeEmail(email))
	if errors.Is(err, apperr.ErrNotFound) {
		return models.User{}, fmt.Errorf("invalid email or password: %w", apperr.ErrUnauthorized)
	}
	if err != nil {
		return models.User{}, err
	}
	if !utils.CheckPasswordHash(password, u.Password) {
		return models.User{}, fmt.Errorf("invalid email or password: %w", apperr.ErrUnauthorized)
	}
	return u, nil
}

// UpdateProfile merges patch into the stored user. Calls for one user are
// serialized so the index always ends on the stored position: a moved
// position is indexed before the save and put back if the save fails.
func (d *Directory) UpdateProfile(ctx context.Context, userID string, patch ProfilePatch) (models.User, error) {
	unlock := d.locks.Lock(userID)
	defer unlock()

	u, err := d.repo.Load(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	before := u.Location.Point()

	if err := applyProfile(&u, patch); err != nil {
		return models.User{}, err
	}
	if err := u.Validate(); err != nil {
		return models.User{}, err
	}
	if patch.Password != nil {
		hash, err := utils.HashPassword(*patch.Password)
		if err != nil {
			return models.User{}, fmt.Errorf("hash password: %w", err)
		}
		u.Password = hash
	}
	u.UpdatedAt = d.now().UTC()

	after := u.Location.Point()
	moved := after != before
	if moved {
		if err := d.index.Upsert(ctx, u.ID, after); err != nil {
			return models.User{}, fmt.Errorf("index user %s: %w", u.ID, err)
		}
	}
	if err := d.repo.Save(ctx, &u); err != nil {
		if moved {
			if rerr := d.index.Upsert(ctx, u.ID, before); rerr != nil {
				d.log.Error().Err(rerr).Str("user", u.ID).Msg("index not restored after failed profile save")
			}
		}
		return models.User{}, err
	}
	if moved {
		d.log.Debug().Str("user", u.ID).Float64("lng", after.Lng).Float64("lat", after.Lat).Msg("position moved")
	}
	return u, nil
}

// Delete removes the account and its index entry.
func (d *Directory) Delete(ctx context.Context, userID string) error {
	unlock := d.locks.Lock(userID)
	defer unlock()

	if err := d.repo.Delete(ctx, userID); err != nil {
		return err
	}
	return d.index.Remove(ctx, userID)
}

// Warm loads every stored position into the index. It returns the number
// of users indexed.
func (d *Directory) Warm(ctx context.Context) (int, error) {
	users, err := d.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}
	n := 0
	for _, u := range users {
		if err := u.Location.Validate(); err != nil {
			d.log.Warn().Str("user", u.ID).Err(err).Msg("skipping user without a usable location")
			continue
		}
		if err := d.index.Upsert(ctx, u.ID, u.Location.Point()); err != nil {
			return n, fmt.Errorf("index user %s: %w", u.ID, err)
		}
		n++
	}
	d.log.Info().Int("users", n).Msg("spatial index warmed")
	return n, nil
}

func applyProfile(u *models.User, p ProfilePatch) error {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Password != nil {
		if err := checkPassword(*p.Password); err != nil {
			return err
		}
	}
	if p.ProfilePicture != nil {
		u.ProfilePicture = *p.ProfilePicture
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if l := p.Location; l != nil {
		if l.Coordinates != nil {
			u.Location.Coordinates = append([]float64(nil), l.Coordinates...)
		}
		if l.Address != nil {
			u.Location.Address = *l.Address
		}
		if l.City != nil {
			u.Location.City = *l.City
		}
	}
	if pp := p.Preferences; pp != nil {
		if pp.Activities != nil {
			u.Preferences.Activities = pp.Activities
		}
		if pp.SkillLevel != nil {
			u.Preferences.SkillLevel = *pp.SkillLevel
		}
		if pp.Availability != nil {
			u.Preferences.Availability = pp.Availability
		}
		if pp.AgeRange != nil {
			u.Preferences.AgeRange = *pp.AgeRange
		}
		if pp.Gender != nil {
			u.Preferences.Gender = *pp.Gender
		}
	}
	return nil
}

func checkPassword(pw string) error {
	if len(pw) < minPasswordLen {
		return apperr.Invalid("password", "must be at least %d characters", minPasswordLen)
	}
	return nil
}
