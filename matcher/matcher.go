// Package matcher answers "who near me shares my activities".
package matcher

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"workouttribe/geo"
	"workouttribe/models"
)

// MaxResults bounds a single nearby response.
const MaxResults = 20

// Users is the slice of the user directory the matcher reads from.
type Users interface {
	Get(ctx context.Context, userID string) (models.User, error)
	FindMatching(ctx context.Context, candidateIDs []string, filter []models.Activity) ([]models.User, error)
}

type Match struct {
	User           models.User `json:"user"`
	DistanceMeters float64     `json:"distance"`
}

type Matcher struct {
	users Users
	index geo.Index
	log   zerolog.Logger
}

func New(users Users, index geo.Index, log zerolog.Logger) *Matcher {
	return &Matcher{users: users, index: index, log: log}
}

// FindNearby returns users within radiusMeters of the requester's stored
// position, nearest first, ties by id, at most MaxResults. Unknown activity
// tags in filter are ignored; if none are known the filter is not applied.
func (m *Matcher) FindNearby(ctx context.Context, requesterID string, radiusMeters float64, filter []string) ([]Match, error) {
	me, err := m.users.Get(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if !(radiusMeters > 0) {
		return []Match{}, nil
	}

	hits, err := m.index.Query(ctx, me.Location.Point(), radiusMeters)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		if h.UserID != requesterID {
			ids = append(ids, h.UserID)
		}
	}
	if len(ids) == 0 {
		return []Match{}, nil
	}

	users, err := m.users.FindMatching(ctx, ids, models.ParseActivities(filter))
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	out := make([]Match, 0, min(len(byID), MaxResults))
	for _, h := range hits {
		u, ok := byID[h.UserID]
		if !ok || h.UserID == requesterID {
			continue
		}
		out = append(out, Match{User: u, DistanceMeters: h.Distance})
		if len(out) == MaxResults {
			break
		}
	}

	m.log.Debug().
		Str("user", requesterID).
		Float64("radius", radiusMeters).
		Int("hits", len(hits)).
		Int("matches", len(out)).
		Msg("nearby search")
	return out, nil
}
