package models

import (
	"slices"
	"strings"
	"time"

	"workouttribe/apperr"
)

const (
	MinCapacity = 2
	MaxCapacity = 100
	MinDuration = 15 // minutes
)

// Event is a group activity with a capacity-bounded participant set.
// Participants never contains duplicates and never exceeds Capacity.
type Event struct {
	ID           string     `json:"id" bson:"_id"`
	Title        string     `json:"title" bson:"title"`
	Description  string     `json:"description" bson:"description"`
	Activity     Activity   `json:"activity" bson:"activity"`
	SkillLevel   SkillLevel `json:"skillLevel" bson:"skillLevel"`
	CreatorID    string     `json:"creator" bson:"creator"`
	Location     Location   `json:"location" bson:"location"`
	DateTime     time.Time  `json:"dateTime" bson:"dateTime"`
	Duration     int        `json:"duration" bson:"duration"`
	Capacity     int        `json:"maxParticipants" bson:"maxParticipants"`
	Participants []string   `json:"participants" bson:"participants"`
	Status       Status     `json:"status" bson:"status"`
	Version      int64      `json:"version" bson:"version"`
	CreatedAt    time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt" bson:"updatedAt"`
}

func (e Event) HasParticipant(userID string) bool {
	return slices.Contains(e.Participants, userID)
}

func (e Event) IsFull() bool { return len(e.Participants) >= e.Capacity }

// Clone returns a copy that shares no slices with e.
func (e Event) Clone() Event {
	e.Participants = slices.Clone(e.Participants)
	e.Location.Coordinates = slices.Clone(e.Location.Coordinates)
	if e.Participants == nil {
		e.Participants = []string{}
	}
	return e
}

// EventInput is the create payload.
type EventInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Activity    Activity   `json:"activity"`
	SkillLevel  SkillLevel `json:"skillLevel"`
	Location    Location   `json:"location"`
	DateTime    time.Time  `json:"dateTime"`
	Duration    int        `json:"duration"`
	Capacity    int        `json:"maxParticipants"`
}

func (in *EventInput) Validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := validateTitle(in.Title); err != nil {
		return err
	}
	if err := validateDescription(in.Description); err != nil {
		return err
	}
	if !in.Activity.Valid() {
		return apperr.Invalid("activity", "unknown activity %q", in.Activity)
	}
	if !in.SkillLevel.validForEvent() {
		return apperr.Invalid("skillLevel", "unknown skill level %q", in.SkillLevel)
	}
	if err := validateEventLocation(in.Location); err != nil {
		return err
	}
	if in.DateTime.IsZero() {
		return apperr.Invalid("dateTime", "is required")
	}
	if in.Duration < MinDuration {
		return apperr.Invalid("duration", "must be at least %d minutes", MinDuration)
	}
	if in.Capacity < MinCapacity || in.Capacity > MaxCapacity {
		return apperr.Invalid("maxParticipants", "must be between %d and %d", MinCapacity, MaxCapacity)
	}
	in.Location.normalize()
	return nil
}

// EventPatch is a partial update. A nil field leaves the event unchanged.
type EventPatch struct {
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	Activity    *Activity      `json:"activity"`
	SkillLevel  *SkillLevel    `json:"skillLevel"`
	Location    *LocationPatch `json:"location"`
	DateTime    *time.Time     `json:"dateTime"`
	Duration    *int           `json:"duration"`
	Capacity    *int           `json:"maxParticipants"`
	Status      *Status        `json:"status"`
}

// Apply validates p against e and applies it. On error e is left untouched.
// An invalid status rejects the whole patch.
func (e *Event) Apply(p EventPatch) error {
	next := e.Clone()

	if p.Title != nil {
		next.Title = strings.TrimSpace(*p.Title)
		if err := validateTitle(next.Title); err != nil {
			return err
		}
	}
	if p.Description != nil {
		next.Description = strings.TrimSpace(*p.Description)
		if err := validateDescription(next.Description); err != nil {
			return err
		}
	}
	if p.Activity != nil {
		if !p.Activity.Valid() {
			return apperr.Invalid("activity", "unknown activity %q", *p.Activity)
		}
		next.Activity = *p.Activity
	}
	if p.SkillLevel != nil {
		if !p.SkillLevel.validForEvent() {
			return apperr.Invalid("skillLevel", "unknown skill level %q", *p.SkillLevel)
		}
		next.SkillLevel = *p.SkillLevel
	}
	if p.Location != nil {
		if p.Location.Coordinates != nil {
			next.Location.Coordinates = slices.Clone(p.Location.Coordinates)
		}
		if p.Location.Address != nil {
			next.Location.Address = strings.TrimSpace(*p.Location.Address)
		}
		if p.Location.City != nil {
			next.Location.City = strings.TrimSpace(*p.Location.City)
		}
		if err := validateEventLocation(next.Location); err != nil {
			return err
		}
		next.Location.normalize()
	}
	if p.DateTime != nil {
		if p.DateTime.IsZero() {
			return apperr.Invalid("dateTime", "is required")
		}
		next.DateTime = *p.DateTime
	}
	if p.Duration != nil {
		if *p.Duration < MinDuration {
			return apperr.Invalid("duration", "must be at least %d minutes", MinDuration)
		}
		next.Duration = *p.Duration
	}
	if p.Capacity != nil {
		c := *p.Capacity
		if c < MinCapacity || c > MaxCapacity {
			return apperr.Invalid("maxParticipants", "must be between %d and %d", MinCapacity, MaxCapacity)
		}
		if c < len(next.Participants) {
			return apperr.Invalid("maxParticipants", "cannot be below the %d current participants", len(next.Participants))
		}
		next.Capacity = c
	}
	if p.Status != nil {
		if !p.Status.Valid() {
			return apperr.Invalid("status", "unknown status %q", *p.Status)
		}
		next.Status = *p.Status
	}

	*e = next
	return nil
}

func validateTitle(s string) error {
	if s == "" {
		return apperr.Invalid("title", "is required")
	}
	if len([]rune(s)) > 100 {
		return apperr.Invalid("title", "cannot be more than 100 characters")
	}
	return nil
}

func validateDescription(s string) error {
	if s == "" {
		return apperr.Invalid("description", "is required")
	}
	if len([]rune(s)) > 1000 {
		return apperr.Invalid("description", "cannot be more than 1000 characters")
	}
	return nil
}

func validateEventLocation(l Location) error {
	if err := l.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(l.Address) == "" {
		return apperr.Invalid("location.address", "is required")
	}
	if strings.TrimSpace(l.City) == "" {
		return apperr.Invalid("location.city", "is required")
	}
	return nil
}
