package models

import (
	"regexp"
	"slices"
	"strings"
	"time"

	"workouttribe/apperr"
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

type User struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Email          string      `json:"email"`
	Password       string      `json:"-"` // bcrypt hash
	ProfilePicture string      `json:"profilePicture,omitempty"`
	Bio            string      `json:"bio,omitempty"`
	Location       Location    `json:"location"`
	Preferences    Preferences `json:"preferences"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

type Preferences struct {
	Activities   []Activity     `json:"activities"`
	SkillLevel   SkillLevel     `json:"skillLevel"`
	Availability []Availability `json:"availability"`
	AgeRange     string         `json:"ageRange,omitempty"`
	Gender       string         `json:"gender,omitempty"`
}

// Validate checks the profile fields. The password hash is not inspected here.
func (u *User) Validate() error {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = NormalizeEmail(u.Email)
	u.Bio = strings.TrimSpace(u.Bio)

	if u.Name == "" {
		return apperr.Invalid("name", "is required")
	}
	if !emailPattern.MatchString(u.Email) {
		return apperr.Invalid("email", "must be a valid email address")
	}
	if len(u.Bio) > 500 {
		return apperr.Invalid("bio", "cannot be more than 500 characters")
	}
	if err := u.Location.Validate(); err != nil {
		return err
	}
	u.Location.normalize()
	return u.Preferences.Validate()
}

// Validate rejects an empty activity set and any tag outside the enums.
// Duplicates are collapsed since preferences are sets.
func (p *Preferences) Validate() error {
	if len(p.Activities) == 0 {
		return apperr.Invalid("preferences.activities", "select at least one activity")
	}
	for _, a := range p.Activities {
		if !a.Valid() {
			return apperr.Invalid("preferences.activities", "unknown activity %q", a)
		}
	}
	p.Activities = dedupe(p.Activities)

	if !p.SkillLevel.validForUser() {
		return apperr.Invalid("preferences.skillLevel", "unknown skill level %q", p.SkillLevel)
	}
	for _, a := range p.Availability {
		if !a.Valid() {
			return apperr.Invalid("preferences.availability", "unknown availability %q", a)
		}
	}
	p.Availability = dedupe(p.Availability)

	if p.AgeRange != "" && !ageRanges[p.AgeRange] {
		return apperr.Invalid("preferences.ageRange", "unknown age range %q", p.AgeRange)
	}
	if p.Gender != "" && !genders[p.Gender] {
		return apperr.Invalid("preferences.gender", "unknown gender %q", p.Gender)
	}
	return nil
}

// NormalizeEmail is the form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SharesActivity reports whether the user's activity set intersects filter.
// An empty filter matches everybody.
func (u User) SharesActivity(filter []Activity) bool {
	if len(filter) == 0 {
		return true
	}
	for _, a := range u.Preferences.Activities {
		if slices.Contains(filter, a) {
			return true
		}
	}
	return false
}

func dedupe[T comparable](in []T) []T {
	out := make([]T, 0, len(in))
	seen := make(map[T]bool, len(in))
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
