package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workouttribe/apperr"
	"workouttribe/geo"
)

func validUser() User {
	return User{
		ID:       "u-1",
		Name:     " Mia ",
		Email:    "Mia@Example.com",
		Location: NewLocation(geo.Point{Lng: 0, Lat: 0}, "", ""),
		Preferences: Preferences{
			Activities:   []Activity{ActivityRunning, ActivityYoga, ActivityRunning},
			SkillLevel:   SkillIntermediate,
			Availability: []Availability{WeekendMorning},
		},
	}
}

func TestUserValidate_Normalizes(t *testing.T) {
	u := validUser()
	require.NoError(t, u.Validate())
	assert.Equal(t, "Mia", u.Name)
	assert.Equal(t, "mia@example.com", u.Email)
	assert.Equal(t, []Activity{ActivityRunning, ActivityYoga}, u.Preferences.Activities)
}

func TestUserValidate_Rejects(t *testing.T) {
	tests := map[string]func(*User){
		"empty activities":  func(u *User) { u.Preferences.Activities = nil },
		"unknown activity":  func(u *User) { u.Preferences.Activities = []Activity{"chess"} },
		"event-only skill":  func(u *User) { u.Preferences.SkillLevel = SkillAllLevels },
		"bad availability":  func(u *User) { u.Preferences.Availability = []Availability{"midnight"} },
		"bad email":         func(u *User) { u.Email = "nope" },
		"missing name":      func(u *User) { u.Name = "" },
		"out of range lng":  func(u *User) { u.Location.Coordinates = []float64{-190, 0} },
		"missing location":  func(u *User) { u.Location.Coordinates = nil },
		"unknown age range": func(u *User) { u.Preferences.AgeRange = "99+" },
	}
	for name, edit := range tests {
		t.Run(name, func(t *testing.T) {
			u := validUser()
			edit(&u)
			assert.ErrorIs(t, u.Validate(), apperr.ErrValidation)
		})
	}
}

func TestParseActivities_DropsUnknown(t *testing.T) {
	got := ParseActivities([]string{"running", "chess", "yoga", "running", ""})
	assert.Equal(t, []Activity{ActivityRunning, ActivityYoga}, got)
	assert.Empty(t, ParseActivities([]string{"bogus"}))
}

func TestSharesActivity(t *testing.T) {
	u := validUser()
	assert.True(t, u.SharesActivity(nil))
	assert.True(t, u.SharesActivity([]Activity{ActivityCycling, ActivityYoga}))
	assert.False(t, u.SharesActivity([]Activity{ActivityCycling}))
}
