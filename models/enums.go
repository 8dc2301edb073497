package models

// Activity is a sport tag shared by user preferences and events.
type Activity string

const (
	ActivityRunning    Activity = "running"
	ActivityCycling    Activity = "cycling"
	ActivityGym        Activity = "gym"
	ActivityYoga       Activity = "yoga"
	ActivitySwimming   Activity = "swimming"
	ActivityHiking     Activity = "hiking"
	ActivityTennis     Activity = "tennis"
	ActivityBasketball Activity = "basketball"
	ActivityFootball   Activity = "football"
	ActivityVolleyball Activity = "volleyball"
	ActivitySkiing     Activity = "skiing"
	ActivityOther      Activity = "other"
)

var activities = map[Activity]bool{
	ActivityRunning: true, ActivityCycling: true, ActivityGym: true, ActivityYoga: true,
	ActivitySwimming: true, ActivityHiking: true, ActivityTennis: true, ActivityBasketball: true,
	ActivityFootball: true, ActivityVolleyball: true, ActivitySkiing: true, ActivityOther: true,
}

func (a Activity) Valid() bool { return activities[a] }

// ParseActivities keeps the known tags of raw, deduplicated, in input order.
// Unknown values are dropped rather than rejected.
func ParseActivities(raw []string) []Activity {
	out := make([]Activity, 0, len(raw))
	seen := make(map[Activity]bool, len(raw))
	for _, r := range raw {
		a := Activity(r)
		if !a.Valid() || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}

// SkillLevel is used by both users and events; each side accepts a different subset.
type SkillLevel string

const (
	SkillBeginner     SkillLevel = "beginner"
	SkillIntermediate SkillLevel = "intermediate"
	SkillAdvanced     SkillLevel = "advanced"
	SkillProfessional SkillLevel = "professional"
	SkillAllLevels    SkillLevel = "all_levels"
)

func (s SkillLevel) validForUser() bool {
	switch s {
	case SkillBeginner, SkillIntermediate, SkillAdvanced, SkillProfessional:
		return true
	}
	return false
}

func (s SkillLevel) validForEvent() bool {
	switch s {
	case SkillBeginner, SkillIntermediate, SkillAdvanced, SkillAllLevels:
		return true
	}
	return false
}

type Availability string

const (
	WeekdayMorning   Availability = "weekday_morning"
	WeekdayAfternoon Availability = "weekday_afternoon"
	WeekdayEvening   Availability = "weekday_evening"
	WeekendMorning   Availability = "weekend_morning"
	WeekendAfternoon Availability = "weekend_afternoon"
	WeekendEvening   Availability = "weekend_evening"
)

func (a Availability) Valid() bool {
	switch a {
	case WeekdayMorning, WeekdayAfternoon, WeekdayEvening, WeekendMorning, WeekendAfternoon, WeekendEvening:
		return true
	}
	return false
}

// Status is the event lifecycle state.
type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusOngoing   Status = "ongoing"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusUpcoming, StatusOngoing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

var (
	ageRanges = map[string]bool{"18-25": true, "26-35": true, "36-45": true, "46-55": true, "56+": true}
	genders   = map[string]bool{"male": true, "female": true, "non-binary": true, "prefer_not_to_say": true}
)
