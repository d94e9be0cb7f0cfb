package metrics

import (
	"slices"

	"github.com/hyperengineering/fitplan/internal/onboarding"
)

// RestLabel marks a day without a workout.
const RestLabel = "Rest"

// Weekdays are the day labels of the weekly preview, Monday first.
var Weekdays = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// restPriority lists weekday indices in the order they become rest days.
// The first three spread recovery through the week; later entries are only
// reached with four or more rest days.
var restPriority = []int{2, 4, 6, 1, 5, 3}

// splitPatterns are the workout rotations for explicit split preferences.
var splitPatterns = map[onboarding.TrainingSplit][]string{
	onboarding.SplitFullBody:      {"Full Body"},
	onboarding.SplitUpperLower:    {"Upper", "Lower"},
	onboarding.SplitPushPullLegs:  {"Push", "Pull", "Legs"},
	onboarding.SplitUpperLowerPPL: {"Upper", "Lower", "Push", "Pull", "Legs"},
}

// SplitDay is one entry of the weekly preview.
type SplitDay struct {
	Day     string `json:"day"`
	Workout string `json:"workout"`
}

// IsRest reports whether the day has no workout.
func (d SplitDay) IsRest() bool { return d.Workout == RestLabel }

// DefaultPattern returns the workout rotation used when the user has no usable split preference.
func DefaultPattern(daysPerWeek int) []string {
	switch {
	case daysPerWeek <= 2:
		return []string{"Full Body"}
	case daysPerWeek == 3:
		return []string{"Full Body A", "Full Body B", "Full Body C"}
	case daysPerWeek == 4:
		return []string{"Upper", "Lower"}
	default:
		return []string{"Push", "Pull", "Legs"}
	}
}

// Pattern picks the rotation for a preference, falling back to DefaultPattern
// for custom, none, or no preference.
func Pattern(daysPerWeek int, pref *onboarding.TrainingSplit) []string {
	if pref != nil {
		if p, ok := splitPatterns[*pref]; ok {
			return slices.Clone(p)
		}
	}
	return DefaultPattern(daysPerWeek)
}

// RestDays returns the weekday indices (Monday = 0) that are rest days.
func RestDays(daysPerWeek int) []int {
	n := 7 - clamp(daysPerWeek, 1, 7)
	switch n {
	case 0:
		return nil
	case 1:
		return []int{2}
	case 2:
		return []int{2, 6}
	default:
		return slices.Clone(restPriority[:n])
	}
}

// WeeklySplit lays out a Monday-to-Sunday preview. Training days take the
// pattern entries in order, cycling as needed; every other day is Rest.
// daysPerWeek is clamped to [1, 7].
func WeeklySplit(daysPerWeek int, pref *onboarding.TrainingSplit) []SplitDay {
	days := clamp(daysPerWeek, 1, 7)
	pattern := Pattern(days, pref)
	rest := RestDays(days)

	week := make([]SplitDay, len(Weekdays))
	next := 0
	for i, name := range Weekdays {
		if slices.Contains(rest, i) {
			week[i] = SplitDay{Day: name, Workout: RestLabel}
			continue
		}
		week[i] = SplitDay{Day: name, Workout: pattern[next%len(pattern)]}
		next++
	}
	return week
}
