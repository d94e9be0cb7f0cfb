// Package metrics turns a completed set of onboarding answers into calorie and
// macronutrient targets, a fitness-age estimate and a weekly training preview.
//
// Everything here is pure arithmetic over static tables. Results are derived on
// demand from an answers snapshot and are never cached.
package metrics

import (
	"math"

	"github.com/hyperengineering/fitplan/internal/onboarding"
)

// Injury safeguard annotation attached when the user reports an injury.
// The movement count is a fixed stand-in; no exercise library is consulted.
const (
	InjuryAdvisory          = "We'll swap out movements that load your injured area and add mobility work. Check with a medical professional before starting."
	InjuryFilteredMovements = 12
)

// Result is the metrics teaser for one answers snapshot. All numbers are integers.
type Result struct {
	Goal           onboarding.Goal `json:"goal"`
	TimelineMonths int             `json:"timelineMonths"`

	BMR            int `json:"bmr"`
	TDEE           int `json:"tdee"`
	TargetCalories int `json:"targetCalories"`
	Macros

	Age        int `json:"age"`
	FitnessAge int `json:"fitnessAge"`

	WeeklySplit []SplitDay `json:"weeklySplit"`

	InjuryNote        string `json:"injuryNote,omitempty"`
	FilteredMovements int    `json:"filteredMovements,omitempty"`
}

// TrainingDays returns the number of non-rest days in the weekly split.
func (r *Result) TrainingDays() int {
	n := 0
	for _, d := range r.WeeklySplit {
		if !d.IsRest() {
			n++
		}
	}
	return n
}

// Compute derives the metrics teaser from answers.
//
// It returns an *onboarding.InsufficientDataError (matching
// onboarding.ErrInsufficientData) unless every field in
// onboarding.MetricsFields is answered; it never returns a partial result.
func Compute(a onboarding.Answers) (*Result, error) {
	if err := a.RequireFields(onboarding.MetricsFields...); err != nil {
		return nil, err
	}

	timeline, _ := a.Timeline()
	age := *a.Age
	weight := *a.WeightKg
	height := *a.HeightCm
	goal := *a.Goal

	bmr := BMR(*a.Sex, weight, height, age)
	tdee := TDEE(bmr, *a.ActivityLevel)
	calories := TargetCalories(tdee, goal)

	r := &Result{
		Goal:           goal,
		TimelineMonths: timeline.Months(),
		BMR:            int(math.Round(bmr)),
		TDEE:           int(math.Round(tdee)),
		TargetCalories: calories,
		Macros:         SplitMacros(calories, weight, goal),
		Age:            age,
		FitnessAge:     FitnessAge(age, weight, height, *a.ActivityLevel),
		WeeklySplit:    WeeklySplit(*a.DaysPerWeek, a.TrainingSplit),
	}

	if a.HasInjuries != nil && *a.HasInjuries {
		r.InjuryNote = InjuryAdvisory
		r.FilteredMovements = InjuryFilteredMovements
	}

	return r, nil
}
