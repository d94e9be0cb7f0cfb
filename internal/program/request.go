// Package program builds the request handed to the plan-generation service and
// validates what comes back.
package program

import (
	"math"
	"slices"

	"github.com/hyperengineering/fitplan/internal/onboarding"
)

// Request is the input to the external plan generator.
//
// A Request is built fresh for every generation attempt and never modified
// afterwards; Build copies every list so the request shares no memory with
// the answers it came from. Optional fields are nil when the user did not
// answer them, which keeps "not provided" distinct from "explicitly empty".
type Request struct {
	Goal           onboarding.Goal          `json:"goal"`
	TimelineMonths int                      `json:"timelineMonths"`
	HeightCm       int                      `json:"heightCm"`
	WeightKg       int                      `json:"weightKg"`
	Age            int                      `json:"age"`
	Sex            onboarding.Sex           `json:"sex"`
	ActivityLevel  onboarding.ActivityLevel `json:"activityLevel"`
	DaysPerWeek    int                      `json:"daysPerWeek"`
	Experience     onboarding.Experience    `json:"experience"`

	Equipment            []onboarding.Equipment    `json:"equipment,omitzero"`
	HasInjuries          *bool                     `json:"hasInjuries,omitzero"`
	InjuryDetails        *string                   `json:"injuryDetails,omitzero"`
	DietaryRestrictions  []string                  `json:"dietaryRestrictions,omitzero"`
	AvoidFoods           []string                  `json:"avoidFoods,omitzero"`
	CoachStyle           *onboarding.CoachStyle    `json:"coachStyle,omitzero"`
	CoachNotes           *string                   `json:"coachNotes,omitzero"`
	WorkoutTime          *onboarding.WorkoutTime   `json:"workoutTime,omitzero"`
	SleepHours           *int                      `json:"sleepHours,omitzero"`
	SessionLengthMinutes *int                      `json:"sessionLengthMinutes,omitzero"`
	TrainingSplit        *onboarding.TrainingSplit `json:"trainingSplit,omitzero"`
}

// Build projects answers into a Request. It returns an
// *onboarding.InsufficientDataError when any of onboarding.RequestFields is unanswered.
// Numeric values are rounded to integers. Injury details are dropped unless
// HasInjuries is true.
func Build(a onboarding.Answers) (*Request, error) {
	if err := a.RequireFields(onboarding.RequestFields...); err != nil {
		return nil, err
	}

	timeline, _ := a.Timeline()
	req := &Request{
		Goal:           *a.Goal,
		TimelineMonths: timeline.Months(),
		HeightCm:       roundInt(*a.HeightCm),
		WeightKg:       roundInt(*a.WeightKg),
		Age:            *a.Age,
		Sex:            *a.Sex,
		ActivityLevel:  *a.ActivityLevel,
		DaysPerWeek:    *a.DaysPerWeek,
		Experience:     *a.Experience,

		Equipment:            slices.Clone(a.Equipment),
		HasInjuries:          copyPtr(a.HasInjuries),
		DietaryRestrictions:  slices.Clone(a.DietaryRestrictions),
		AvoidFoods:           slices.Clone(a.AvoidFoods),
		CoachStyle:           copyPtr(a.CoachStyle),
		CoachNotes:           copyPtr(a.CoachNotes),
		WorkoutTime:          copyPtr(a.WorkoutTime),
		SessionLengthMinutes: copyPtr(a.SessionLengthMinutes),
		TrainingSplit:        copyPtr(a.TrainingSplit),
	}
	// Details only travel while injuries are reported.
	if a.HasInjuries != nil && *a.HasInjuries {
		req.InjuryDetails = copyPtr(a.InjuryDetails)
	}
	if a.SleepHours != nil {
		h := roundInt(*a.SleepHours)
		req.SleepHours = &h
	}
	return req, nil
}

func roundInt(v float64) int {
	return int(math.Round(v))
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
