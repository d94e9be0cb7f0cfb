package onboarding

import (
	"slices"
	"strings"
)

// Sex is the biological sex used by the BMR formula.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
	SexOther  Sex = "other"
)

// Goal is the user's primary training goal.
type Goal string

const (
	GoalBuildMuscle      Goal = "build_muscle"
	GoalLoseFat          Goal = "lose_fat"
	GoalGetStronger      Goal = "get_stronger"
	GoalImproveEndurance Goal = "improve_endurance"
	GoalGeneralFitness   Goal = "general_fitness"
)

// Timeline is the pace bucket derived from the weekly fat-loss rate slider.
type Timeline string

const (
	TimelineAggressive  Timeline = "aggressive"
	TimelineModerate    Timeline = "moderate"
	TimelineSustainable Timeline = "sustainable"
)

// ActivityLevel describes daily non-exercise activity, ordered from least to most active.
type ActivityLevel string

const (
	ActivityMostlySitting   ActivityLevel = "mostly_sitting"
	ActivitySometimesOnFeet ActivityLevel = "sometimes_on_feet"
	ActivityOftenOnFeet     ActivityLevel = "often_on_feet"
	ActivityVeryActive      ActivityLevel = "very_active"
)

// Experience is the user's training background.
type Experience string

const (
	ExperienceBeginner     Experience = "beginner"
	ExperienceIntermediate Experience = "intermediate"
	ExperienceAdvanced     Experience = "advanced"
)

// TrainingSplit is the user's preferred weekly split.
type TrainingSplit string

const (
	SplitFullBody      TrainingSplit = "full_body"
	SplitUpperLower    TrainingSplit = "upper_lower"
	SplitPushPullLegs  TrainingSplit = "push_pull_legs"
	SplitUpperLowerPPL TrainingSplit = "upper_lower_ppl"
	SplitCustom        TrainingSplit = "custom"
	SplitNone          TrainingSplit = "none"
)

// Equipment is one piece of equipment the user has access to.
type Equipment string

const (
	EquipmentBodyweight      Equipment = "bodyweight"
	EquipmentDumbbells       Equipment = "dumbbells"
	EquipmentBarbell         Equipment = "barbell"
	EquipmentKettlebells     Equipment = "kettlebells"
	EquipmentResistanceBands Equipment = "resistance_bands"
	EquipmentPullUpBar       Equipment = "pull_up_bar"
	EquipmentMachines        Equipment = "machines"
	EquipmentFullGym         Equipment = "full_gym"
)

// WorkoutTime is the preferred time of day for training.
type WorkoutTime string

const (
	WorkoutMorning  WorkoutTime = "morning"
	WorkoutMidday   WorkoutTime = "midday"
	WorkoutEvening  WorkoutTime = "evening"
	WorkoutFlexible WorkoutTime = "flexible"
)

// CoachStyle is the tone the user wants from their coach.
type CoachStyle string

const (
	CoachSupportive CoachStyle = "supportive"
	CoachToughLove  CoachStyle = "tough_love"
	CoachAnalytical CoachStyle = "analytical"
	CoachBalanced   CoachStyle = "balanced"
)

// Allowed values per enum, in display order. Used by validation and the CLI.
var (
	Sexes          = []Sex{SexMale, SexFemale, SexOther}
	Goals          = []Goal{GoalBuildMuscle, GoalLoseFat, GoalGetStronger, GoalImproveEndurance, GoalGeneralFitness}
	ActivityLevels = []ActivityLevel{ActivityMostlySitting, ActivitySometimesOnFeet, ActivityOftenOnFeet, ActivityVeryActive}
	Experiences    = []Experience{ExperienceBeginner, ExperienceIntermediate, ExperienceAdvanced}
	TrainingSplits = []TrainingSplit{SplitFullBody, SplitUpperLower, SplitPushPullLegs, SplitUpperLowerPPL, SplitCustom, SplitNone}
	EquipmentItems = []Equipment{
		EquipmentBodyweight, EquipmentDumbbells, EquipmentBarbell, EquipmentKettlebells,
		EquipmentResistanceBands, EquipmentPullUpBar, EquipmentMachines, EquipmentFullGym,
	}
	WorkoutTimes = []WorkoutTime{WorkoutMorning, WorkoutMidday, WorkoutEvening, WorkoutFlexible}
	CoachStyles  = []CoachStyle{CoachSupportive, CoachToughLove, CoachAnalytical, CoachBalanced}
)

// Answers is the accumulating record of one user's onboarding answers.
//
// Every field is optional until answered. A nil pointer or nil slice means the
// question has not been answered; an empty (non-nil) slice or empty string is an
// explicit answer. The JSON form is the flat key-value record handed to the
// persistence layer: unanswered fields are omitted, never written as null.
//
// Height and weight are always metric. The timeline is not stored: only the
// slider value WeeklyFatLossRate is, and Timeline derives the bucket on read.
type Answers struct {
	Sex      *Sex     `json:"sex,omitzero"`
	Age      *int     `json:"age,omitzero"`
	HeightCm *float64 `json:"heightCm,omitzero"`
	WeightKg *float64 `json:"weightKg,omitzero"`

	Goal              *Goal    `json:"goal,omitzero"`
	WeeklyFatLossRate *float64 `json:"weeklyFatLossRate,omitzero"`

	ActivityLevel *ActivityLevel `json:"activityLevel,omitzero"`

	DaysPerWeek          *int           `json:"daysPerWeek,omitzero"`
	Experience           *Experience    `json:"experience,omitzero"`
	TrainingSplit        *TrainingSplit `json:"trainingSplit,omitzero"`
	Equipment            []Equipment    `json:"equipment,omitzero"`
	HasInjuries          *bool          `json:"hasInjuries,omitzero"`
	InjuryDetails        *string        `json:"injuryDetails,omitzero"`
	WorkoutTime          *WorkoutTime   `json:"workoutTime,omitzero"`
	SessionLengthMinutes *int           `json:"sessionLengthMinutes,omitzero"`
	SleepHours           *float64       `json:"sleepHours,omitzero"`

	DietaryRestrictions []string `json:"dietaryRestrictions,omitzero"`
	AvoidFoods          []string `json:"avoidFoods,omitzero"`

	CoachStyle *CoachStyle `json:"coachStyle,omitzero"`
	CoachNotes *string     `json:"coachNotes,omitzero"`
}

// Ptr returns a pointer to v. Convenient for building Answers literals.
func Ptr[T any](v T) *T {
	return &v
}

// TimelineForRate maps the weekly fat-loss rate slider (kg/week) to a timeline bucket.
func TimelineForRate(rate float64) Timeline {
	switch {
	case rate < 0.55:
		return TimelineSustainable
	case rate <= 1.0:
		return TimelineModerate
	default:
		return TimelineAggressive
	}
}

// Months returns the program length for the timeline.
func (t Timeline) Months() int {
	switch t {
	case TimelineAggressive:
		return 3
	case TimelineModerate:
		return 6
	case TimelineSustainable:
		return 12
	default:
		return 0
	}
}

// Timeline derives the goal timeline from the slider value.
// The boolean is false when the slider has not been answered.
func (a Answers) Timeline() (Timeline, bool) {
	if a.WeeklyFatLossRate == nil {
		return "", false
	}
	return TimelineForRate(*a.WeeklyFatLossRate), true
}

// Merge overlays every answered field of patch onto a.
// Fields absent from patch are left untouched.
func (a *Answers) Merge(patch Answers) {
	mergePtr(&a.Sex, patch.Sex)
	mergePtr(&a.Age, patch.Age)
	mergePtr(&a.HeightCm, patch.HeightCm)
	mergePtr(&a.WeightKg, patch.WeightKg)
	mergePtr(&a.Goal, patch.Goal)
	mergePtr(&a.WeeklyFatLossRate, patch.WeeklyFatLossRate)
	mergePtr(&a.ActivityLevel, patch.ActivityLevel)
	mergePtr(&a.DaysPerWeek, patch.DaysPerWeek)
	mergePtr(&a.Experience, patch.Experience)
	mergePtr(&a.TrainingSplit, patch.TrainingSplit)
	if patch.Equipment != nil {
		a.Equipment = dedupeEquipment(patch.Equipment)
	}
	mergePtr(&a.HasInjuries, patch.HasInjuries)
	mergePtr(&a.InjuryDetails, patch.InjuryDetails)
	mergePtr(&a.WorkoutTime, patch.WorkoutTime)
	mergePtr(&a.SessionLengthMinutes, patch.SessionLengthMinutes)
	mergePtr(&a.SleepHours, patch.SleepHours)
	if patch.DietaryRestrictions != nil {
		a.DietaryRestrictions = slices.Clone(patch.DietaryRestrictions)
	}
	if patch.AvoidFoods != nil {
		a.AvoidFoods = slices.Clone(patch.AvoidFoods)
	}
	mergePtr(&a.CoachStyle, patch.CoachStyle)
	mergePtr(&a.CoachNotes, patch.CoachNotes)
}

// AppendCoachNotes merges free text produced by the scripted coach dialogue.
// Blank text is ignored; successive merges are separated by a newline.
func (a *Answers) AppendCoachNotes(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if a.CoachNotes == nil || *a.CoachNotes == "" {
		a.CoachNotes = &text
		return
	}
	joined := *a.CoachNotes + "\n" + text
	a.CoachNotes = &joined
}

// Clone returns a deep copy that shares no memory with a.
func (a Answers) Clone() Answers {
	var out Answers
	out.Merge(a)
	return out
}

func mergePtr[T any](dst **T, src *T) {
	if src == nil {
		return
	}
	v := *src
	*dst = &v
}

// dedupeEquipment keeps the first occurrence of each item; equipment is a set.
func dedupeEquipment(items []Equipment) []Equipment {
	out := make([]Equipment, 0, len(items))
	for _, it := range items {
		if !slices.Contains(out, it) {
			out = append(out, it)
		}
	}
	return out
}
