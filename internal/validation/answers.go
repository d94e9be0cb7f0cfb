package validation

import (
	"fmt"

	"github.com/hyperengineering/fitplan/internal/onboarding"
)

// Accepted input bounds for answers.
const (
	MinAge = 13
	MaxAge = 80

	MinHeightCm = 120.0
	MaxHeightCm = 230.0

	MinWeightKg = 30.0
	MaxWeightKg = 250.0

	MinWeeklyFatLossRate = 0.1
	MaxWeeklyFatLossRate = 1.5

	MinDaysPerWeek = 1
	MaxDaysPerWeek = 7

	MinSleepHours = 3.0
	MaxSleepHours = 12.0

	MinSessionLengthMinutes = 15
	MaxSessionLengthMinutes = 180

	MaxInjuryDetailsLength = 1000
	MaxCoachNotesLength    = 4000
	MaxListItems           = 50
	MaxListItemLength      = 100
)

// ValidateAnswers checks every present field of a (possibly partial) answers
// patch. Absent fields are not reported; completeness is checked elsewhere.
func ValidateAnswers(a onboarding.Answers) []ValidationError {
	var c Collector

	if a.Sex != nil {
		c.Add(ValidateEnum(string(onboarding.FieldSex), string(*a.Sex), enumStrings(onboarding.Sexes)))
	}
	if a.Age != nil {
		c.Add(ValidateIntRange(string(onboarding.FieldAge), *a.Age, MinAge, MaxAge))
	}
	if a.HeightCm != nil {
		c.Add(ValidateRange(string(onboarding.FieldHeightCm), *a.HeightCm, MinHeightCm, MaxHeightCm))
	}
	if a.WeightKg != nil {
		c.Add(ValidateRange(string(onboarding.FieldWeightKg), *a.WeightKg, MinWeightKg, MaxWeightKg))
	}
	if a.Goal != nil {
		c.Add(ValidateEnum(string(onboarding.FieldGoal), string(*a.Goal), enumStrings(onboarding.Goals)))
	}
	if a.WeeklyFatLossRate != nil {
		c.Add(ValidateRange(string(onboarding.FieldWeeklyFatLossRate), *a.WeeklyFatLossRate, MinWeeklyFatLossRate, MaxWeeklyFatLossRate))
	}
	if a.ActivityLevel != nil {
		c.Add(ValidateEnum(string(onboarding.FieldActivityLevel), string(*a.ActivityLevel), enumStrings(onboarding.ActivityLevels)))
	}
	if a.DaysPerWeek != nil {
		c.Add(ValidateIntRange(string(onboarding.FieldDaysPerWeek), *a.DaysPerWeek, MinDaysPerWeek, MaxDaysPerWeek))
	}
	if a.Experience != nil {
		c.Add(ValidateEnum(string(onboarding.FieldExperience), string(*a.Experience), enumStrings(onboarding.Experiences)))
	}
	if a.TrainingSplit != nil {
		c.Add(ValidateEnum(string(onboarding.FieldTrainingSplit), string(*a.TrainingSplit), enumStrings(onboarding.TrainingSplits)))
	}
	if len(a.Equipment) > MaxListItems {
		c.Add(tooManyItems(onboarding.FieldEquipment))
	}
	for i, e := range a.Equipment {
		c.Add(ValidateEnum(indexed(onboarding.FieldEquipment, i), string(e), enumStrings(onboarding.EquipmentItems)))
	}
	if a.InjuryDetails != nil {
		validateText(&c, string(onboarding.FieldInjuryDetails), *a.InjuryDetails, MaxInjuryDetailsLength)
	}
	if a.WorkoutTime != nil {
		c.Add(ValidateEnum(string(onboarding.FieldWorkoutTime), string(*a.WorkoutTime), enumStrings(onboarding.WorkoutTimes)))
	}
	if a.SessionLengthMinutes != nil {
		c.Add(ValidateIntRange(string(onboarding.FieldSessionLengthMinutes), *a.SessionLengthMinutes, MinSessionLengthMinutes, MaxSessionLengthMinutes))
	}
	if a.SleepHours != nil {
		c.Add(ValidateRange(string(onboarding.FieldSleepHours), *a.SleepHours, MinSleepHours, MaxSleepHours))
	}
	validateList(&c, onboarding.FieldDietaryRestrictions, a.DietaryRestrictions)
	validateList(&c, onboarding.FieldAvoidFoods, a.AvoidFoods)
	if a.CoachStyle != nil {
		c.Add(ValidateEnum(string(onboarding.FieldCoachStyle), string(*a.CoachStyle), enumStrings(onboarding.CoachStyles)))
	}
	if a.CoachNotes != nil {
		validateText(&c, string(onboarding.FieldCoachNotes), *a.CoachNotes, MaxCoachNotesLength)
	}

	return c.Errors()
}

// ValidateCoachNotes checks free text merged from the coach dialogue.
func ValidateCoachNotes(text string) []ValidationError {
	var c Collector
	c.Add(ValidateRequired("text", text))
	validateText(&c, "text", text, MaxCoachNotesLength)
	return c.Errors()
}

func validateText(c *Collector, field, value string, max int) {
	c.Add(ValidateUTF8(field, value))
	c.Add(ValidateNoNullBytes(field, value))
	c.Add(ValidateMaxLength(field, value, max))
}

func validateList(c *Collector, field onboarding.Field, items []string) {
	if len(items) > MaxListItems {
		c.Add(tooManyItems(field))
	}
	for i, item := range items {
		name := indexed(field, i)
		c.Add(ValidateRequired(name, item))
		validateText(c, name, item, MaxListItemLength)
	}
}

func tooManyItems(field onboarding.Field) *ValidationError {
	return &ValidationError{
		Field:   string(field),
		Message: fmt.Sprintf("must not contain more than %d items", MaxListItems),
	}
}

func indexed(field onboarding.Field, i int) string {
	return fmt.Sprintf("%s[%d]", field, i)
}

func enumStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// ValidateWeightLb checks a weight given in pounds against the kilogram bounds.
func ValidateWeightLb(field string, lb float64) *ValidationError {
	if kg := onboarding.PoundsToKg(lb); kg >= MinWeightKg && kg <= MaxWeightKg {
		return nil
	}
	return fail(field, "must be between %.1f and %.1f", onboarding.KgToPounds(MinWeightKg), onboarding.KgToPounds(MaxWeightKg))
}

// ValidateHeightIn checks a height given in inches against the centimetre bounds.
func ValidateHeightIn(field string, in float64) *ValidationError {
	if cm := onboarding.InchesToCm(in); cm >= MinHeightCm && cm <= MaxHeightCm {
		return nil
	}
	return fail(field, "must be between %.1f and %.1f", onboarding.CmToInches(MinHeightCm), onboarding.CmToInches(MaxHeightCm))
}
