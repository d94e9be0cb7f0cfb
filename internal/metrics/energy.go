package metrics

import (
	"math"

	"github.com/hyperengineering/fitplan/internal/onboarding"
)

// Calorie targets are clamped to this inclusive range.
const (
	MinCalories = 1200
	MaxCalories = 4000
)

// Sex-specific Mifflin-St Jeor constants. The "other" constant is the mean of
// the male and female constants.
var bmrSexConstant = map[onboarding.Sex]float64{
	onboarding.SexMale:   5,
	onboarding.SexFemale: -161,
	onboarding.SexOther:  -78,
}

// activityMultipliers maps activity level to its TDEE multiplier.
var activityMultipliers = map[onboarding.ActivityLevel]float64{
	onboarding.ActivityMostlySitting:   1.20,
	onboarding.ActivitySometimesOnFeet: 1.375,
	onboarding.ActivityOftenOnFeet:     1.55,
	onboarding.ActivityVeryActive:      1.725,
}

// goalCalorieFactors is the multiplicative goal adjustment applied to TDEE.
var goalCalorieFactors = map[onboarding.Goal]float64{
	onboarding.GoalBuildMuscle:      1.12,
	onboarding.GoalLoseFat:          0.82,
	onboarding.GoalGetStronger:      1.10,
	onboarding.GoalImproveEndurance: 1.05,
	onboarding.GoalGeneralFitness:   1.00,
}

// BMR estimates basal metabolic rate in kcal/day with the Mifflin-St Jeor equation.
func BMR(sex onboarding.Sex, weightKg, heightCm float64, age int) float64 {
	return 10*weightKg + 6.25*heightCm - 5*float64(age) + bmrSexConstant[sex]
}

// ActivityMultiplier returns the TDEE multiplier for level, or 0 for an unknown level.
func ActivityMultiplier(level onboarding.ActivityLevel) float64 {
	return activityMultipliers[level]
}

// TDEE scales a BMR by the activity multiplier.
func TDEE(bmr float64, level onboarding.ActivityLevel) float64 {
	return bmr * ActivityMultiplier(level)
}

// GoalCalorieFactor returns the multiplicative adjustment for goal.
// Unknown goals are treated as general fitness.
func GoalCalorieFactor(goal onboarding.Goal) float64 {
	if f, ok := goalCalorieFactors[goal]; ok {
		return f
	}
	return 1.0
}

// TargetCalories applies the goal adjustment to tdee, rounds to the nearest
// 10 kcal and clamps the result to [MinCalories, MaxCalories].
func TargetCalories(tdee float64, goal onboarding.Goal) int {
	kcal := int(math.Round(tdee*GoalCalorieFactor(goal)/10) * 10)
	return clamp(kcal, MinCalories, MaxCalories)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
