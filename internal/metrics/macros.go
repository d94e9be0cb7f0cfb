package metrics

import (
	"math"

	"github.com/hyperengineering/fitplan/internal/onboarding"
)

const (
	kcalPerGramProtein = 4
	kcalPerGramCarb    = 4
	kcalPerGramFat     = 9

	fatShareOfCalories = 0.25
)

// Macros holds daily macronutrient targets in grams.
type Macros struct {
	ProteinGrams int `json:"proteinGrams"`
	CarbsGrams   int `json:"carbsGrams"`
	FatsGrams    int `json:"fatsGrams"`
}

// ProteinPerKg returns the protein coefficient in g per kg bodyweight for goal.
func ProteinPerKg(goal onboarding.Goal) float64 {
	switch goal {
	case onboarding.GoalBuildMuscle, onboarding.GoalGetStronger:
		return 2.2
	case onboarding.GoalLoseFat:
		return 2.0
	default:
		return 1.8
	}
}

// SplitMacros divides a calorie target into protein, fat and carbohydrate grams.
//
// Protein is set from bodyweight, fat is a fixed share of calories, and carbs
// take whatever calories remain. Carbs never go below zero even when protein
// and fat alone exceed the target.
func SplitMacros(calories int, weightKg float64, goal onboarding.Goal) Macros {
	protein := int(math.Round(weightKg * ProteinPerKg(goal)))
	fats := int(math.Round(float64(calories) * fatShareOfCalories / kcalPerGramFat))

	remaining := float64(calories - protein*kcalPerGramProtein - fats*kcalPerGramFat)
	carbs := int(math.Round(remaining / kcalPerGramCarb))
	if carbs < 0 {
		carbs = 0
	}

	return Macros{
		ProteinGrams: protein,
		CarbsGrams:   carbs,
		FatsGrams:    fats,
	}
}

// Calories returns the energy content of the macros in kcal.
func (m Macros) Calories() int {
	return m.ProteinGrams*kcalPerGramProtein + m.CarbsGrams*kcalPerGramCarb + m.FatsGrams*kcalPerGramFat
}
